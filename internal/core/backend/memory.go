package backend

import (
	"fmt"
	"sort"
	"sync"
)

// Memory keeps saves in process memory. Useful for tests and for hosts that
// manage persistence themselves.
type Memory struct {
	mu    sync.RWMutex
	saves map[string][]byte
}

// NewMemory creates an empty in-memory backend.
func NewMemory() *Memory {
	return &Memory{saves: make(map[string][]byte)}
}

func (m *Memory) Write(name string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.saves[name] = buf
	return nil
}

func (m *Memory) Read(name string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.saves[name]
	if !ok {
		return nil, fmt.Errorf("read %q: %w", name, ErrNotFound)
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return buf, nil
}

func (m *Memory) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.saves[name]; !ok {
		return fmt.Errorf("delete %q: %w", name, ErrNotFound)
	}
	delete(m.saves, name)
	return nil
}

func (m *Memory) List() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.saves))
	for name := range m.saves {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
