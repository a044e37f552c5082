package snapshot

import "github.com/questline/rewind/internal/core/world"

// EntityMap translates snapshot-local entity identifiers into live ones.
// It is built up incrementally during a single Applier run and owned by that
// run; callers who pre-seed or retain it do so explicitly.
type EntityMap struct {
	forward map[world.EntityID]world.EntityID
	reverse map[world.EntityID]world.EntityID
}

// NewEntityMap creates an empty map.
func NewEntityMap() *EntityMap {
	return &EntityMap{
		forward: make(map[world.EntityID]world.EntityID),
		reverse: make(map[world.EntityID]world.EntityID),
	}
}

// Insert records a snapshot -> live mapping, replacing any previous entry
// for the snapshot identifier.
func (m *EntityMap) Insert(from, to world.EntityID) {
	if old, ok := m.forward[from]; ok {
		delete(m.reverse, old)
	}
	m.forward[from] = to
	m.reverse[to] = from
}

// Get returns the live identifier mapped to a snapshot identifier.
func (m *EntityMap) Get(from world.EntityID) (world.EntityID, bool) {
	to, ok := m.forward[from]
	return to, ok
}

// Reverse returns the snapshot identifier mapped to a live identifier.
func (m *EntityMap) Reverse(to world.EntityID) (world.EntityID, bool) {
	from, ok := m.reverse[to]
	return from, ok
}

// ResolveOrAllocate returns the live identifier for a snapshot identifier,
// calling alloc and recording the result when the identifier is unmapped.
func (m *EntityMap) ResolveOrAllocate(from world.EntityID, alloc func() world.EntityID) world.EntityID {
	if to, ok := m.forward[from]; ok {
		return to
	}
	to := alloc()
	m.Insert(from, to)
	return to
}

// Len returns the number of recorded mappings.
func (m *EntityMap) Len() int {
	return len(m.forward)
}
