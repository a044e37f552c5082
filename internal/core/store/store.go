// Package store is the named save/load pipeline: capture through the
// builder, encode through a codec format, persist through a backend. Each
// stored blob carries a checksum envelope so corruption surfaces at load
// time instead of as a half-restored world.
package store

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/questline/rewind/internal/core/backend"
	"github.com/questline/rewind/internal/core/observability/log"
	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/snapshot"
	"github.com/questline/rewind/internal/core/snapshot/codec"
	"github.com/questline/rewind/internal/core/world"
)

var (
	ErrChecksumMismatch = errors.New("save checksum mismatch")
	ErrTruncatedSave    = errors.New("save envelope truncated")
)

// Store binds a backend, a format and a registry into save/load operations
// over a live world.
type Store struct {
	backend backend.Backend
	format  codec.Format
	reg     *registry.Registry
	logger  *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger attaches a logger; the default discards output.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a Store.
func New(b backend.Backend, f codec.Format, reg *registry.Registry, opts ...Option) *Store {
	s := &Store{backend: b, format: f, reg: reg, logger: log.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyOption configures how Load merges the decoded snapshot.
type ApplyOption func(*applyConfig)

type applyConfig struct {
	despawn snapshot.DespawnMode
	mapping snapshot.MappingMode
	filter  snapshot.Filter
	hooks   []snapshot.Hook
	m       *snapshot.EntityMap
}

// WithDespawn overrides the despawn policy (default: missing).
func WithDespawn(mode snapshot.DespawnMode) ApplyOption {
	return func(c *applyConfig) { c.despawn = mode }
}

// WithMapping overrides the overwrite policy (default: simple).
func WithMapping(mode snapshot.MappingMode) ApplyOption {
	return func(c *applyConfig) { c.mapping = mode }
}

// WithFilter restricts which registered types are restored.
func WithFilter(f snapshot.Filter) ApplyOption {
	return func(c *applyConfig) { c.filter = f }
}

// WithHooks appends per-entity restore hooks.
func WithHooks(hooks ...snapshot.Hook) ApplyOption {
	return func(c *applyConfig) { c.hooks = append(c.hooks, hooks...) }
}

// WithEntityMap seeds the identifier map for the restore run.
func WithEntityMap(m *snapshot.EntityMap) ApplyOption {
	return func(c *applyConfig) { c.m = m }
}

// Save captures the whole world and persists it under name.
func (s *Store) Save(name string, w *world.World) error {
	return s.SaveSnapshot(name, snapshot.Capture(w, s.reg))
}

// SaveSnapshot persists an already-captured snapshot under name.
func (s *Store) SaveSnapshot(name string, snap *snapshot.Snapshot) error {
	data, err := s.format.Encode(snap)
	if err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	if err = s.backend.Write(name, seal(data)); err != nil {
		return fmt.Errorf("save %q: %w", name, err)
	}
	s.logger.Info("saved snapshot",
		zap.String("name", name),
		zap.String("format", s.format.Name()),
		zap.Int("entities", len(snap.Entities)),
		zap.Int("bytes", len(data)))
	return nil
}

// LoadSnapshot reads and decodes the named save without touching any world.
func (s *Store) LoadSnapshot(name string) (*snapshot.Snapshot, error) {
	data, err := s.backend.Read(name)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	payload, err := unseal(data)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	snap, err := s.format.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", name, err)
	}
	return snap, nil
}

// Load reads the named save and merges it into the world. Defaults mirror
// the save exactly: missing-despawn with simple mapping.
func (s *Store) Load(name string, w *world.World, opts ...ApplyOption) error {
	snap, err := s.LoadSnapshot(name)
	if err != nil {
		return err
	}

	cfg := applyConfig{
		despawn: snapshot.DespawnMissing(),
		mapping: snapshot.MappingSimple,
		filter:  snapshot.AcceptAll(),
		m:       snapshot.NewEntityMap(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	err = snapshot.NewApplier(w, s.reg, snap).
		Map(cfg.m).
		Despawn(cfg.despawn).
		Mapping(cfg.mapping).
		Filter(cfg.filter).
		Hook(cfg.hooks...).
		Logger(s.logger).
		Apply()
	if err != nil {
		return fmt.Errorf("load %q: %w", name, err)
	}
	s.logger.Info("loaded snapshot", zap.String("name", name), zap.Int("entities", len(snap.Entities)))
	return nil
}

// Delete removes the named save.
func (s *Store) Delete(name string) error {
	return s.backend.Delete(name)
}

// List returns all save names known to the backend.
func (s *Store) List() ([]string, error) {
	return s.backend.List()
}

// Prune deletes every save not in keep. Deletes run concurrently; the first
// failure wins but does not stop the others.
func (s *Store) Prune(keep ...string) error {
	names, err := s.backend.List()
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	kept := make(map[string]struct{}, len(keep))
	for _, name := range keep {
		kept[name] = struct{}{}
	}

	var g errgroup.Group
	for _, name := range names {
		if _, ok := kept[name]; ok {
			continue
		}
		name := name
		g.Go(func() error {
			s.logger.Debug("pruning save", zap.String("name", name))
			return s.backend.Delete(name)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	return nil
}

// seal prepends an xxhash64 checksum of the payload.
func seal(payload []byte) []byte {
	out := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint64(out, xxhash.Sum64(payload))
	copy(out[8:], payload)
	return out
}

// unseal verifies and strips the checksum envelope.
func unseal(data []byte) ([]byte, error) {
	if len(data) < 8 {
		return nil, ErrTruncatedSave
	}
	payload := data[8:]
	if binary.LittleEndian.Uint64(data) != xxhash.Sum64(payload) {
		return nil, ErrChecksumMismatch
	}
	return payload, nil
}
