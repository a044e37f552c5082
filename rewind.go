// Package rewind is the public surface of the engine. It re-exports the
// snapshot, rollback and persistence building blocks so applications depend
// on one import path; the internal packages stay free to evolve.
//
// Typical use:
//
//	reg := rewind.NewRegistry()
//	reg.MustRegister(rewind.Component[Position]("position"))
//
//	w := rewind.NewWorld()
//	// ... populate ...
//
//	snap := rewind.Capture(w, reg)
//	err := snap.Apply(w, reg)
package rewind

import (
	"github.com/questline/rewind/internal/core/backend"
	"github.com/questline/rewind/internal/core/observability/log"
	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/snapshot"
	"github.com/questline/rewind/internal/core/snapshot/codec"
	"github.com/questline/rewind/internal/core/store"
	"github.com/questline/rewind/internal/core/world"
)

// World model.
type (
	World    = world.World
	EntityID = world.EntityID
)

// NewWorld creates an empty world.
func NewWorld() *World { return world.New() }

// NewEntityID builds an identifier from its index and generation halves.
func NewEntityID(index, generation uint32) EntityID {
	return world.NewEntityID(index, generation)
}

// Type registry.
type (
	Registry     = registry.Registry
	Registration = registry.Registration
	Kind         = registry.Kind
)

const (
	KindComponent = registry.KindComponent
	KindResource  = registry.KindResource
)

// NewRegistry creates an empty type registry.
func NewRegistry() *Registry { return registry.New() }

// Component builds a component registration for T.
func Component[T any](name string, opts ...registry.Option) Registration {
	return registry.Component[T](name, opts...)
}

// Resource builds a resource registration for T.
func Resource[T any](name string, opts ...registry.Option) Registration {
	return registry.Resource[T](name, opts...)
}

// WithRollback marks whether the type participates in checkpoints.
func WithRollback(enabled bool) registry.Option { return registry.WithRollback(enabled) }

// WithClone installs a custom copy function for T.
func WithClone[T any](fn func(T) T) registry.Option { return registry.WithClone(fn) }

// WithRemap marks T as identifier-bearing and installs its rewriter.
func WithRemap[T any](fn func(value T, resolve func(EntityID) EntityID) T) registry.Option {
	return registry.WithRemap(fn)
}

// Snapshots.
type (
	Snapshot    = snapshot.Snapshot
	Checkpoint  = snapshot.Checkpoint
	Builder     = snapshot.Builder
	Filter      = snapshot.Filter
	EntityMap   = snapshot.EntityMap
	Applier     = snapshot.Applier
	Hook        = snapshot.Hook
	HookContext = snapshot.HookContext
	DespawnMode = snapshot.DespawnMode
	MappingMode = snapshot.MappingMode
	Rollbacks   = snapshot.Rollbacks
)

const (
	MappingSimple = snapshot.MappingSimple
	MappingStrict = snapshot.MappingStrict
)

// NewBuilder starts an incremental capture of w.
func NewBuilder(w *World, reg *Registry) *Builder { return snapshot.NewBuilder(w, reg) }

// Capture snapshots the whole world.
func Capture(w *World, reg *Registry) *Snapshot { return snapshot.Capture(w, reg) }

// CaptureWith snapshots the world restricted by a filter.
func CaptureWith(w *World, reg *Registry, f Filter) *Snapshot {
	return snapshot.CaptureWith(w, reg, f)
}

// NewApplier prepares a configurable restore of snap into w.
func NewApplier(w *World, reg *Registry, snap *Snapshot) *Applier {
	return snapshot.NewApplier(w, reg, snap)
}

// NewEntityMap creates an empty identifier map.
func NewEntityMap() *EntityMap { return snapshot.NewEntityMap() }

// NewRollbacks creates a checkpoint ledger; capacity <= 0 means unbounded.
func NewRollbacks(reg *Registry, capacity int) *Rollbacks {
	return snapshot.NewRollbacks(reg, capacity)
}

// Despawn policies.
func DespawnNone() DespawnMode { return snapshot.DespawnNone() }
func DespawnMissing() DespawnMode { return snapshot.DespawnMissing() }
func DespawnAllWith(pred func(w *World, id EntityID) bool) DespawnMode {
	return snapshot.DespawnAllWith(pred)
}

// Filters.
func AcceptAll() Filter            { return snapshot.AcceptAll() }
func Allow(names ...string) Filter { return snapshot.Allow(names...) }
func Deny(names ...string) Filter  { return snapshot.Deny(names...) }
func RollbackOnly() Filter         { return snapshot.RollbackOnly() }

// ExprFilter compiles an expression over type metadata into a filter.
func ExprFilter(src string) (Filter, error) { return snapshot.ExprFilter(src) }

// ExprPredicate compiles an expression over live entities, usable with
// DespawnAllWith.
func ExprPredicate(src string) (func(w *World, id EntityID) bool, error) {
	pred, err := snapshot.ExprPredicate(src)
	if err != nil {
		return nil, err
	}
	return pred, nil
}

// Persistence.
type (
	Backend = backend.Backend
	Format  = codec.Format
	Store   = store.Store
)

// NewMemoryBackend creates an in-process backend, useful for tests.
func NewMemoryBackend() Backend { return backend.NewMemory() }

// NewFileBackend creates a directory-of-files backend rooted at dir.
func NewFileBackend(dir string) (Backend, error) { return backend.NewFile(dir) }

// WithCompression layers snappy compression over a backend.
func WithCompression(inner Backend) Backend { return backend.WithCompression(inner) }

// NewJSONFormat creates the JSON wire format bound to reg.
func NewJSONFormat(reg *Registry) Format { return codec.NewJSON(reg) }

// NewYAMLFormat creates the YAML wire format bound to reg.
func NewYAMLFormat(reg *Registry) Format { return codec.NewYAML(reg) }

// NewGobFormat creates the gob wire format bound to reg.
func NewGobFormat(reg *Registry) Format { return codec.NewGob(reg) }

// NewStore binds a backend, format and registry into a named save pipeline.
func NewStore(b Backend, f Format, reg *Registry, opts ...store.Option) *Store {
	return store.New(b, f, reg, opts...)
}

// Logging.
type Logger = log.Logger

// NewLogger creates a JSON logger at the given level.
func NewLogger(level log.Level) *Logger { return log.New(level) }

// NopLogger returns a logger that discards everything.
func NopLogger() *Logger { return log.Nop() }
