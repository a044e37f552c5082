package registry

import (
	"encoding/gob"
	"fmt"
	"reflect"
	"sync"

	"github.com/questline/rewind/internal/core/world"
)

// Kind classifies a registered type as entity-attached or singleton data.
type Kind uint8

const (
	KindComponent Kind = iota
	KindResource
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// CloneFunc produces an independent copy of a boxed value.
type CloneFunc func(value any) any

// RemapFunc rewrites entity identifiers embedded in a value. The resolve
// callback translates a snapshot-local identifier into a live one, allocating
// a fresh entity when the identifier has not been seen before.
type RemapFunc func(value any, resolve func(world.EntityID) world.EntityID) any

// Registration describes one saveable type. Only registered types participate
// in capture and restore; anything else is invisible to the engine.
type Registration struct {
	Name     string
	Kind     Kind
	Type     reflect.Type
	Rollback bool
	CloneFn  CloneFunc
	RemapFn  RemapFunc
}

// Clone copies a boxed value of this type. Values are assumed to be plain
// data; types holding pointers, slices or maps should register a CloneFn.
func (r *Registration) Clone(v any) any {
	if r.CloneFn != nil {
		return r.CloneFn(v)
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		c := reflect.New(rv.Type().Elem())
		c.Elem().Set(rv.Elem())
		return c.Interface()
	}
	return v
}

// SupportsRemap reports whether values of this type embed entity identifiers
// that must be rewritten on restore.
func (r *Registration) SupportsRemap() bool {
	return r.RemapFn != nil
}

// Remap rewrites embedded identifiers through resolve. No-op for types
// without a RemapFn.
func (r *Registration) Remap(v any, resolve func(world.EntityID) world.EntityID) any {
	if r.RemapFn == nil {
		return v
	}
	return r.RemapFn(v, resolve)
}

// Option tweaks a Registration built by Component or Resource.
type Option func(*Registration)

// WithRollback controls whether the type participates in checkpoints.
// Registered types roll back by default.
func WithRollback(enabled bool) Option {
	return func(r *Registration) { r.Rollback = enabled }
}

// WithClone installs a custom copy function for the type.
func WithClone[T any](fn func(T) T) Option {
	return func(r *Registration) {
		r.CloneFn = func(v any) any { return fn(v.(T)) }
	}
}

// WithRemap marks the type as identifier-bearing and installs its rewriter.
func WithRemap[T any](fn func(value T, resolve func(world.EntityID) world.EntityID) T) Option {
	return func(r *Registration) {
		r.RemapFn = func(v any, resolve func(world.EntityID) world.EntityID) any {
			return fn(v.(T), resolve)
		}
	}
}

// Component builds a component registration for T under the given name.
func Component[T any](name string, opts ...Option) Registration {
	return build[T](name, KindComponent, opts)
}

// Resource builds a singleton resource registration for T under the given name.
func Resource[T any](name string, opts ...Option) Registration {
	return build[T](name, KindResource, opts)
}

func build[T any](name string, kind Kind, opts []Option) Registration {
	r := Registration{
		Name:     name,
		Kind:     kind,
		Type:     reflect.TypeOf((*T)(nil)).Elem(),
		Rollback: true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// Registry is the set of saveable types for one world. It is the single
// dynamic-dispatch boundary of the engine: everything the snapshot machinery
// knows about a concrete type it learns from here.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Registration
	byType map[reflect.Type]*Registration
	order  []*Registration
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		byName: make(map[string]*Registration),
		byType: make(map[reflect.Type]*Registration),
	}
}

// Register adds a saveable type. Names and Go types must be unique within
// one registry. The concrete type is also registered with encoding/gob so
// binary codecs can round-trip boxed values.
func (reg *Registry) Register(r Registration) error {
	if r.Name == "" || r.Type == nil {
		return fmt.Errorf("register: %w: name and type are required", ErrInvalidRegistration)
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	if _, ok := reg.byName[r.Name]; ok {
		return fmt.Errorf("register %q: %w", r.Name, ErrAlreadyRegistered)
	}
	if _, ok := reg.byType[r.Type]; ok {
		return fmt.Errorf("register %q (%s): %w", r.Name, r.Type, ErrAlreadyRegistered)
	}

	gob.Register(reflect.New(r.Type).Elem().Interface())

	rec := r
	reg.byName[rec.Name] = &rec
	reg.byType[rec.Type] = &rec
	reg.order = append(reg.order, &rec)
	return nil
}

// MustRegister is Register, panicking on error. Intended for setup code.
func (reg *Registry) MustRegister(rs ...Registration) {
	for _, r := range rs {
		if err := reg.Register(r); err != nil {
			panic(err)
		}
	}
}

// Lookup finds a registration by type name.
func (reg *Registry) Lookup(name string) (*Registration, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.byName[name]
	return r, ok
}

// LookupValue finds the registration matching a boxed value's concrete type.
func (reg *Registry) LookupValue(v any) (*Registration, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	r, ok := reg.byType[reflect.TypeOf(v)]
	return r, ok
}

// NameOf returns the registered name for a boxed value's concrete type.
func (reg *Registry) NameOf(v any) (string, bool) {
	r, ok := reg.LookupValue(v)
	if !ok {
		return "", false
	}
	return r.Name, true
}

// Contains reports whether the type name is registered.
func (reg *Registry) Contains(name string) bool {
	_, ok := reg.Lookup(name)
	return ok
}

// Types lists registrations in registration order.
func (reg *Registry) Types() []*Registration {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := make([]*Registration, len(reg.order))
	copy(out, reg.order)
	return out
}

// Len returns the number of registered types.
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return len(reg.order)
}
