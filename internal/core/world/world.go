package world

import "fmt"

// Predicate selects entities for queries and bulk operations.
type Predicate func(w *World, id EntityID) bool

type entityRecord struct {
	comps map[string]any
	order []string
}

// World is an in-memory live object graph: entities with named components
// plus singleton resources keyed by type name. All mutation is synchronous;
// the caller owns exclusive access for the duration of any operation.
type World struct {
	entities    map[EntityID]*entityRecord
	order       []EntityID
	resources   map[string]any
	resOrder    []string
	generations map[uint32]uint32
	free        []uint32
	nextIndex   uint32
}

// New creates an empty world.
func New() *World {
	return &World{
		entities:    make(map[EntityID]*entityRecord),
		resources:   make(map[string]any),
		generations: make(map[uint32]uint32),
	}
}

// Spawn allocates a fresh entity. Freed slots are reused with a bumped
// generation.
func (w *World) Spawn() EntityID {
	var id EntityID
	if n := len(w.free); n > 0 {
		index := w.free[n-1]
		w.free = w.free[:n-1]
		gen := w.generations[index] + 1
		w.generations[index] = gen
		id = NewEntityID(index, gen)
	} else {
		index := w.nextIndex
		w.nextIndex++
		w.generations[index] = 0
		id = NewEntityID(index, 0)
	}
	w.entities[id] = &entityRecord{comps: make(map[string]any)}
	w.order = append(w.order, id)
	return id
}

// EnsureAlive makes the exact identifier live, claiming its slot if needed.
// Returns true if the entity was created, false if it already existed.
func (w *World) EnsureAlive(id EntityID) bool {
	if _, ok := w.entities[id]; ok {
		return false
	}
	index := id.Index()
	if index >= w.nextIndex {
		w.nextIndex = index + 1
	}
	w.generations[index] = id.Generation()
	for i, f := range w.free {
		if f == index {
			w.free = append(w.free[:i], w.free[i+1:]...)
			break
		}
	}
	w.entities[id] = &entityRecord{comps: make(map[string]any)}
	w.order = append(w.order, id)
	return true
}

// Despawn removes an entity and all of its components.
func (w *World) Despawn(id EntityID) error {
	if _, ok := w.entities[id]; !ok {
		return fmt.Errorf("despawn %v: %w", id, ErrEntityNotFound)
	}
	delete(w.entities, id)
	for i, e := range w.order {
		if e == id {
			w.order = append(w.order[:i], w.order[i+1:]...)
			break
		}
	}
	w.free = append(w.free, id.Index())
	return nil
}

// Contains reports whether the entity is live.
func (w *World) Contains(id EntityID) bool {
	_, ok := w.entities[id]
	return ok
}

// Insert attaches or overwrites a component on the entity.
func (w *World) Insert(id EntityID, name string, value any) error {
	rec, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("insert %s on %v: %w", name, id, ErrEntityNotFound)
	}
	if _, exists := rec.comps[name]; !exists {
		rec.order = append(rec.order, name)
	}
	rec.comps[name] = value
	return nil
}

// Remove detaches a component from the entity.
func (w *World) Remove(id EntityID, name string) error {
	rec, ok := w.entities[id]
	if !ok {
		return fmt.Errorf("remove %s from %v: %w", name, id, ErrEntityNotFound)
	}
	if _, exists := rec.comps[name]; !exists {
		return fmt.Errorf("remove %s from %v: %w", name, id, ErrComponentNotFound)
	}
	delete(rec.comps, name)
	for i, n := range rec.order {
		if n == name {
			rec.order = append(rec.order[:i], rec.order[i+1:]...)
			break
		}
	}
	return nil
}

// Component returns the component value attached to the entity, if any.
func (w *World) Component(id EntityID, name string) (any, bool) {
	rec, ok := w.entities[id]
	if !ok {
		return nil, false
	}
	v, ok := rec.comps[name]
	return v, ok
}

// Has reports whether the entity carries the named component.
func (w *World) Has(id EntityID, name string) bool {
	_, ok := w.Component(id, name)
	return ok
}

// Components lists the entity's component names in attachment order.
func (w *World) Components(id EntityID) []string {
	rec, ok := w.entities[id]
	if !ok {
		return nil
	}
	out := make([]string, len(rec.order))
	copy(out, rec.order)
	return out
}

// Entities lists live entities in spawn order.
func (w *World) Entities() []EntityID {
	out := make([]EntityID, len(w.order))
	copy(out, w.order)
	return out
}

// EntityCount returns the number of live entities.
func (w *World) EntityCount() int {
	return len(w.entities)
}

// SetResource inserts or overwrites the singleton resource of the given type.
func (w *World) SetResource(name string, value any) {
	if _, exists := w.resources[name]; !exists {
		w.resOrder = append(w.resOrder, name)
	}
	w.resources[name] = value
}

// Resource returns the singleton resource of the given type, if present.
func (w *World) Resource(name string) (any, bool) {
	v, ok := w.resources[name]
	return v, ok
}

// RemoveResource drops the singleton resource of the given type.
func (w *World) RemoveResource(name string) {
	if _, exists := w.resources[name]; !exists {
		return
	}
	delete(w.resources, name)
	for i, n := range w.resOrder {
		if n == name {
			w.resOrder = append(w.resOrder[:i], w.resOrder[i+1:]...)
			break
		}
	}
}

// Resources lists resource type names in insertion order.
func (w *World) Resources() []string {
	out := make([]string, len(w.resOrder))
	copy(out, w.resOrder)
	return out
}
