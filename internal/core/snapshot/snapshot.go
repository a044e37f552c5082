package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/world"
)

// Component is a type-tagged boxed component value captured from an entity.
type Component struct {
	Name  string
	Value any
}

// Entity is one captured entity: its identifier at capture time plus its
// accepted component values in first-extraction order.
type Entity struct {
	ID         world.EntityID
	Components []Component
}

// Component returns the captured component value with the given type name.
func (e *Entity) Component(name string) (any, bool) {
	for _, c := range e.Components {
		if c.Name == name {
			return c.Value, true
		}
	}
	return nil, false
}

// Resource is a type-tagged singleton value captured from the world.
type Resource struct {
	Name  string
	Value any
}

// Snapshot is an immutable capture of world state at one instant: a set of
// singleton resources plus an ordered sequence of entities. No two entities
// share an identifier and no two resources share a type tag. Snapshots are
// constructed only by a Builder; treat a built Snapshot as read-only.
type Snapshot struct {
	ID        uuid.UUID
	TakenAt   time.Time
	Resources []Resource
	Entities  []Entity
}

// Resource returns the captured resource with the given type name.
func (s *Snapshot) Resource(name string) (any, bool) {
	for _, r := range s.Resources {
		if r.Name == name {
			return r.Value, true
		}
	}
	return nil, false
}

// Entity returns the captured entity record for the given identifier.
func (s *Snapshot) Entity(id world.EntityID) (*Entity, bool) {
	for i := range s.Entities {
		if s.Entities[i].ID == id {
			return &s.Entities[i], true
		}
	}
	return nil, false
}

// Clone deep-copies the snapshot. Boxed values are copied through their
// registrations; values of types no longer registered are carried over as-is.
func (s *Snapshot) Clone(reg *registry.Registry) *Snapshot {
	c := &Snapshot{
		ID:        s.ID,
		TakenAt:   s.TakenAt,
		Resources: make([]Resource, len(s.Resources)),
		Entities:  make([]Entity, len(s.Entities)),
	}
	for i, res := range s.Resources {
		c.Resources[i] = Resource{Name: res.Name, Value: cloneValue(reg, res.Name, res.Value)}
	}
	for i, e := range s.Entities {
		comps := make([]Component, len(e.Components))
		for j, comp := range e.Components {
			comps[j] = Component{Name: comp.Name, Value: cloneValue(reg, comp.Name, comp.Value)}
		}
		c.Entities[i] = Entity{ID: e.ID, Components: comps}
	}
	return c
}

func cloneValue(reg *registry.Registry, name string, v any) any {
	if r, ok := reg.Lookup(name); ok {
		return r.Clone(v)
	}
	return v
}

// Checkpoint is a snapshot restricted to rollback-eligible types, stored in
// a Rollbacks ledger and consumed read-only during rollback.
type Checkpoint struct {
	Snapshot
}
