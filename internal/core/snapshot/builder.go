package snapshot

import (
	"time"

	"github.com/google/uuid"

	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/world"
)

// Builder incrementally assembles a Snapshot from selected parts of a live
// world. Extraction is idempotent per identifier and per resource type;
// component order within an entity follows first extraction. Build consumes
// the builder: later calls are no-ops.
type Builder struct {
	world     *world.World
	reg       *registry.Registry
	filter    Filter
	resSeen   map[string]struct{}
	entSeen   map[world.EntityID]struct{}
	resources []Resource
	entities  []Entity
	done      bool
}

// NewBuilder starts an empty capture over the given world and registry.
func NewBuilder(w *world.World, reg *registry.Registry) *Builder {
	return &Builder{
		world:   w,
		reg:     reg,
		filter:  AcceptAll(),
		resSeen: make(map[string]struct{}),
		entSeen: make(map[world.EntityID]struct{}),
	}
}

// WithFilter narrows the type filter for subsequent extraction calls. The
// new filter is AND-composed with the current one.
func (b *Builder) WithFilter(f Filter) *Builder {
	if b.done {
		return b
	}
	b.filter = b.filter.And(f)
	return b
}

// ExtractResource copies the named singleton resources from the live world.
// Unregistered names, rejected types and resources absent from the world are
// skipped; already-extracted types are left untouched.
func (b *Builder) ExtractResource(names ...string) *Builder {
	if b.done {
		return b
	}
	for _, name := range names {
		r, ok := b.reg.Lookup(name)
		if !ok || r.Kind != registry.KindResource || !b.filter(r) {
			continue
		}
		if _, seen := b.resSeen[name]; seen {
			continue
		}
		live, ok := b.world.Resource(name)
		if !ok {
			continue
		}
		b.resSeen[name] = struct{}{}
		b.resources = append(b.resources, Resource{Name: name, Value: r.Clone(live)})
	}
	return b
}

// ExtractAllResources copies every registered resource type present in the
// world and accepted by the filter.
func (b *Builder) ExtractAllResources() *Builder {
	if b.done {
		return b
	}
	for _, r := range b.reg.Types() {
		if r.Kind == registry.KindResource {
			b.ExtractResource(r.Name)
		}
	}
	return b
}

// ExtractEntities copies the accepted components of each listed entity.
// Already-extracted and dead identifiers are skipped. Entities whose
// components are all rejected still get a record; use ClearEmpty to drop
// them.
func (b *Builder) ExtractEntities(ids ...world.EntityID) *Builder {
	if b.done {
		return b
	}
	for _, id := range ids {
		if _, seen := b.entSeen[id]; seen {
			continue
		}
		if !b.world.Contains(id) {
			continue
		}
		b.entSeen[id] = struct{}{}

		entry := Entity{ID: id}
		for _, name := range b.world.Components(id) {
			r, ok := b.reg.Lookup(name)
			if !ok || r.Kind != registry.KindComponent || !b.filter(r) {
				continue
			}
			live, _ := b.world.Component(id, name)
			entry.Components = append(entry.Components, Component{Name: name, Value: r.Clone(live)})
		}
		b.entities = append(b.entities, entry)
	}
	return b
}

// ExtractAllEntities copies every live entity in spawn order.
func (b *Builder) ExtractAllEntities() *Builder {
	if b.done {
		return b
	}
	return b.ExtractEntities(b.world.Entities()...)
}

// ClearEmpty removes entity records with zero captured components from the
// in-progress capture. Must run before Build to take effect.
func (b *Builder) ClearEmpty() *Builder {
	if b.done {
		return b
	}
	kept := b.entities[:0]
	for _, e := range b.entities {
		if len(e.Components) == 0 {
			delete(b.entSeen, e.ID)
			continue
		}
		kept = append(kept, e)
	}
	b.entities = kept
	return b
}

// Build finalizes the capture and consumes the builder. A second call
// returns nil.
func (b *Builder) Build() *Snapshot {
	if b.done {
		return nil
	}
	b.done = true
	return &Snapshot{
		ID:        uuid.New(),
		TakenAt:   time.Now().UTC(),
		Resources: b.resources,
		Entities:  b.entities,
	}
}

// Capture snapshots every registered resource and every live entity.
func Capture(w *world.World, reg *registry.Registry) *Snapshot {
	return CaptureWith(w, reg, AcceptAll())
}

// CaptureWith snapshots the world through the given type filter.
func CaptureWith(w *world.World, reg *registry.Registry, f Filter) *Snapshot {
	return NewBuilder(w, reg).
		WithFilter(f).
		ExtractAllResources().
		ExtractAllEntities().
		Build()
}

// CaptureCheckpoint snapshots only rollback-eligible types.
func CaptureCheckpoint(w *world.World, reg *registry.Registry) *Checkpoint {
	return &Checkpoint{Snapshot: *CaptureWith(w, reg, RollbackOnly())}
}
