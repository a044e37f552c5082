package snapshot

import (
	"go.uber.org/zap"

	"github.com/questline/rewind/internal/core/observability/log"
	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/world"
)

type despawnKind uint8

const (
	despawnMissing despawnKind = iota
	despawnNone
	despawnAllWith
)

// DespawnMode decides what happens to live entities before restore.
type DespawnMode struct {
	kind despawnKind
	pred world.Predicate
}

// DespawnNone keeps every live entity; supports additive restores.
func DespawnNone() DespawnMode {
	return DespawnMode{kind: despawnNone}
}

// DespawnMissing removes every live entity that carries at least one
// accepted saveable component but does not appear (after mapping) in the
// snapshot. This is the default: it mirrors the snapshot exactly.
func DespawnMissing() DespawnMode {
	return DespawnMode{kind: despawnMissing}
}

// DespawnAllWith removes every live entity matching the predicate,
// independent of snapshot contents.
func DespawnAllWith(pred world.Predicate) DespawnMode {
	return DespawnMode{kind: despawnAllWith, pred: pred}
}

// MappingMode decides how restore treats values already present in the world.
type MappingMode uint8

const (
	// MappingSimple inserts or overwrites unconditionally. Default.
	MappingSimple MappingMode = iota
	// MappingStrict never overwrites an existing component or resource.
	MappingStrict
)

// Hook is a caller-supplied callback invoked per restored entity after its
// components are applied. Hooks run in registration order and mutate the
// world only through the supplied context; effects are visible to
// subsequently-run hooks. A hook error aborts the remaining entity-phase
// work without undoing mutations already applied.
type Hook func(ctx *HookContext) error

// HookContext is the mutation handle a Hook receives for one restored entity.
type HookContext struct {
	w      *world.World
	entity world.EntityID
}

// Entity returns the resolved live identifier of the restored entity.
func (c *HookContext) Entity() world.EntityID {
	return c.entity
}

// Alive reports whether the entity still exists (an earlier hook may have
// despawned it).
func (c *HookContext) Alive() bool {
	return c.w.Contains(c.entity)
}

// Component reads a live component off the restored entity.
func (c *HookContext) Component(name string) (any, bool) {
	return c.w.Component(c.entity, name)
}

// Insert attaches or overwrites a component on the restored entity.
func (c *HookContext) Insert(name string, value any) error {
	return c.w.Insert(c.entity, name, value)
}

// Remove detaches a component from the restored entity.
func (c *HookContext) Remove(name string) error {
	return c.w.Remove(c.entity, name)
}

// Despawn removes the restored entity from the world.
func (c *HookContext) Despawn() error {
	return c.w.Despawn(c.entity)
}

// Applier merges a Snapshot into a live world. Configure it with the
// chaining methods, then run Apply. Each Applier is owned by a single
// logical call; it is not safe for concurrent use and runs to completion
// synchronously. There is no transactional guarantee: a failing hook leaves
// already-applied mutations in place.
type Applier struct {
	world   *world.World
	reg     *registry.Registry
	snap    *Snapshot
	m       *EntityMap
	despawn DespawnMode
	mapping MappingMode
	filter  Filter
	hooks   []Hook
	logger  *log.Logger
}

// NewApplier creates an Applier with default settings: empty identifier map,
// missing-despawn, simple mapping, accept-all filter.
func NewApplier(w *world.World, reg *registry.Registry, snap *Snapshot) *Applier {
	return &Applier{
		world:   w,
		reg:     reg,
		snap:    snap,
		m:       NewEntityMap(),
		despawn: DespawnMissing(),
		mapping: MappingSimple,
		filter:  AcceptAll(),
		logger:  log.Nop(),
	}
}

// Map seeds the identifier map. The map is mutated during Apply; retain the
// reference to observe allocations made for unmapped identifiers.
func (a *Applier) Map(m *EntityMap) *Applier {
	a.m = m
	return a
}

// Despawn changes how existing entities are treated before restore.
func (a *Applier) Despawn(mode DespawnMode) *Applier {
	a.despawn = mode
	return a
}

// Mapping changes the overwrite policy.
func (a *Applier) Mapping(mode MappingMode) *Applier {
	a.mapping = mode
	return a
}

// Filter narrows which registered types are restored.
func (a *Applier) Filter(f Filter) *Applier {
	a.filter = f
	return a
}

// Hook appends a per-entity callback; hooks run in the order added.
func (a *Applier) Hook(hooks ...Hook) *Applier {
	a.hooks = append(a.hooks, hooks...)
	return a
}

// Logger attaches a logger for debug tracing of the run.
func (a *Applier) Logger(l *log.Logger) *Applier {
	a.logger = l
	return a
}

// Apply runs the three restore phases in order: despawn, resources,
// entities. Types present in the snapshot but no longer registered are
// silently skipped so snapshots survive schema evolution.
func (a *Applier) Apply() error {
	if a.world == nil {
		return ErrNilWorld
	}
	if a.snap == nil {
		return ErrNilSnapshot
	}

	a.despawnPhase()
	a.resourcePhase()
	return a.entityPhase()
}

// resolve translates a snapshot identifier into a live one. Under simple
// mapping an unmapped identifier first tries a one-to-one match against the
// world, which lets a checkpoint restore onto the same world it was captured
// from; anything still unresolved allocates a fresh entity. Every resolution
// is recorded in the map.
func (a *Applier) resolve(id world.EntityID) world.EntityID {
	if to, ok := a.m.Get(id); ok {
		return to
	}
	if a.mapping == MappingSimple && a.world.Contains(id) {
		a.m.Insert(id, id)
		return id
	}
	return a.m.ResolveOrAllocate(id, a.world.Spawn)
}

func (a *Applier) despawnPhase() {
	switch a.despawn.kind {
	case despawnNone:
		return

	case despawnAllWith:
		for _, id := range a.world.Entities() {
			if a.despawn.pred(a.world, id) {
				_ = a.world.Despawn(id)
			}
		}

	case despawnMissing:
		valid := make(map[world.EntityID]struct{}, len(a.snap.Entities))
		for _, e := range a.snap.Entities {
			id := e.ID
			if mapped, ok := a.m.Get(e.ID); ok {
				id = mapped
			}
			valid[id] = struct{}{}
		}
		removed := 0
		for _, id := range a.world.Entities() {
			if _, ok := valid[id]; ok {
				continue
			}
			if !a.carriesAccepted(id) {
				continue
			}
			_ = a.world.Despawn(id)
			removed++
		}
		if removed > 0 {
			a.logger.Debug("despawned missing entities", zap.Int("count", removed))
		}
	}
}

// carriesAccepted reports whether the entity has at least one component
// whose type is registered saveable and accepted by the filter.
func (a *Applier) carriesAccepted(id world.EntityID) bool {
	for _, name := range a.world.Components(id) {
		r, ok := a.reg.Lookup(name)
		if ok && r.Kind == registry.KindComponent && a.filter(r) {
			return true
		}
	}
	return false
}

func (a *Applier) resourcePhase() {
	for _, res := range a.snap.Resources {
		r, ok := a.reg.Lookup(res.Name)
		if !ok || r.Kind != registry.KindResource {
			a.logger.Debug("skipping unregistered resource", zap.String("type", res.Name))
			continue
		}
		if !a.filter(r) {
			continue
		}
		if _, exists := a.world.Resource(res.Name); exists && a.mapping == MappingStrict {
			continue
		}
		value := r.Clone(res.Value)
		if r.SupportsRemap() {
			value = r.Remap(value, a.resolve)
		}
		a.world.SetResource(res.Name, value)
	}
}

func (a *Applier) entityPhase() error {
	for _, saved := range a.snap.Entities {
		live := a.resolve(saved.ID)
		a.world.EnsureAlive(live)

		for _, comp := range saved.Components {
			r, ok := a.reg.Lookup(comp.Name)
			if !ok || r.Kind != registry.KindComponent {
				a.logger.Debug("skipping unregistered component",
					zap.String("type", comp.Name), zap.Stringer("entity", saved.ID))
				continue
			}
			if !a.filter(r) {
				continue
			}
			if a.mapping == MappingStrict && a.world.Has(live, comp.Name) {
				continue
			}
			value := r.Clone(comp.Value)
			if r.SupportsRemap() {
				value = r.Remap(value, a.resolve)
			}
			_ = a.world.Insert(live, comp.Name, value)
		}

		ctx := &HookContext{w: a.world, entity: live}
		for i, hook := range a.hooks {
			if err := hook(ctx); err != nil {
				a.logger.Error("restore hook failed",
					zap.Stringer("entity", live), zap.Int("hook", i), zap.Error(err))
				return &ApplyError{Entity: live, Hook: i, Cause: err}
			}
		}
	}
	return nil
}

// Apply restores the snapshot with default settings.
func (s *Snapshot) Apply(w *world.World, reg *registry.Registry) error {
	return NewApplier(w, reg, s).Apply()
}

// Applier creates a configurable restore run for the snapshot.
func (s *Snapshot) Applier(w *world.World, reg *registry.Registry) *Applier {
	return NewApplier(w, reg, s)
}
