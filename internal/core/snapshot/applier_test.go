package snapshot

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/questline/rewind/internal/core/world"
)

func TestApplyToEmptyWorldSpawnsFreshEntities(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()

	e1 := src.Spawn()
	require.NoError(t, src.Insert(e1, "test.position", position{X: 1}))
	e2 := src.Spawn()
	require.NoError(t, src.Insert(e2, "test.health", health{HP: 2}))

	snap := NewBuilder(src, reg).ExtractEntities(e1, e2).ClearEmpty().Build()
	require.Len(t, snap.Entities, 2)

	dst := world.New()
	m := NewEntityMap()
	require.NoError(t, NewApplier(dst, reg, snap).Map(m).Apply())

	require.Equal(t, 2, dst.EntityCount())
	assert.Equal(t, 2, m.Len())

	l1, ok := m.Get(e1)
	require.True(t, ok)
	v, ok := dst.Component(l1, "test.position")
	require.True(t, ok)
	assert.Equal(t, position{X: 1}, v)

	l2, ok := m.Get(e2)
	require.True(t, ok)
	v, ok = dst.Component(l2, "test.health")
	require.True(t, ok)
	assert.Equal(t, health{HP: 2}, v)
}

func TestApplyIdempotentWithSameMap(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{X: 5}))
	src.SetResource("test.score", score{Points: 1})

	snap := Capture(src, reg)

	dst := world.New()
	m := NewEntityMap()
	require.NoError(t, NewApplier(dst, reg, snap).Map(m).Apply())
	first := dst.EntityCount()
	require.NoError(t, NewApplier(dst, reg, snap).Map(m).Apply())

	assert.Equal(t, first, dst.EntityCount())
	mapped, _ := m.Get(id)
	v, _ := dst.Component(mapped, "test.position")
	assert.Equal(t, position{X: 5}, v)
}

func TestApplyOntoSourceWorldMatchesInPlace(t *testing.T) {
	// Simple mapping resolves unmapped identifiers one-to-one against the
	// live world, so restoring onto the capture source never duplicates.
	reg := newTestRegistry()
	w := world.New()
	id := w.Spawn()
	require.NoError(t, w.Insert(id, "test.position", position{X: 1}))

	snap := Capture(w, reg)
	require.NoError(t, w.Insert(id, "test.position", position{X: 9}))

	require.NoError(t, snap.Apply(w, reg))

	assert.Equal(t, 1, w.EntityCount())
	v, _ := w.Component(id, "test.position")
	assert.Equal(t, position{X: 1}, v)
}

func TestStrictMappingNeverOverwrites(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{X: 1}))
	src.SetResource("test.score", score{Points: 1})
	snap := Capture(src, reg)

	dst := world.New()
	m := NewEntityMap()
	live := dst.Spawn()
	m.Insert(id, live)
	require.NoError(t, dst.Insert(live, "test.position", position{X: 42}))
	dst.SetResource("test.score", score{Points: 42})

	require.NoError(t, NewApplier(dst, reg, snap).
		Map(m).
		Mapping(MappingStrict).
		Despawn(DespawnNone()).
		Apply())

	v, _ := dst.Component(live, "test.position")
	assert.Equal(t, position{X: 42}, v)
	r, _ := dst.Resource("test.score")
	assert.Equal(t, score{Points: 42}, r)
}

func TestSimpleMappingOverwrites(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{X: 1}))
	snap := Capture(src, reg)

	dst := world.New()
	m := NewEntityMap()
	live := dst.Spawn()
	m.Insert(id, live)
	require.NoError(t, dst.Insert(live, "test.position", position{X: 42}))

	require.NoError(t, NewApplier(dst, reg, snap).Map(m).Apply())

	v, _ := dst.Component(live, "test.position")
	assert.Equal(t, position{X: 1}, v)
}

func TestMissingDespawnCompleteness(t *testing.T) {
	reg := newTestRegistry()
	w := world.New()

	kept := w.Spawn()
	require.NoError(t, w.Insert(kept, "test.position", position{X: 1}))
	stray := w.Spawn()
	require.NoError(t, w.Insert(stray, "test.health", health{HP: 3}))
	bare := w.Spawn() // carries nothing saveable, survives Missing

	snap := NewBuilder(w, reg).ExtractEntities(kept).Build()

	require.NoError(t, NewApplier(w, reg, snap).Despawn(DespawnMissing()).Apply())

	assert.True(t, w.Contains(kept))
	assert.False(t, w.Contains(stray))
	assert.True(t, w.Contains(bare))
}

func TestDespawnNoneIsAdditive(t *testing.T) {
	reg := newTestRegistry()
	w := world.New()
	resident := w.Spawn()
	require.NoError(t, w.Insert(resident, "test.health", health{HP: 1}))

	// The captured entity sits in a slot the target world does not use, so
	// simple mapping cannot fold it onto the resident.
	src := world.New()
	src.Spawn()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{X: 2}))
	snap := NewBuilder(src, reg).ExtractEntities(id).Build()

	require.NoError(t, NewApplier(w, reg, snap).Despawn(DespawnNone()).Apply())

	assert.True(t, w.Contains(resident))
	assert.Equal(t, 2, w.EntityCount())
}

func TestDespawnAllWithPredicate(t *testing.T) {
	reg := newTestRegistry()
	w := world.New()
	doomed := w.Spawn()
	require.NoError(t, w.Insert(doomed, "test.debug", debugOverlay{}))
	safe := w.Spawn()
	require.NoError(t, w.Insert(safe, "test.position", position{}))

	snap := &Snapshot{}
	require.NoError(t, NewApplier(w, reg, snap).
		Despawn(DespawnAllWith(func(w *world.World, id world.EntityID) bool {
			return w.Has(id, "test.debug")
		})).
		Apply())

	assert.False(t, w.Contains(doomed))
	assert.True(t, w.Contains(safe))
}

func TestUnknownTypesSilentlySkipped(t *testing.T) {
	reg := newTestRegistry()
	w := world.New()

	snap := &Snapshot{
		Resources: []Resource{{Name: "gone.resource", Value: 1}},
		Entities: []Entity{{
			ID:         world.NewEntityID(0, 0),
			Components: []Component{{Name: "gone.component", Value: 2}},
		}},
	}

	require.NoError(t, NewApplier(w, reg, snap).Apply())
	assert.Equal(t, 1, w.EntityCount()) // entity spawned, component skipped
	for _, id := range w.Entities() {
		assert.Empty(t, w.Components(id))
	}
	assert.Empty(t, w.Resources())
}

func TestRemapRewritesEmbeddedIdentifiers(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()

	leader := src.Spawn()
	require.NoError(t, src.Insert(leader, "test.position", position{X: 1}))
	follower := src.Spawn()
	require.NoError(t, src.Insert(follower, "test.follow", follow{Target: leader}))

	snap := Capture(src, reg)

	dst := world.New()
	m := NewEntityMap()
	require.NoError(t, NewApplier(dst, reg, snap).Map(m).Apply())

	newLeader, ok := m.Get(leader)
	require.True(t, ok)
	newFollower, ok := m.Get(follower)
	require.True(t, ok)

	v, ok := dst.Component(newFollower, "test.follow")
	require.True(t, ok)
	assert.Equal(t, follow{Target: newLeader}, v)
}

func TestRemapAllocatesForwardReference(t *testing.T) {
	// A follow component can point at an entity that appears later in the
	// snapshot; remapping must allocate it eagerly and the later record must
	// land on the same allocation.
	reg := newTestRegistry()
	src := world.New()
	follower := src.Spawn()
	leader := src.Spawn()
	require.NoError(t, src.Insert(follower, "test.follow", follow{Target: leader}))
	require.NoError(t, src.Insert(leader, "test.position", position{X: 7}))

	snap := Capture(src, reg)

	dst := world.New()
	m := NewEntityMap()
	require.NoError(t, NewApplier(dst, reg, snap).Map(m).Apply())

	mappedLeader, ok := m.Get(leader)
	require.True(t, ok)
	v, ok := dst.Component(mappedLeader, "test.position")
	require.True(t, ok)
	assert.Equal(t, position{X: 7}, v)
	assert.Equal(t, 2, dst.EntityCount())
}

func TestHooksRunInOrderWithMutationHandle(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{X: 1}))
	snap := Capture(src, reg)

	dst := world.New()
	var order []int
	require.NoError(t, NewApplier(dst, reg, snap).
		Hook(func(ctx *HookContext) error {
			order = append(order, 1)
			return ctx.Insert("test.health", health{HP: 99})
		}).
		Hook(func(ctx *HookContext) error {
			order = append(order, 2)
			// Effects of earlier hooks are visible here.
			v, ok := ctx.Component("test.health")
			assert.True(t, ok)
			assert.Equal(t, health{HP: 99}, v)
			return nil
		}).
		Apply())

	assert.Equal(t, []int{1, 2}, order)
}

func TestHookFailureAbortsEntityPhase(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	e1 := src.Spawn()
	require.NoError(t, src.Insert(e1, "test.position", position{X: 1}))
	e2 := src.Spawn()
	require.NoError(t, src.Insert(e2, "test.position", position{X: 2}))
	snap := Capture(src, reg)

	boom := errors.New("boom")
	dst := world.New()
	calls := 0
	err := NewApplier(dst, reg, snap).
		Hook(func(ctx *HookContext) error {
			calls++
			return boom
		}).
		Apply()

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrHookAborted)
	var applyErr *ApplyError
	require.ErrorAs(t, err, &applyErr)
	assert.Equal(t, 0, applyErr.Hook)

	// Aborted after the first entity: its mutations stay, the second entity
	// was never processed.
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, dst.EntityCount())
}

func TestHookDespawn(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{}))
	snap := Capture(src, reg)

	dst := world.New()
	require.NoError(t, NewApplier(dst, reg, snap).
		Hook(func(ctx *HookContext) error { return ctx.Despawn() }).
		Hook(func(ctx *HookContext) error {
			assert.False(t, ctx.Alive())
			return nil
		}).
		Apply())

	assert.Equal(t, 0, dst.EntityCount())
}

func TestApplyEmptySnapshotNoOpBeyondDespawn(t *testing.T) {
	reg := newTestRegistry()
	w := world.New()
	id := w.Spawn()
	require.NoError(t, w.Insert(id, "test.position", position{}))

	require.NoError(t, NewApplier(w, reg, &Snapshot{}).Despawn(DespawnNone()).Apply())
	assert.Equal(t, 1, w.EntityCount())

	require.NoError(t, NewApplier(w, reg, &Snapshot{}).Despawn(DespawnMissing()).Apply())
	assert.Equal(t, 0, w.EntityCount())
}

func TestApplierNilArguments(t *testing.T) {
	reg := newTestRegistry()
	assert.ErrorIs(t, NewApplier(nil, reg, &Snapshot{}).Apply(), ErrNilWorld)
	assert.ErrorIs(t, NewApplier(world.New(), reg, nil).Apply(), ErrNilSnapshot)
}

func TestApplierFilterRestricts(t *testing.T) {
	reg := newTestRegistry()
	src := world.New()
	id := src.Spawn()
	require.NoError(t, src.Insert(id, "test.position", position{X: 1}))
	require.NoError(t, src.Insert(id, "test.health", health{HP: 1}))
	snap := Capture(src, reg)

	dst := world.New()
	m := NewEntityMap()
	require.NoError(t, NewApplier(dst, reg, snap).
		Map(m).
		Filter(Allow("test.position")).
		Apply())

	live, _ := m.Get(id)
	assert.True(t, dst.Has(live, "test.position"))
	assert.False(t, dst.Has(live, "test.health"))
}
