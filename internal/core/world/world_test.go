package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawnDespawnGenerations(t *testing.T) {
	w := New()

	a := w.Spawn()
	b := w.Spawn()
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, w.EntityCount())

	require.NoError(t, w.Despawn(a))
	assert.False(t, w.Contains(a))

	// The freed slot comes back with a bumped generation, so the old
	// identifier must stay dead.
	c := w.Spawn()
	assert.Equal(t, a.Index(), c.Index())
	assert.Equal(t, a.Generation()+1, c.Generation())
	assert.False(t, w.Contains(a))
	assert.True(t, w.Contains(c))
}

func TestDespawnUnknownEntity(t *testing.T) {
	w := New()
	err := w.Despawn(NewEntityID(7, 0))
	assert.ErrorIs(t, err, ErrEntityNotFound)
}

func TestComponentOrder(t *testing.T) {
	w := New()
	id := w.Spawn()

	require.NoError(t, w.Insert(id, "pos", 1))
	require.NoError(t, w.Insert(id, "vel", 2))
	require.NoError(t, w.Insert(id, "pos", 3)) // overwrite keeps order

	assert.Equal(t, []string{"pos", "vel"}, w.Components(id))

	v, ok := w.Component(id, "pos")
	require.True(t, ok)
	assert.Equal(t, 3, v)

	require.NoError(t, w.Remove(id, "pos"))
	assert.Equal(t, []string{"vel"}, w.Components(id))
	assert.ErrorIs(t, w.Remove(id, "pos"), ErrComponentNotFound)
}

func TestEnsureAlive(t *testing.T) {
	w := New()
	id := NewEntityID(5, 3)

	assert.True(t, w.EnsureAlive(id))
	assert.False(t, w.EnsureAlive(id))
	assert.True(t, w.Contains(id))

	// Later spawns must not collide with the claimed slot.
	next := w.Spawn()
	assert.NotEqual(t, id.Index(), next.Index())
}

func TestResources(t *testing.T) {
	w := New()
	w.SetResource("score", 10)
	w.SetResource("config", "fast")
	w.SetResource("score", 20)

	assert.Equal(t, []string{"score", "config"}, w.Resources())

	v, ok := w.Resource("score")
	require.True(t, ok)
	assert.Equal(t, 20, v)

	w.RemoveResource("score")
	_, ok = w.Resource("score")
	assert.False(t, ok)
	assert.Equal(t, []string{"config"}, w.Resources())
}

func TestEntitiesSpawnOrder(t *testing.T) {
	w := New()
	a := w.Spawn()
	b := w.Spawn()
	c := w.Spawn()
	require.NoError(t, w.Despawn(b))
	assert.Equal(t, []EntityID{a, c}, w.Entities())
}
