package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/questline/rewind/internal/core/world"
)

func TestEntityMapInsertGetReverse(t *testing.T) {
	m := NewEntityMap()
	a := world.NewEntityID(1, 0)
	b := world.NewEntityID(2, 3)

	m.Insert(a, b)
	to, ok := m.Get(a)
	assert.True(t, ok)
	assert.Equal(t, b, to)

	from, ok := m.Reverse(b)
	assert.True(t, ok)
	assert.Equal(t, a, from)

	_, ok = m.Get(b)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestEntityMapReplace(t *testing.T) {
	m := NewEntityMap()
	a := world.NewEntityID(1, 0)
	b := world.NewEntityID(2, 0)
	c := world.NewEntityID(3, 0)

	m.Insert(a, b)
	m.Insert(a, c)

	to, _ := m.Get(a)
	assert.Equal(t, c, to)
	_, ok := m.Reverse(b)
	assert.False(t, ok)
	assert.Equal(t, 1, m.Len())
}

func TestEntityMapResolveOrAllocate(t *testing.T) {
	m := NewEntityMap()
	a := world.NewEntityID(1, 0)
	fresh := world.NewEntityID(9, 0)

	calls := 0
	alloc := func() world.EntityID { calls++; return fresh }

	assert.Equal(t, fresh, m.ResolveOrAllocate(a, alloc))
	assert.Equal(t, fresh, m.ResolveOrAllocate(a, alloc))
	assert.Equal(t, 1, calls)
}
