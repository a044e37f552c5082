package snapshot

import (
	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/world"
)

// Shared fixtures for the package tests.

type position struct {
	X, Y float64
}

type health struct {
	HP int
}

type follow struct {
	Target world.EntityID
}

type score struct {
	Points int
}

type debugOverlay struct {
	Visible bool
}

func newTestRegistry() *registry.Registry {
	reg := registry.New()
	reg.MustRegister(
		registry.Component[position]("test.position"),
		registry.Component[health]("test.health"),
		registry.Component[follow]("test.follow",
			registry.WithRemap(func(v follow, resolve func(world.EntityID) world.EntityID) follow {
				v.Target = resolve(v.Target)
				return v
			}),
		),
		registry.Resource[score]("test.score"),
		registry.Component[debugOverlay]("test.debug", registry.WithRollback(false)),
	)
	return reg
}
