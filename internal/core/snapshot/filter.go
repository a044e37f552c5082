package snapshot

import (
	"fmt"

	exprlang "github.com/expr-lang/expr"

	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/world"
)

// Filter decides whether a registered type participates in a capture or
// restore pass. Filters are pure predicates; composing them never touches
// the world.
type Filter func(r *registry.Registration) bool

// AcceptAll includes every registered saveable type. This is the default
// policy: registration itself is what marks a type saveable.
func AcceptAll() Filter {
	return func(*registry.Registration) bool { return true }
}

// And returns a filter accepting only types both filters accept.
func (f Filter) And(g Filter) Filter {
	return func(r *registry.Registration) bool { return f(r) && g(r) }
}

// Or returns a filter accepting types either filter accepts.
func (f Filter) Or(g Filter) Filter {
	return func(r *registry.Registration) bool { return f(r) || g(r) }
}

// Not inverts the filter.
func (f Filter) Not() Filter {
	return func(r *registry.Registration) bool { return !f(r) }
}

// Allow accepts only the named types.
func Allow(names ...string) Filter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(r *registry.Registration) bool {
		_, ok := set[r.Name]
		return ok
	}
}

// Deny accepts everything except the named types.
func Deny(names ...string) Filter {
	return Allow(names...).Not()
}

// RollbackOnly accepts types that participate in checkpoints.
func RollbackOnly() Filter {
	return func(r *registry.Registration) bool { return r.Rollback }
}

type filterEnv struct {
	Name     string `expr:"name"`
	Kind     string `expr:"kind"`
	Rollback bool   `expr:"rollback"`
	Remap    bool   `expr:"remap"`
}

// ExprFilter compiles an expr-lang predicate over type descriptors. The
// expression sees `name`, `kind` ("component" or "resource"), `rollback` and
// `remap`, and must evaluate to a boolean, e.g.
//
//	ExprFilter(`kind == "component" && name startsWith "physics."`)
func ExprFilter(src string) (Filter, error) {
	program, err := exprlang.Compile(src, exprlang.Env(filterEnv{}), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter expression: %w", err)
	}
	return func(r *registry.Registration) bool {
		out, err := exprlang.Run(program, filterEnv{
			Name:     r.Name,
			Kind:     r.Kind.String(),
			Rollback: r.Rollback,
			Remap:    r.SupportsRemap(),
		})
		if err != nil {
			return false
		}
		accept, ok := out.(bool)
		return ok && accept
	}, nil
}

type predicateEnv struct {
	ID         uint64   `expr:"id"`
	Components []string `expr:"components"`
}

// ExprPredicate compiles an expr-lang predicate over live entities, usable
// with DespawnAllWith. The expression sees `id` and `components` (attached
// component names), e.g.
//
//	ExprPredicate(`"projectile" in components`)
func ExprPredicate(src string) (world.Predicate, error) {
	program, err := exprlang.Compile(src, exprlang.Env(predicateEnv{}), exprlang.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile entity expression: %w", err)
	}
	return func(w *world.World, id world.EntityID) bool {
		out, err := exprlang.Run(program, predicateEnv{
			ID:         uint64(id),
			Components: w.Components(id),
		})
		if err != nil {
			return false
		}
		match, ok := out.(bool)
		return ok && match
	}, nil
}
