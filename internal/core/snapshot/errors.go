package snapshot

import (
	"errors"
	"fmt"

	"github.com/questline/rewind/internal/core/world"
)

var (
	ErrNilWorld    = errors.New("world is nil")
	ErrNilSnapshot = errors.New("snapshot is nil")
	ErrHookAborted = errors.New("restore hook aborted")
)

// ApplyError reports a structural failure during restore. Most restore steps
// degrade gracefully (unknown types are skipped), so this surfaces only when
// a hook signals failure. Mutations applied before the failure are not rolled
// back.
type ApplyError struct {
	Entity world.EntityID
	Hook   int
	Cause  error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("apply entity %v: hook %d: %v", e.Entity, e.Hook, e.Cause)
}

func (e *ApplyError) Unwrap() error {
	return e.Cause
}

// Is matches ApplyError against ErrHookAborted so callers can classify the
// failure without inspecting the concrete type.
func (e *ApplyError) Is(target error) bool {
	return target == ErrHookAborted
}
