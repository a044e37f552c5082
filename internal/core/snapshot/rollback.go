package snapshot

import (
	"go.uber.org/zap"

	"github.com/questline/rewind/internal/core/observability/log"
	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/world"
)

// Rollbacks is the ordered checkpoint history of one world, with a movable
// cursor. Cursor 0 means no checkpoint is active; cursor N means the Nth
// checkpoint (1-based) was applied last. The ledger lives as long as its
// world and must not be mutated from two logical threads of control at once.
type Rollbacks struct {
	reg         *registry.Registry
	checkpoints []*Checkpoint
	cursor      int
	capacity    int
	logger      *log.Logger
}

// NewRollbacks creates an empty ledger. capacity bounds the number of
// retained checkpoints; zero or negative means unbounded.
func NewRollbacks(reg *registry.Registry, capacity int) *Rollbacks {
	return &Rollbacks{reg: reg, capacity: capacity, logger: log.Nop()}
}

// Logger attaches a logger for checkpoint/rollback tracing.
func (r *Rollbacks) Logger(l *log.Logger) *Rollbacks {
	r.logger = l
	return r
}

// Len returns the number of stored checkpoints.
func (r *Rollbacks) Len() int {
	return len(r.checkpoints)
}

// Cursor returns the active cursor position in [0, Len].
func (r *Rollbacks) Cursor() int {
	return r.cursor
}

// Active returns the checkpoint at the cursor, if any.
func (r *Rollbacks) Active() (*Checkpoint, bool) {
	if r.cursor == 0 {
		return nil, false
	}
	return r.checkpoints[r.cursor-1], true
}

// Clear drops all checkpoints and resets the cursor.
func (r *Rollbacks) Clear() {
	r.checkpoints = nil
	r.cursor = 0
}

// Checkpoint captures the world's rollback-eligible state and appends it to
// the ledger. Checkpoints beyond the cursor (the rolled-back "future") are
// truncated first; the oldest entry is evicted once capacity is exceeded.
func (r *Rollbacks) Checkpoint(w *world.World) *Checkpoint {
	cp := CaptureCheckpoint(w, r.reg)

	r.checkpoints = r.checkpoints[:r.cursor]
	r.checkpoints = append(r.checkpoints, cp)
	r.cursor = len(r.checkpoints)

	if r.capacity > 0 && len(r.checkpoints) > r.capacity {
		evicted := len(r.checkpoints) - r.capacity
		r.checkpoints = append([]*Checkpoint(nil), r.checkpoints[evicted:]...)
		r.cursor -= evicted
	}

	r.logger.Debug("checkpoint taken",
		zap.Stringer("id", cp.ID),
		zap.Int("entities", len(cp.Entities)),
		zap.Int("cursor", r.cursor),
		zap.Int("len", len(r.checkpoints)))
	return cp
}

// Rollback moves the cursor by delta (negative = backward, positive =
// forward) and restores the checkpoint it lands on. The cursor saturates at
// the history boundaries rather than erroring, so continuous rewind input
// can hold past the edges; a clamped-to-no-change delta is a no-op. Landing
// on cursor 0 restores the empty baseline: all rollback-tracked state is
// cleared.
func (r *Rollbacks) Rollback(w *world.World, delta int) error {
	if w == nil {
		return ErrNilWorld
	}

	next := r.cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(r.checkpoints) {
		next = len(r.checkpoints)
	}
	if next == r.cursor {
		return nil
	}

	var target *Snapshot
	if next == 0 {
		// Empty baseline: only the despawn phase has any effect.
		target = &Snapshot{}
	} else {
		target = &r.checkpoints[next-1].Snapshot
	}

	err := NewApplier(w, r.reg, target).
		Despawn(DespawnMissing()).
		Mapping(MappingSimple).
		Filter(RollbackOnly()).
		Logger(r.logger).
		Apply()
	if err != nil {
		return err
	}

	r.cursor = next
	r.logger.Debug("rolled back", zap.Int("delta", delta), zap.Int("cursor", r.cursor))
	return nil
}
