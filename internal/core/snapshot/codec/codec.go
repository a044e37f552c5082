// Package codec provides pluggable serialization of snapshots, independent
// of any particular wire encoding. Each Format round-trips the snapshot data
// model through a portable document of type-name-tagged payloads; values
// whose types are no longer registered are skipped on decode so snapshots
// survive schema evolution.
package codec

import (
	"fmt"

	"github.com/questline/rewind/internal/core/snapshot"
)

// Format encodes and decodes snapshots.
type Format interface {
	Name() string
	Encode(s *snapshot.Snapshot) ([]byte, error)
	Decode(data []byte) (*snapshot.Snapshot, error)
}

// FormatError reports malformed or version-incompatible snapshot bytes. The
// engine never attempts partial recovery of a corrupt snapshot.
type FormatError struct {
	Format string
	Cause  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s snapshot: %v", e.Format, e.Cause)
}

func (e *FormatError) Unwrap() error {
	return e.Cause
}
