// Package backend provides swappable byte storage for encoded snapshots.
// Backends know nothing about snapshot structure; they store named blobs.
package backend

import "errors"

var (
	ErrNotFound    = errors.New("save not found")
	ErrInvalidName = errors.New("invalid save name")
)

// Backend is a named-blob store. I/O failures propagate to the caller
// unchanged; the engine never recovers them internally.
type Backend interface {
	Write(name string, data []byte) error
	Read(name string) ([]byte, error)
	Delete(name string) error
	List() ([]string, error)
}
