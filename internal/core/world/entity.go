package world

import "fmt"

// EntityID is a generation-tagged entity identifier. The low 32 bits hold the
// slot index, the high 32 bits hold the generation of that slot. A despawned
// slot is reused with a bumped generation, so stale identifiers never alias a
// newer entity.
type EntityID uint64

// NewEntityID builds an identifier from a slot index and generation.
func NewEntityID(index, generation uint32) EntityID {
	return EntityID(uint64(generation)<<32 | uint64(index))
}

// Index returns the slot index portion of the identifier.
func (id EntityID) Index() uint32 {
	return uint32(id)
}

// Generation returns the generation portion of the identifier.
func (id EntityID) Generation() uint32 {
	return uint32(id >> 32)
}

func (id EntityID) String() string {
	return fmt.Sprintf("%dv%d", id.Index(), id.Generation())
}
