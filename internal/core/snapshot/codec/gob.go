package codec

import (
	"bytes"
	"encoding/gob"

	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/snapshot"
)

// Gob is a compact binary snapshot format. Concrete component and resource
// types are registered with encoding/gob when they are added to the type
// registry, so boxed values round-trip without a document layer. Unlike the
// JSON and YAML formats, gob cannot skip a payload whose type is unknown to
// the decoding process: such bytes fail to decode as a whole.
type Gob struct {
	reg *registry.Registry
}

// NewGob creates a gob format. Types decoded from unknown names are dropped
// after decoding to match the engine's compatibility policy.
func NewGob(reg *registry.Registry) *Gob {
	return &Gob{reg: reg}
}

func (f *Gob) Name() string { return "gob" }

func (f *Gob) Encode(s *snapshot.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(s); err != nil {
		return nil, &FormatError{Format: f.Name(), Cause: err}
	}
	return buf.Bytes(), nil
}

func (f *Gob) Decode(data []byte) (*snapshot.Snapshot, error) {
	var s snapshot.Snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return nil, &FormatError{Format: f.Name(), Cause: err}
	}

	kept := s.Resources[:0]
	for _, res := range s.Resources {
		if f.reg.Contains(res.Name) {
			kept = append(kept, res)
		}
	}
	s.Resources = kept

	for i := range s.Entities {
		comps := s.Entities[i].Components[:0]
		for _, comp := range s.Entities[i].Components {
			if f.reg.Contains(comp.Name) {
				comps = append(comps, comp)
			}
		}
		s.Entities[i].Components = comps
	}
	return &s, nil
}
