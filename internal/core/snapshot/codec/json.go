package codec

import (
	"encoding/json"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/snapshot"
	"github.com/questline/rewind/internal/core/world"
)

type jsonValue struct {
	Type  string          `json:"type"`
	Value json.RawMessage `json:"value"`
}

type jsonEntity struct {
	ID         uint64      `json:"id"`
	Components []jsonValue `json:"components,omitempty"`
}

type jsonDocument struct {
	ID        string       `json:"id"`
	TakenAt   time.Time    `json:"taken_at"`
	Resources []jsonValue  `json:"resources,omitempty"`
	Entities  []jsonEntity `json:"entities,omitempty"`
}

// JSON is a human-readable snapshot format.
type JSON struct {
	reg *registry.Registry
}

// NewJSON creates a JSON format bound to the registry used for decoding.
func NewJSON(reg *registry.Registry) *JSON {
	return &JSON{reg: reg}
}

func (f *JSON) Name() string { return "json" }

func (f *JSON) Encode(s *snapshot.Snapshot) ([]byte, error) {
	doc := jsonDocument{
		ID:      s.ID.String(),
		TakenAt: s.TakenAt,
	}
	for _, res := range s.Resources {
		v, err := jsonBox(res.Name, res.Value)
		if err != nil {
			return nil, &FormatError{Format: f.Name(), Cause: err}
		}
		doc.Resources = append(doc.Resources, v)
	}
	for _, e := range s.Entities {
		entity := jsonEntity{ID: uint64(e.ID)}
		for _, comp := range e.Components {
			v, err := jsonBox(comp.Name, comp.Value)
			if err != nil {
				return nil, &FormatError{Format: f.Name(), Cause: err}
			}
			entity.Components = append(entity.Components, v)
		}
		doc.Entities = append(doc.Entities, entity)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, &FormatError{Format: f.Name(), Cause: err}
	}
	return data, nil
}

func (f *JSON) Decode(data []byte) (*snapshot.Snapshot, error) {
	var doc jsonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &FormatError{Format: f.Name(), Cause: err}
	}

	s := &snapshot.Snapshot{TakenAt: doc.TakenAt}
	if doc.ID != "" {
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, &FormatError{Format: f.Name(), Cause: err}
		}
		s.ID = id
	}

	for _, res := range doc.Resources {
		value, ok, err := f.unbox(res)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		s.Resources = append(s.Resources, snapshot.Resource{Name: res.Type, Value: value})
	}
	for _, e := range doc.Entities {
		entity := snapshot.Entity{ID: world.EntityID(e.ID)}
		for _, comp := range e.Components {
			value, ok, err := f.unbox(comp)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			entity.Components = append(entity.Components, snapshot.Component{Name: comp.Type, Value: value})
		}
		s.Entities = append(s.Entities, entity)
	}
	return s, nil
}

func jsonBox(name string, value any) (jsonValue, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return jsonValue{}, err
	}
	return jsonValue{Type: name, Value: raw}, nil
}

// unbox decodes a boxed payload into its registered concrete type. The
// second return is false for types unknown to the registry.
func (f *JSON) unbox(v jsonValue) (any, bool, error) {
	r, ok := f.reg.Lookup(v.Type)
	if !ok {
		return nil, false, nil
	}
	ptr := reflect.New(r.Type)
	if err := json.Unmarshal(v.Value, ptr.Interface()); err != nil {
		return nil, false, &FormatError{Format: f.Name(), Cause: err}
	}
	return ptr.Elem().Interface(), true, nil
}
