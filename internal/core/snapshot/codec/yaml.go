package codec

import (
	"reflect"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/questline/rewind/internal/core/registry"
	"github.com/questline/rewind/internal/core/snapshot"
	"github.com/questline/rewind/internal/core/world"
)

type yamlValue struct {
	Type  string    `yaml:"type"`
	Value yaml.Node `yaml:"value"`
}

type yamlEntity struct {
	ID         uint64      `yaml:"id"`
	Components []yamlValue `yaml:"components,omitempty"`
}

type yamlDocument struct {
	ID        string       `yaml:"id"`
	TakenAt   time.Time    `yaml:"taken_at"`
	Resources []yamlValue  `yaml:"resources,omitempty"`
	Entities  []yamlEntity `yaml:"entities,omitempty"`
}

// YAML is a human-editable snapshot format, handy for authored fixtures.
type YAML struct {
	reg *registry.Registry
}

// NewYAML creates a YAML format bound to the registry used for decoding.
func NewYAML(reg *registry.Registry) *YAML {
	return &YAML{reg: reg}
}

func (f *YAML) Name() string { return "yaml" }

func (f *YAML) Encode(s *snapshot.Snapshot) ([]byte, error) {
	doc := yamlDocument{
		ID:      s.ID.String(),
		TakenAt: s.TakenAt,
	}
	for _, res := range s.Resources {
		v, err := yamlBox(res.Name, res.Value)
		if err != nil {
			return nil, &FormatError{Format: f.Name(), Cause: err}
		}
		doc.Resources = append(doc.Resources, v)
	}
	for _, e := range s.Entities {
		entity := yamlEntity{ID: uint64(e.ID)}
		for _, comp := range e.Components {
			v, err := yamlBox(comp.Name, comp.Value)
			if err != nil {
				return nil, &FormatError{Format: f.Name(), Cause: err}
			}
			entity.Components = append(entity.Components, v)
		}
		doc.Entities = append(doc.Entities, entity)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, &FormatError{Format: f.Name(), Cause: err}
	}
	return data, nil
}

func (f *YAML) Decode(data []byte) (*snapshot.Snapshot, error) {
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
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

func yamlBox(name string, value any) (yamlValue, error) {
	var node yaml.Node
	if err := node.Encode(value); err != nil {
		return yamlValue{}, err
	}
	return yamlValue{Type: name, Value: node}, nil
}

func (f *YAML) unbox(v yamlValue) (any, bool, error) {
	r, ok := f.reg.Lookup(v.Type)
	if !ok {
		return nil, false, nil
	}
	ptr := reflect.New(r.Type)
	if err := v.Value.Decode(ptr.Interface()); err != nil {
		return nil, false, &FormatError{Format: f.Name(), Cause: err}
	}
	return ptr.Elem().Interface(), true, nil
}
