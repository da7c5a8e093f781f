package adventure

import (
	"encoding/json"
)

// JSON types a response property may declare.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
)

// Property is a single field of a response shape.
type Property struct {
	Name        string
	Type        string
	Description string
}

// Schema declares the flat JSON object a generation backend must return.
// Every property is required and no other properties are allowed.
type Schema struct {
	Name        string
	Description string
	Properties  []Property
}

// Definition returns the JSON schema document for s.
func (s *Schema) Definition() map[string]any {
	properties := make(map[string]any, len(s.Properties))
	required := make([]string, 0, len(s.Properties))
	for _, p := range s.Properties {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		required = append(required, p.Name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// JSON returns the schema document encoded as JSON.
func (s *Schema) JSON() json.RawMessage {
	data, err := json.Marshal(s.Definition())
	if err != nil {
		// Definition only holds strings, slices and maps.
		panic(err)
	}
	return data
}

// Property looks up a property by name.
func (s *Schema) Property(name string) (Property, bool) {
	for _, p := range s.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return Property{}, false
}
