package adventure

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeResponse validates raw backend output against schema and decodes it
// into out. The output must be a JSON object holding exactly the schema
// properties, each with the declared JSON type. A surrounding Markdown code
// fence or leading chatter before the object is tolerated; anything else is
// rejected.
func DecodeResponse(raw string, schema *Schema, out any) error {
	body, err := extractObject(raw)
	if err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return fmt.Errorf("response is not a JSON object: %w", err)
	}
	if fields == nil {
		return errors.New("response is not a JSON object")
	}

	for name := range fields {
		if _, ok := schema.Property(name); !ok {
			return fmt.Errorf("unexpected field %q", name)
		}
	}

	for _, p := range schema.Properties {
		value, ok := fields[p.Name]
		if !ok {
			return fmt.Errorf("missing field %q", p.Name)
		}
		if err := checkType(p, value); err != nil {
			return err
		}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// extractObject strips a code fence and trims anything outside the
// outermost braces.
func extractObject(raw string) ([]byte, error) {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		}
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, errors.New("response does not contain a JSON object")
	}
	return []byte(text[start : end+1]), nil
}

func checkType(p Property, value json.RawMessage) error {
	v := bytes.TrimSpace(value)
	if len(v) == 0 {
		return fmt.Errorf("field %q is empty", p.Name)
	}

	var got string
	switch c := v[0]; {
	case c == '"':
		got = TypeString
	case c == 't' || c == 'f':
		got = TypeBoolean
	case c == 'n':
		return fmt.Errorf("field %q is null", p.Name)
	case c == '{':
		got = "object"
	case c == '[':
		got = "array"
	default:
		got = TypeNumber
	}

	if got != p.Type {
		return fmt.Errorf("field %q: expected %s, got %s", p.Name, p.Type, got)
	}
	return nil
}
