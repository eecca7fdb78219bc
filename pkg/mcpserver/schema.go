package mcpserver

import (
	"encoding/json"
	"maps"
	"math"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Schema is the subset of JSON Schema used to describe tool arguments.
// The same value is advertised by tools/list and enforced by CallTool.
type Schema struct {
	Type                 string             `json:"type,omitempty"`
	Description          string             `json:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	Enum                 []string           `json:"enum,omitempty"`
	Default              any                `json:"default,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty"`

	// RequiredMessage replaces the generated message when any required
	// property is missing.
	RequiredMessage string `json:"-"`
}

// Validate checks args against the schema.
//
// A required property must be present and truthy. A non-null property must
// match its declared type, and a truthy value of a property declaring an
// enum must be one of its members. Falsy values are left to the tool.
// Nested objects are checked against their Properties or
// AdditionalProperties, and errors name the full path ("a.b.c").
func (s *Schema) Validate(args map[string]any) error {
	return s.validate("", args)
}

func (s *Schema) validate(prefix string, args map[string]any) error {
	var missing []string
	for _, name := range s.Required {
		if !Truthy(args[name]) {
			missing = append(missing, prefix+name)
		}
	}
	switch {
	case len(missing) == 0:
	case s.RequiredMessage != "":
		return &ValidationError{Message: s.RequiredMessage}
	case len(missing) == 1:
		return Validationf("%s is required", missing[0])
	default:
		return Validationf("%s are required fields", joinFields(missing))
	}

	for _, name := range sortedKeys(s.Properties) {
		if err := s.Properties[name].validateValue(prefix+name, args[name]); err != nil {
			return err
		}
	}
	if s.AdditionalProperties != nil {
		for _, name := range sortedKeys(args) {
			if _, declared := s.Properties[name]; declared {
				continue
			}
			if err := s.AdditionalProperties.validateValue(prefix+name, args[name]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Schema) validateValue(path string, v any) error {
	if v == nil {
		return nil
	}
	if !matchesType(s.Type, v) {
		return Validationf("%s must be of type %s", path, s.Type)
	}
	if len(s.Enum) > 0 && Truthy(v) {
		if str, _ := v.(string); !slices.Contains(s.Enum, str) {
			return Validationf("%s must be one of: %s", path, strings.Join(s.Enum, ", "))
		}
	}
	if obj, ok := v.(map[string]any); ok && (len(s.Properties) > 0 || s.AdditionalProperties != nil || len(s.Required) > 0) {
		return s.validate(path+".", obj)
	}
	return nil
}

// Coerce returns a copy of args in which integral numbers given for string
// properties become decimal strings and numeric strings given for number
// properties become numbers. Nested objects are copied, never modified.
func (s *Schema) Coerce(args map[string]any) map[string]any {
	if args == nil {
		return nil
	}
	out := maps.Clone(args)
	for name, v := range args {
		prop := s.Properties[name]
		if prop == nil {
			prop = s.AdditionalProperties
		}
		if prop != nil {
			out[name] = prop.coerceValue(v)
		}
	}
	return out
}

func (s *Schema) coerceValue(v any) any {
	switch s.Type {
	case "string":
		if f, ok := v.(float64); ok && f == math.Trunc(f) && !math.IsInf(f, 0) {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
	case "number", "integer":
		if str, ok := v.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
			if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				return f
			}
		}
	case "object":
		if obj, ok := v.(map[string]any); ok {
			return s.Coerce(obj)
		}
	}
	return v
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func matchesType(typ string, v any) bool {
	switch typ {
	case "string":
		_, ok := v.(string)
		return ok
	case "number", "integer":
		switch v.(type) {
		case float64, float32, int, int64, int32, json.Number:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

// Truthy reports whether v counts as a provided value: not null, not the
// empty string, not zero or NaN, not false. Objects and arrays are truthy
// even when empty.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case float64:
		return x != 0 && !math.IsNaN(x)
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case int:
		return x != 0
	case int64:
		return x != 0
	case int32:
		return x != 0
	case json.Number:
		f, err := x.Float64()
		return err == nil && f != 0
	default:
		return true
	}
}

// joinFields renders ["a", "b", "c"] as "a, b, and c".
func joinFields(fields []string) string {
	if len(fields) == 2 {
		return fields[0] + " and " + fields[1]
	}
	return strings.Join(fields[:len(fields)-1], ", ") + ", and " + fields[len(fields)-1]
}
