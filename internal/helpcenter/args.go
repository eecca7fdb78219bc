package helpcenter

import (
	"encoding/json"
	"math"
	"net/url"

	"github.com/RobinCoderZhao/intercom-mcp/pkg/intercom"
	"github.com/RobinCoderZhao/intercom-mcp/pkg/mcpserver"
)

const (
	defaultPage               = 1
	defaultArticlesPerPage    = 10
	maxArticlesPerPage        = 50
	defaultCollectionsPerPage = 50
	maxCollectionsPerPage     = 150
)

// ErrEmptyUpdate is returned when an update would send no fields.
var ErrEmptyUpdate = &mcpserver.ValidationError{Message: "At least one field must be provided for update"}

// pathID returns the path-escaped "id" argument. Its presence is enforced
// by the tool schema.
func pathID(args map[string]any) string {
	return url.PathEscape(stringArg(args, "id"))
}

// stringArg returns args[key] if it is a string, "" otherwise.
func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

// objectArg returns args[key] if it is a JSON object, nil otherwise.
func objectArg(args map[string]any, key string) map[string]any {
	m, _ := args[key].(map[string]any)
	return m
}

// pageArg floors a numeric argument and clamps it to [1, limit]. Missing,
// null and NaN values take def.
func pageArg(args map[string]any, key string, def, limit int) int {
	f, ok := toFloat(args[key])
	if !ok || math.IsNaN(f) {
		f = float64(def)
	}
	f = math.Floor(f)
	if f < 1 {
		f = 1
	}
	if f > float64(limit) {
		f = float64(limit)
	}
	return int(f)
}

// idArg returns a truthy numeric argument as an integer; 0 when absent or falsy.
func idArg(args map[string]any, key string) (int64, error) {
	if !mcpserver.Truthy(args[key]) {
		return 0, nil
	}
	f, ok := toFloat(args[key])
	if !ok || f != math.Trunc(f) || math.IsInf(f, 0) {
		return 0, mcpserver.Validationf("%s must be an integer", key)
	}
	return int64(f), nil
}

// presentString reports a string argument that was supplied, keeping an
// explicit null as a nil pointer.
func presentString(args map[string]any, key string) intercom.Optional[*string] {
	v, ok := args[key]
	if !ok {
		return intercom.Optional[*string]{}
	}
	if v == nil {
		return intercom.Some[*string](nil)
	}
	s, _ := v.(string)
	return intercom.Some(&s)
}

// presentObject reports an object argument that was supplied, keeping an
// explicit null as a nil map.
func presentObject(args map[string]any, key string) intercom.Optional[map[string]any] {
	if _, ok := args[key]; !ok {
		return intercom.Optional[map[string]any]{}
	}
	return intercom.Some(objectArg(args, key))
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
