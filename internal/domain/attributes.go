package domain

import (
	"encoding/json"
	"math"
	"strconv"
)

// Attributes is an open, loosely typed attribute mapping as returned by the
// provider. Values are JSON scalars: string, float64, bool or nil.
type Attributes map[string]any

// String returns the attribute as a string and whether it was a non-empty
// string value.
func (a Attributes) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok && s != ""
}

// Float returns a numeric attribute. Numeric strings are accepted since some
// deployments serialise numbers as text.
func (a Attributes) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ResultID returns the "ResultID" attribute, which echoes the objectid of
// the request record a candidate was produced for.
func (a Attributes) ResultID() (int, bool) {
	f, ok := a.Float("ResultID")
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
