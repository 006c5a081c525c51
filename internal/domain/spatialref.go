package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// SpatialReference identifies a coordinate system the way the ArcGIS REST
// API does: by well-known id, well-known text, or both. Values are carried
// verbatim and never interpreted.
type SpatialReference struct {
	Wkid          *int    `json:"wkid,omitempty"`
	LatestWkid    *int    `json:"latestWkid,omitempty"`
	VcsWkid       *int    `json:"vcsWkid,omitempty"`
	LatestVcsWkid *int    `json:"latestVcsWkid,omitempty"`
	Wkt           *string `json:"wkt,omitempty"`
}

// WKID returns a spatial reference for the given well-known id.
func WKID(id int) SpatialReference {
	return SpatialReference{Wkid: &id}
}

// WKT returns a spatial reference for the given well-known text.
func WKT(text string) SpatialReference {
	return SpatialReference{Wkt: &text}
}

// Valid reports whether the descriptor identifies anything at all.
func (sr SpatialReference) Valid() bool {
	return sr.Wkid != nil || sr.LatestWkid != nil || (sr.Wkt != nil && *sr.Wkt != "")
}

// String returns the compact JSON form, which is also the form sent as the
// outSR query parameter.
func (sr SpatialReference) String() string {
	data, err := json.Marshal(sr)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// ResolveSpatialReference converts a host-supplied descriptor into a
// SpatialReference. Accepted shapes:
//
//	SpatialReference / *SpatialReference   returned unchanged
//	int, int32, int64, integral float64     well-known id
//	"4326", "EPSG:4326"                     well-known id
//	"PROJCS[...]", "GEOGCS[...]", ...       well-known text
//	[]byte / json.RawMessage                JSON object, number or string
//	map[string]any                          decoded JSON object
//
// Anything else fails with ErrInvalidSpatialReference and a zero value.
func ResolveSpatialReference(raw any) (SpatialReference, error) {
	sr, err := resolve(raw)
	if err != nil {
		return SpatialReference{}, fmt.Errorf("%w: %v", ErrInvalidSpatialReference, err)
	}
	if !sr.Valid() {
		return SpatialReference{}, fmt.Errorf("%w: descriptor has neither wkid nor wkt", ErrInvalidSpatialReference)
	}
	return sr, nil
}

func resolve(raw any) (SpatialReference, error) {
	switch v := raw.(type) {
	case nil:
		return SpatialReference{}, fmt.Errorf("descriptor is nil")
	case SpatialReference:
		return v, nil
	case *SpatialReference:
		if v == nil {
			return SpatialReference{}, fmt.Errorf("descriptor is nil")
		}
		return *v, nil
	case int:
		return wkidFromInt(int64(v))
	case int32:
		return wkidFromInt(int64(v))
	case int64:
		return wkidFromInt(v)
	case float64:
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return SpatialReference{}, fmt.Errorf("wkid %v is not an integer", v)
		}
		return wkidFromInt(int64(v))
	case string:
		return resolveString(v)
	case json.RawMessage:
		return resolveJSON(v)
	case []byte:
		return resolveJSON(v)
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return SpatialReference{}, err
		}
		var sr SpatialReference
		if err := json.Unmarshal(data, &sr); err != nil {
			return SpatialReference{}, fmt.Errorf("unrecognized object: %w", err)
		}
		return sr, nil
	default:
		return SpatialReference{}, fmt.Errorf("unsupported descriptor type %T", raw)
	}
}

func wkidFromInt(id int64) (SpatialReference, error) {
	if id <= 0 || id > math.MaxInt32 {
		return SpatialReference{}, fmt.Errorf("wkid %d out of range", id)
	}
	return WKID(int(id)), nil
}

func resolveString(s string) (SpatialReference, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SpatialReference{}, fmt.Errorf("descriptor is empty")
	}
	if strings.HasPrefix(s, "{") {
		return resolveJSON([]byte(s))
	}
	code := s
	if len(code) > 5 && strings.EqualFold(code[:5], "EPSG:") {
		code = code[5:]
	}
	if id, err := strconv.ParseInt(code, 10, 64); err == nil {
		return wkidFromInt(id)
	}
	if strings.Contains(s, "[") && strings.HasSuffix(s, "]") {
		return WKT(s), nil
	}
	return SpatialReference{}, fmt.Errorf("unrecognized descriptor %q", s)
}

func resolveJSON(data []byte) (SpatialReference, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return SpatialReference{}, fmt.Errorf("descriptor is not JSON: %w", err)
	}
	return resolve(v)
}
