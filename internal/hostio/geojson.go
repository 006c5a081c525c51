package hostio

import (
	"encoding/json"
	"io"
	"math"

	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// FeatureCollection is a GeoJSON feature collection. Coordinates are in
// the table's spatial reference, which is echoed as a foreign member.
type FeatureCollection struct {
	Type             string                   `json:"type"`
	SpatialReference *domain.SpatialReference `json:"spatialReference,omitempty"`
	Features         []Feature                `json:"features"`
}

// Feature is one GeoJSON feature. Absent results keep their position with
// a null geometry.
type Feature struct {
	Type       string         `json:"type"`
	ID         int            `json:"id"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON point.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"` // [x, y] or [x, y, z]
}

// GeoJSON converts a table to a feature collection with one feature per
// row, numbered from 1.
func (t Table) GeoJSON() FeatureCollection {
	fc := FeatureCollection{
		Type:     "FeatureCollection",
		Features: make([]Feature, len(t.Rows)),
	}
	if t.SpatialReference.Valid() {
		sr := t.SpatialReference
		fc.SpatialReference = &sr
	}
	for i, row := range t.Rows {
		props := make(map[string]any, len(row)+1)
		for k, v := range row {
			props[k] = v
		}
		if i < len(t.Errors) && t.Errors[i] != "" {
			props["error"] = t.Errors[i]
		}
		f := Feature{Type: "Feature", ID: i + 1, Properties: props}
		if p := t.Geometry[i]; p != nil && !p.Empty() {
			coords := []float64{p.X, p.Y}
			if p.Z != nil && !math.IsNaN(*p.Z) {
				coords = append(coords, *p.Z)
			}
			f.Geometry = &Geometry{Type: "Point", Coordinates: coords}
		}
		fc.Features[i] = f
	}
	return fc
}

// WriteGeoJSON writes the table as an indented GeoJSON document.
func (t Table) WriteGeoJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(t.GeoJSON())
}
