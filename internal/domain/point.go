package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Point is an Esri point geometry. Z and M are optional; SpatialReference
// is required whenever the point is sent to or received from the provider.
type Point struct {
	X                float64           `json:"x"`
	Y                float64           `json:"y"`
	Z                *float64          `json:"z,omitempty"`
	M                *float64          `json:"m,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

// NewPoint returns a 2D point tagged with sr.
func NewPoint(x, y float64, sr SpatialReference) Point {
	return Point{X: x, Y: y, SpatialReference: &sr}
}

// Empty reports whether the point has no usable position. The provider
// returns NaN coordinates for records it could not match.
func (p Point) Empty() bool {
	return math.IsNaN(p.X) || math.IsNaN(p.Y)
}

// MarshalJSON writes NaN coordinates as the string "NaN", the way the
// provider does, since JSON numbers cannot carry them.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal(wirePoint{
		X:                nanSafe(p.X),
		Y:                nanSafe(p.Y),
		Z:                optionalNaNSafe(p.Z),
		M:                optionalNaNSafe(p.M),
		SpatialReference: p.SpatialReference,
	})
}

// UnmarshalJSON accepts numbers or numeric strings, including "NaN", for
// each coordinate.
func (p *Point) UnmarshalJSON(data []byte) error {
	var w struct {
		X                *Coordinate       `json:"x"`
		Y                *Coordinate       `json:"y"`
		Z                *Coordinate       `json:"z"`
		M                *Coordinate       `json:"m"`
		SpatialReference *SpatialReference `json:"spatialReference"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*p = Point{SpatialReference: w.SpatialReference}
	if w.X != nil {
		p.X = float64(*w.X)
	}
	if w.Y != nil {
		p.Y = float64(*w.Y)
	}
	p.Z = w.Z.Float()
	p.M = w.M.Float()
	return nil
}

type wirePoint struct {
	X                any               `json:"x"`
	Y                any               `json:"y"`
	Z                any               `json:"z,omitempty"`
	M                any               `json:"m,omitempty"`
	SpatialReference *SpatialReference `json:"spatialReference,omitempty"`
}

func nanSafe(f float64) any {
	if math.IsNaN(f) {
		return "NaN"
	}
	return f
}

func optionalNaNSafe(f *float64) any {
	if f == nil {
		return nil
	}
	return nanSafe(*f)
}

// Coordinate is one ordinate on the wire. It accepts JSON numbers and
// numeric strings, including the "NaN" some GeocodeServer versions emit for
// unmatched records. Infinities are rejected: they cannot be written back
// out as JSON.
type Coordinate float64

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("coordinate %s: %w", data, err)
	}
	if math.IsInf(v, 0) {
		return fmt.Errorf("coordinate %s is not finite", data)
	}
	*c = Coordinate(v)
	return nil
}

// Float returns the value as a *float64, nil when c is nil.
func (c *Coordinate) Float() *float64 {
	if c == nil {
		return nil
	}
	f := float64(*c)
	return &f
}

// PointsFromCoordinates converts raw coordinate pairs into points sharing
// one spatial reference. A pair with fewer than two values yields nil at
// that index instead of an error.
func PointsFromCoordinates(coords [][]float64, sr SpatialReference) []*Point {
	shared := sr
	points := make([]*Point, len(coords))
	for i, c := range coords {
		if len(c) < 2 {
			continue
		}
		points[i] = &Point{X: c[0], Y: c[1], SpatialReference: &shared}
	}
	return points
}
