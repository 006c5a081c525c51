// Package hostio converts host data into builder input and decoded results
// into host tables. Input arrives as Arrow record batches (directly, from
// CSV, or from an Arrow IPC stream) or as a point shapefile; output is an
// attribute table with a parallel geometry sequence, optionally rendered as
// GeoJSON.
package hostio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/couchcryptid/arcgeocode/internal/config"
	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// Input is host columnar input ready for domain.Build.
type Input struct {
	N       int
	Columns domain.Columns
	// SpatialReference is set when the source declares one, such as a
	// shapefile's .prj.
	SpatialReference *domain.SpatialReference
}

// Build assembles address records from the input. sr overrides the
// source's own spatial reference when non-nil.
func (in Input) Build(sr *domain.SpatialReference) ([]domain.AddressRecord, error) {
	if sr == nil {
		sr = in.SpatialReference
	}
	return domain.Build(in.N, sr, in.Columns)
}

// Points converts the coordinate column to points tagged with sr. It
// returns nil when the input has no coordinates.
func (in Input) Points(sr domain.SpatialReference) []*domain.Point {
	if in.Columns.Locations == nil {
		return nil
	}
	return domain.PointsFromCoordinates(in.Columns.Locations, sr)
}

// ColumnsFromRecords maps the columns of every record onto address fields
// and coordinates using fm. Columns fm does not recognise are ignored.
// Records must share one schema.
func ColumnsFromRecords(recs []arrow.RecordBatch, fm *config.FieldMap) (Input, error) {
	var in Input
	for _, rec := range recs {
		if err := in.appendRecord(rec, fm); err != nil {
			return Input{}, err
		}
	}
	return in, nil
}

func (in *Input) appendRecord(rec arrow.RecordBatch, fm *config.FieldMap) error {
	rows := int(rec.NumRows())
	var xs, ys arrow.Array
	sources := make(map[domain.Field]string)

	for i, f := range rec.Schema().Fields() {
		col := rec.Column(i)
		switch f.Name {
		case fm.X:
			xs = col
			continue
		case fm.Y:
			ys = col
			continue
		}
		field, ok := fm.Lookup(f.Name)
		if !ok {
			continue
		}
		if prev, dup := sources[field]; dup {
			return fmt.Errorf("columns %q and %q both map to %s", prev, f.Name, field)
		}
		sources[field] = f.Name
		in.Columns.Set(field, append(in.Columns.Values[field], stringValues(col)...))
	}

	if (xs == nil) != (ys == nil) {
		return fmt.Errorf("coordinate columns %q and %q must both be present", fm.X, fm.Y)
	}
	if xs != nil {
		for r := range rows {
			pair, err := coordinatePair(xs, ys, r)
			if err != nil {
				return fmt.Errorf("row %d: %w", in.N+r+1, err)
			}
			in.Columns.Locations = append(in.Columns.Locations, pair)
		}
	}
	in.N += rows
	return nil
}

func stringValues(col arrow.Array) domain.Column {
	out := make(domain.Column, col.Len())
	for i := range out {
		if col.IsNull(i) {
			continue
		}
		var v string
		switch a := col.(type) {
		case *array.String:
			v = a.Value(i)
		case *array.LargeString:
			v = a.Value(i)
		default:
			v = col.ValueStr(i)
		}
		out[i] = &v
	}
	return out
}

// coordinatePair returns nil for a row with a missing coordinate, which
// leaves that row's location unset.
func coordinatePair(xs, ys arrow.Array, row int) ([]float64, error) {
	if xs.IsNull(row) || ys.IsNull(row) {
		return nil, nil
	}
	x, err := floatAt(xs, row)
	if err != nil {
		return nil, err
	}
	y, err := floatAt(ys, row)
	if err != nil {
		return nil, err
	}
	return []float64{x, y}, nil
}

func floatAt(arr arrow.Array, i int) (float64, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return a.Value(i), nil
	case *array.Float32:
		return float64(a.Value(i)), nil
	case *array.Int64:
		return float64(a.Value(i)), nil
	case *array.Int32:
		return float64(a.Value(i)), nil
	}
	s := strings.TrimSpace(arr.ValueStr(i))
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("coordinate %q is not a number", s)
	}
	return f, nil
}

// Release releases every record.
func Release(recs []arrow.RecordBatch) {
	for _, rec := range recs {
		rec.Release()
	}
}
