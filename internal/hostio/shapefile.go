package hostio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonas-p/go-shp"

	"github.com/couchcryptid/arcgeocode/internal/config"
	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// ReadShapefile reads the attribute table of a shapefile and, for point
// shapefiles, each record's coordinates. A sibling .prj file supplies the
// spatial reference as WKT. Blank attribute values are nulls.
func ReadShapefile(path string, fm *config.FieldMap) (Input, error) {
	r, err := shp.Open(path)
	if err != nil {
		return Input{}, fmt.Errorf("open shapefile %s: %w", path, err)
	}
	defer r.Close()

	fields := r.Fields()
	targets := make([]int, len(fields))
	sources := make(map[domain.Field]string)
	for i, f := range fields {
		targets[i] = -1
		name := f.String()
		field, ok := fm.Lookup(name)
		if !ok {
			continue
		}
		if prev, dup := sources[field]; dup {
			return Input{}, fmt.Errorf("shapefile fields %q and %q both map to %s", prev, name, field)
		}
		sources[field] = name
		targets[i] = int(field)
	}

	var in Input
	var locations [][]float64
	hasPoints := false
	for r.Next() {
		idx, shape := r.Shape()
		pair := pointCoordinates(shape)
		if pair != nil {
			hasPoints = true
		}
		locations = append(locations, pair)

		for i, target := range targets {
			if target < 0 {
				continue
			}
			field := domain.Field(target)
			var v *string
			if s := strings.Trim(r.ReadAttribute(idx, i), dbfPadding); s != "" {
				v = &s
			}
			in.Columns.Set(field, append(in.Columns.Values[field], v))
		}
		in.N++
	}
	if err := r.Err(); err != nil {
		return Input{}, fmt.Errorf("read shapefile %s: %w", path, err)
	}
	if hasPoints {
		in.Columns.Locations = locations
	}

	sr, err := readPrj(path)
	if err != nil {
		return Input{}, err
	}
	in.SpatialReference = sr
	return in, nil
}

// dbfPadding covers the space and NUL padding of fixed-width dbf values.
const dbfPadding = " \t\r\n\x00"

func pointCoordinates(shape shp.Shape) []float64 {
	switch p := shape.(type) {
	case *shp.Point:
		return []float64{p.X, p.Y}
	case *shp.PointZ:
		return []float64{p.X, p.Y}
	case *shp.PointM:
		return []float64{p.X, p.Y}
	}
	return nil
}

// readPrj returns nil when the shapefile has no .prj.
func readPrj(shpPath string) (*domain.SpatialReference, error) {
	prj := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prj)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", prj, err)
	}
	sr, err := domain.ResolveSpatialReference(strings.TrimSpace(string(data)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", prj, err)
	}
	return &sr, nil
}
