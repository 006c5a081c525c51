package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// FieldMap maps host column names onto address fields and coordinate
// columns. Columns that are not mapped explicitly match an address field by
// its wire or snake_case name, case-insensitively.
//
//	fields:
//	  address: street_line_1
//	  postal: zip
//	x: lon
//	y: lat
type FieldMap struct {
	Fields map[string]string `yaml:"fields"`
	X      string            `yaml:"x"`
	Y      string            `yaml:"y"`

	byColumn map[string]domain.Field
}

// DefaultFieldMap matches columns by field name and reads coordinates from
// "x" and "y".
func DefaultFieldMap() *FieldMap {
	fm := &FieldMap{}
	_ = fm.init()
	return fm
}

// LoadFieldMap reads a YAML field map. An empty path yields DefaultFieldMap.
func LoadFieldMap(path string) (*FieldMap, error) {
	if path == "" {
		return DefaultFieldMap(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read field map: %w", err)
	}
	return ParseFieldMap(data)
}

// ParseFieldMap decodes a YAML field map and checks every key names a
// known address field.
func ParseFieldMap(data []byte) (*FieldMap, error) {
	var fm FieldMap
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return nil, fmt.Errorf("parse field map: %w", err)
	}
	if err := fm.init(); err != nil {
		return nil, err
	}
	return &fm, nil
}

func (fm *FieldMap) init() error {
	if fm.X == "" {
		fm.X = "x"
	}
	if fm.Y == "" {
		fm.Y = "y"
	}
	fm.byColumn = make(map[string]domain.Field, len(fm.Fields))
	for name, column := range fm.Fields {
		f, ok := domain.ParseField(name)
		if !ok {
			return fmt.Errorf("field map: unknown address field %q", name)
		}
		if column == "" {
			return fmt.Errorf("field map: empty column for field %q", name)
		}
		if prev, dup := fm.byColumn[column]; dup && prev != f {
			return fmt.Errorf("field map: column %q mapped to both %s and %s", column, prev, f)
		}
		fm.byColumn[column] = f
	}
	return nil
}

// Lookup returns the address field a host column feeds.
func (fm *FieldMap) Lookup(column string) (domain.Field, bool) {
	if f, ok := fm.byColumn[column]; ok {
		return f, true
	}
	if fm.mapped(column) {
		return 0, false
	}
	return domain.ParseField(column)
}

// mapped reports whether column's default field was remapped to another
// column, in which case the column itself must not also feed it.
func (fm *FieldMap) mapped(column string) bool {
	f, ok := domain.ParseField(column)
	if !ok {
		return false
	}
	for _, target := range fm.byColumn {
		if target == f {
			return true
		}
	}
	return false
}

// IsCoordinate reports whether column holds the x or y coordinate.
func (fm *FieldMap) IsCoordinate(column string) bool {
	return column == fm.X || column == fm.Y
}
