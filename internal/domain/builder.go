package domain

import (
	"fmt"
	"strings"
)

// Field names one optional string column of an AddressRecord.
type Field int

// Address fields in wire order.
const (
	FieldSingleLine Field = iota
	FieldAddress
	FieldAddress2
	FieldAddress3
	FieldNeighborhood
	FieldCity
	FieldSubregion
	FieldRegion
	FieldPostal
	FieldPostalExt
	FieldCountryCode
	numFields
)

type fieldSpec struct {
	wire  string
	snake string
	set   func(r *AddressRecord, v *string)
}

var fieldSpecs = [numFields]fieldSpec{
	FieldSingleLine:   {"singleLine", "single_line", func(r *AddressRecord, v *string) { r.SingleLine = v }},
	FieldAddress:      {"address", "address", func(r *AddressRecord, v *string) { r.Address = v }},
	FieldAddress2:     {"address2", "address2", func(r *AddressRecord, v *string) { r.Address2 = v }},
	FieldAddress3:     {"address3", "address3", func(r *AddressRecord, v *string) { r.Address3 = v }},
	FieldNeighborhood: {"neighborhood", "neighborhood", func(r *AddressRecord, v *string) { r.Neighborhood = v }},
	FieldCity:         {"city", "city", func(r *AddressRecord, v *string) { r.City = v }},
	FieldSubregion:    {"subregion", "subregion", func(r *AddressRecord, v *string) { r.Subregion = v }},
	FieldRegion:       {"region", "region", func(r *AddressRecord, v *string) { r.Region = v }},
	FieldPostal:       {"postal", "postal", func(r *AddressRecord, v *string) { r.Postal = v }},
	FieldPostalExt:    {"postalExt", "postal_ext", func(r *AddressRecord, v *string) { r.PostalExt = v }},
	FieldCountryCode:  {"countryCode", "country_code", func(r *AddressRecord, v *string) { r.CountryCode = v }},
}

// String returns the field's JSON key.
func (f Field) String() string {
	if f < 0 || f >= numFields {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldSpecs[f].wire
}

// Names returns the spellings ParseField accepts for f, JSON key first.
func (f Field) Names() []string {
	if f < 0 || f >= numFields {
		return nil
	}
	spec := fieldSpecs[f]
	if spec.snake == spec.wire {
		return []string{spec.wire}
	}
	return []string{spec.wire, spec.snake}
}

// Fields returns every address field in wire order.
func Fields() []Field {
	fs := make([]Field, numFields)
	for i := range fs {
		fs[i] = Field(i)
	}
	return fs
}

// ParseField matches a column name against the JSON key or its snake_case
// spelling, ignoring case.
func ParseField(name string) (Field, bool) {
	name = strings.TrimSpace(name)
	for i, spec := range fieldSpecs {
		if strings.EqualFold(name, spec.wire) || strings.EqualFold(name, spec.snake) {
			return Field(i), true
		}
	}
	return 0, false
}

// Column is a nullable string column; a nil element is a missing value.
type Column []*string

// Columns is the columnar input to Build. A field missing from Values is
// absent for the whole batch. Locations, when non-nil, holds one coordinate
// pair per row; a pair with fewer than two values leaves that row's
// location unset.
type Columns struct {
	Values    map[Field]Column
	Locations [][]float64
}

// Set marks a column as present.
func (c *Columns) Set(f Field, col Column) {
	if c.Values == nil {
		c.Values = make(map[Field]Column)
	}
	c.Values[f] = col
}

// StringColumn converts values into a Column, treating each entry of nulls
// as a missing-value marker.
func StringColumn(values []string, nulls ...string) Column {
	col := make(Column, len(values))
	for i := range values {
		v := values[i]
		isNull := false
		for _, n := range nulls {
			if v == n {
				isNull = true
				break
			}
		}
		if !isNull {
			col[i] = &v
		}
	}
	return col
}

// Build assembles n address records from columnar input. Row i gets id
// i+1. Every present column must have exactly n entries. When Locations is
// present sr must be non-nil and valid; every built location carries it.
// Build performs no I/O.
func Build(n int, sr *SpatialReference, cols Columns) ([]AddressRecord, error) {
	if n < 0 {
		return nil, callerContractf("negative record count %d", n)
	}
	for f, col := range cols.Values {
		if f < 0 || f >= numFields {
			return nil, callerContractf("unknown field %d", int(f))
		}
		if len(col) != n {
			return nil, callerContractf("column %s has %d values, want %d", f, len(col), n)
		}
	}

	var shared *SpatialReference
	if cols.Locations != nil {
		if len(cols.Locations) != n {
			return nil, callerContractf("location column has %d values, want %d", len(cols.Locations), n)
		}
		if sr == nil || !sr.Valid() {
			return nil, callerContractf("location column supplied without a resolved spatial reference")
		}
		copied := *sr
		shared = &copied
	}

	records := make([]AddressRecord, n)
	for i := range records {
		rec := &records[i]
		rec.ID = i + 1
		for f, col := range cols.Values {
			fieldSpecs[f].set(rec, col[i])
		}
		if shared != nil {
			if c := cols.Locations[i]; len(c) >= 2 {
				rec.Location = &Point{X: c[0], Y: c[1], SpatialReference: shared}
			}
		}
	}
	return records, nil
}
