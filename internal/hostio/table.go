package hostio

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// Table is a decoded result in host shape: one attribute row per result
// with a parallel geometry sequence. A nil row or geometry is an absent
// result; Errors holds the reason at that index when one is known.
type Table struct {
	SpatialReference domain.SpatialReference
	Columns          []string
	Rows             []domain.Attributes
	Geometry         []*domain.Point
	Errors           []string
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// ForwardTable lays out forward candidates in provider order. The
// candidate's address and score are exposed as the "address" and "score"
// columns unless its attributes already carry them.
func ForwardTable(resp domain.BatchResponse) Table {
	candidates := make([]*domain.GeocodeCandidate, len(resp.Locations))
	for i := range resp.Locations {
		candidates[i] = &resp.Locations[i]
	}
	return forwardTable(resp.SpatialReference, candidates)
}

// ForwardTableByRow lays out forward candidates aligned with the n request
// rows, matched by ResultID. Rows the provider returned nothing for are
// absent.
func ForwardTableByRow(resp domain.BatchResponse, n int) Table {
	return forwardTable(resp.SpatialReference, domain.Reassociate(n, resp.Locations))
}

func forwardTable(sr domain.SpatialReference, candidates []*domain.GeocodeCandidate) Table {
	t := Table{
		SpatialReference: sr,
		Rows:             make([]domain.Attributes, len(candidates)),
		Geometry:         make([]*domain.Point, len(candidates)),
		Errors:           make([]string, len(candidates)),
	}
	for i, c := range candidates {
		if c == nil {
			t.Errors[i] = "no candidate"
			continue
		}
		row := make(domain.Attributes, len(c.Attributes)+2)
		if c.Address != nil {
			row["address"] = *c.Address
		}
		row["score"] = c.Score
		for k, v := range c.Attributes {
			row[k] = v
		}
		loc := c.Location
		t.Rows[i] = row
		t.Geometry[i] = &loc
	}
	t.Columns = unionKeys(t.Rows)
	return t
}

// ReverseTable lays out reverse outcomes in input order. Failed lookups are
// absent rows carrying the error text.
func ReverseTable(outcomes []domain.ReverseOutcome, outSR domain.SpatialReference) Table {
	t := Table{
		SpatialReference: outSR,
		Rows:             make([]domain.Attributes, len(outcomes)),
		Geometry:         make([]*domain.Point, len(outcomes)),
		Errors:           make([]string, len(outcomes)),
	}
	for i, o := range outcomes {
		if o.Err != nil {
			t.Errors[i] = o.Err.Error()
			continue
		}
		if o.Result == nil {
			continue
		}
		loc := o.Result.Location
		t.Rows[i] = o.Result.Address
		t.Geometry[i] = &loc
	}
	t.Columns = unionKeys(t.Rows)
	return t
}

func unionKeys(rows []domain.Attributes) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EncodePointsJSON renders each point as Esri point JSON. Absent points,
// and the NaN points the provider returns for unmatched records, yield an
// empty string.
func EncodePointsJSON(points []*domain.Point) ([]string, error) {
	out := make([]string, len(points))
	for i, p := range points {
		if p == nil || p.Empty() {
			continue
		}
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("encode point %d: %w", i, err)
		}
		out[i] = string(data)
	}
	return out, nil
}
