package arcgis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// ArcGIS response types. Pointers distinguish a missing or null field from a
// zero value so required fields can be checked.

type batchEnvelope struct {
	SpatialReference *domain.SpatialReference `json:"spatialReference"`
	Locations        *[]json.RawMessage       `json:"locations"`
}

type candidate struct {
	Address    *string           `json:"address"`
	Location   *point            `json:"location"`
	Score      *float64          `json:"score"`
	Attributes domain.Attributes `json:"attributes"`
}

type reverseResponse struct {
	Address  domain.Attributes `json:"address"`
	Location *point            `json:"location"`
}

type point struct {
	X                *domain.Coordinate       `json:"x"`
	Y                *domain.Coordinate       `json:"y"`
	Z                *domain.Coordinate       `json:"z"`
	M                *domain.Coordinate       `json:"m"`
	SpatialReference *domain.SpatialReference `json:"spatialReference"`
}

type errorEnvelope struct {
	Error *struct {
		Code    int      `json:"code"`
		Message string   `json:"message"`
		Details []string `json:"details"`
	} `json:"error"`
}

func (p *point) toDomain(field string, payload []byte) (domain.Point, error) {
	if p.X == nil {
		return domain.Point{}, &domain.DecodeError{Field: field + ".x", Payload: payload}
	}
	if p.Y == nil {
		return domain.Point{}, &domain.DecodeError{Field: field + ".y", Payload: payload}
	}
	return domain.Point{
		X:                float64(*p.X),
		Y:                float64(*p.Y),
		Z:                p.Z.Float(),
		M:                p.M.Float(),
		SpatialReference: p.SpatialReference,
	}, nil
}

// DecodeBatch parses a geocodeAddresses response. A payload that is not JSON
// or lacks spatialReference or locations fails as a whole. Individual
// location entries that cannot be decoded are reported in Failures and do
// not affect their siblings. An empty locations array is a valid response.
func DecodeBatch(data []byte) (domain.BatchResponse, error) {
	var env batchEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.BatchResponse{}, &domain.DecodeError{Payload: data, Err: err}
	}
	if env.SpatialReference == nil {
		return domain.BatchResponse{}, &domain.DecodeError{Field: "spatialReference", Payload: data}
	}
	if env.Locations == nil {
		return domain.BatchResponse{}, &domain.DecodeError{Field: "locations", Payload: data}
	}

	resp := domain.BatchResponse{
		SpatialReference: *env.SpatialReference,
		Locations:        make([]domain.GeocodeCandidate, 0, len(*env.Locations)),
	}
	for i, raw := range *env.Locations {
		c, err := decodeCandidate(raw)
		if err != nil {
			resp.Failures = append(resp.Failures, domain.RecordFailure{Index: i, Err: err})
			continue
		}
		resp.Locations = append(resp.Locations, c)
	}
	return resp, nil
}

func decodeCandidate(raw json.RawMessage) (domain.GeocodeCandidate, error) {
	var c candidate
	if err := json.Unmarshal(raw, &c); err != nil {
		return domain.GeocodeCandidate{}, &domain.DecodeError{Payload: raw, Err: err}
	}
	if c.Location == nil {
		return domain.GeocodeCandidate{}, &domain.DecodeError{Field: "location", Payload: raw}
	}
	loc, err := c.Location.toDomain("location", raw)
	if err != nil {
		return domain.GeocodeCandidate{}, err
	}

	out := domain.GeocodeCandidate{
		Address:    c.Address,
		Location:   loc,
		Attributes: c.Attributes,
	}
	if c.Score != nil {
		out.Score = *c.Score
	}
	if out.Attributes == nil {
		out.Attributes = domain.Attributes{}
	}
	return out, nil
}

// DecodeReverse parses one reverseGeocode response. location is required;
// a missing address object decodes as empty attributes.
func DecodeReverse(data []byte) (domain.ReverseGeocodeResult, error) {
	var r reverseResponse
	if err := json.Unmarshal(data, &r); err != nil {
		return domain.ReverseGeocodeResult{}, &domain.DecodeError{Payload: data, Err: err}
	}
	if r.Location == nil {
		return domain.ReverseGeocodeResult{}, &domain.DecodeError{Field: "location", Payload: data}
	}
	loc, err := r.Location.toDomain("location", data)
	if err != nil {
		return domain.ReverseGeocodeResult{}, err
	}
	if r.Address == nil {
		r.Address = domain.Attributes{}
	}
	return domain.ReverseGeocodeResult{Address: r.Address, Location: loc}, nil
}

// DecodeReverseBatch decodes independent reverse payloads, keeping index
// alignment. A payload that fails to decode yields an outcome with Err set.
func DecodeReverseBatch(payloads [][]byte) []domain.ReverseOutcome {
	out := make([]domain.ReverseOutcome, len(payloads))
	for i, p := range payloads {
		res, err := DecodeReverse(p)
		if err != nil {
			out[i].Err = err
			continue
		}
		out[i].Result = &res
	}
	return out
}

// providerError detects the {"error":{...}} envelope ArcGIS returns with
// HTTP 200. It returns nil for anything else, including invalid JSON, which
// is left for the decoder to report.
func providerError(data []byte) error {
	if !bytes.Contains(data, []byte(`"error"`)) {
		return nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Error == nil {
		return nil
	}
	msg := env.Error.Message
	if len(env.Error.Details) > 0 {
		msg = fmt.Sprintf("%s %v", msg, env.Error.Details)
	}
	return &domain.TransportError{Status: env.Error.Code, Message: msg}
}
