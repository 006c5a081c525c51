package domain

// AddressRecord is one row of a forward batch request. ID is assigned by
// Build; every other field is optional and omitted from the JSON when unset.
type AddressRecord struct {
	ID           int     `json:"objectid"`
	SingleLine   *string `json:"singleLine,omitempty"`
	Address      *string `json:"address,omitempty"`
	Address2     *string `json:"address2,omitempty"`
	Address3     *string `json:"address3,omitempty"`
	Neighborhood *string `json:"neighborhood,omitempty"`
	City         *string `json:"city,omitempty"`
	Subregion    *string `json:"subregion,omitempty"`
	Region       *string `json:"region,omitempty"`
	Postal       *string `json:"postal,omitempty"`
	PostalExt    *string `json:"postalExt,omitempty"`
	CountryCode  *string `json:"countryCode,omitempty"`
	Location     *Point  `json:"location,omitempty"`
}

// GeocodeCandidate is one match returned by a forward batch call.
type GeocodeCandidate struct {
	Address    *string    `json:"address,omitempty"`
	Location   Point      `json:"location"`
	Score      float64    `json:"score"` // 0 to 100, higher is better
	Attributes Attributes `json:"attributes"`
}

// ReverseGeocodeResult is the decoded answer for one reverse call.
type ReverseGeocodeResult struct {
	Address  Attributes `json:"address"`
	Location Point      `json:"location"`
}

// RecordFailure reports a location entry of a batch response that could not
// be decoded. Index is its position in the response's locations array.
type RecordFailure struct {
	Index int
	Err   error
}

// BatchResponse is a decoded forward batch response. Locations holds every
// candidate that decoded cleanly, in provider order; Failures holds the rest.
type BatchResponse struct {
	SpatialReference SpatialReference   `json:"spatialReference"`
	Locations        []GeocodeCandidate `json:"locations"`
	Failures         []RecordFailure    `json:"-"`
}

// ReverseOutcome is the result of one reverse call. Exactly one of Result
// and Err is set.
type ReverseOutcome struct {
	Result *ReverseGeocodeResult
	Err    error
}

// Reassociate places candidates at the index of the request row they were
// produced for (ResultID - 1). The result has length n; rows without a
// candidate are nil. When several candidates claim the same row, the one
// with the highest score wins.
func Reassociate(n int, candidates []GeocodeCandidate) []*GeocodeCandidate {
	out := make([]*GeocodeCandidate, n)
	for i := range candidates {
		c := &candidates[i]
		id, ok := c.Attributes.ResultID()
		if !ok || id < 1 || id > n {
			continue
		}
		if prev := out[id-1]; prev == nil || c.Score > prev.Score {
			out[id-1] = c
		}
	}
	return out
}
