package domain

import "context"

// Geocoder performs single provider calls. Implementations decode the
// provider's response; they never retry.
type Geocoder interface {
	// GeocodeAddresses sends all records in one batch call. outSR may be nil
	// to let the provider choose the output spatial reference.
	GeocodeAddresses(ctx context.Context, records []AddressRecord, outSR *SpatialReference) (BatchResponse, error)

	// ReverseGeocode looks up the address nearest to one point.
	ReverseGeocode(ctx context.Context, params ReverseParams) (ReverseGeocodeResult, error)
}
