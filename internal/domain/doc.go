// Package domain models the records exchanged with an ArcGIS World
// Geocoding Service (or any GeocodeServer exposing the same REST schema).
//
// # Request Side
//
// Forward batch geocoding sends one [AddressRecord] per input row inside a
// {"records":[{"attributes":{...}}]} envelope. Each record carries an
// "objectid" assigned by [Build]: row i (0-indexed) gets id i+1, so ids are
// dense, unique and stable for the life of a batch. Optional address fields
// that are unset are omitted from the JSON entirely; the provider treats a
// missing key as "not given", which differs from an explicit null.
//
// Reverse geocoding sends one request per coordinate. The request carries
// the point (with its spatial reference), an output spatial reference and a
// set of optional filters, see [ReverseOptions].
//
// # Response Side
//
// Forward responses are {"spatialReference":{...},"locations":[...]}. The
// order of locations is whatever the provider returns. Each candidate's
// attributes include "ResultID", which echoes the objectid of the source
// row; [Reassociate] uses it to restore input order.
//
// Candidate attributes are an open mapping ([Attributes]); their keys vary
// by deployment, locale and country and are never enumerated here.
//
// # Spatial References
//
// A [SpatialReference] is an opaque descriptor ({"wkid":4326} or
// {"wkt":"..."}) echoed verbatim between request and response. Nothing in
// this module projects or transforms coordinates.
//
// # Errors
//
// Failures fall into four classes, exposed as sentinels for errors.Is:
//
//	ErrInvalidSpatialReference  malformed descriptor, fatal to the batch
//	ErrTransport                network or HTTP failure
//	ErrDecode                   malformed or incomplete response JSON
//	ErrCallerContract           caller supplied inconsistent input
package domain
