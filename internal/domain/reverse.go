package domain

import "strings"

// FeatureType restricts a reverse lookup to one kind of feature.
// FeatureTypeUnspecified means no filter.
type FeatureType int

const (
	FeatureTypeUnspecified FeatureType = iota
	FeatureTypeStreetInt
	FeatureTypeDistanceMarker
	FeatureTypeStreetAddress
	FeatureTypeStreetName
	FeatureTypePOI
	FeatureTypeSubaddress
	FeatureTypePointAddress
	FeatureTypePostal
	FeatureTypeLocality
)

var featureTypeNames = []string{
	FeatureTypeStreetInt:      "StreetInt",
	FeatureTypeDistanceMarker: "DistanceMarker",
	FeatureTypeStreetAddress:  "StreetAddress",
	FeatureTypeStreetName:     "StreetName",
	FeatureTypePOI:            "POI",
	FeatureTypeSubaddress:     "Subaddress",
	FeatureTypePointAddress:   "PointAddress",
	FeatureTypePostal:         "Postal",
	FeatureTypeLocality:       "Locality",
}

// ParseFeatureType maps s to a feature type. Unrecognized input, including
// the empty string, maps to FeatureTypeUnspecified.
func ParseFeatureType(s string) FeatureType {
	return FeatureType(lookupName(featureTypeNames, s))
}

// String returns the featureTypes query value, empty when unspecified.
func (f FeatureType) String() string { return nameAt(featureTypeNames, int(f)) }

// LocationType selects which coordinate of an address is returned.
type LocationType int

const (
	LocationTypeUnspecified LocationType = iota
	LocationTypeRooftop
	LocationTypeStreet
)

var locationTypeNames = []string{
	LocationTypeRooftop: "rooftop",
	LocationTypeStreet:  "street",
}

// ParseLocationType maps s to a location type; unrecognized input maps to
// LocationTypeUnspecified.
func ParseLocationType(s string) LocationType {
	return LocationType(lookupName(locationTypeNames, s))
}

func (l LocationType) String() string { return nameAt(locationTypeNames, int(l)) }

// PreferredLabelValues selects which city label the provider returns.
type PreferredLabelValues int

const (
	PreferredLabelDefault PreferredLabelValues = iota
	PreferredLabelPostalCity
	PreferredLabelLocalCity
)

var preferredLabelNames = []string{
	PreferredLabelPostalCity: "postalCity",
	PreferredLabelLocalCity:  "localCity",
}

// ParsePreferredLabelValues maps s to a label mode; unrecognized input maps
// to PreferredLabelDefault.
func ParsePreferredLabelValues(s string) PreferredLabelValues {
	return PreferredLabelValues(lookupName(preferredLabelNames, s))
}

func (p PreferredLabelValues) String() string { return nameAt(preferredLabelNames, int(p)) }

// lookupName matches case-insensitively so both "Rooftop" and "rooftop"
// resolve. Index 0 is the unspecified member.
func lookupName(names []string, s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	for i, name := range names {
		if i > 0 && strings.EqualFold(name, s) {
			return i
		}
	}
	return 0
}

func nameAt(names []string, i int) string {
	if i <= 0 || i >= len(names) {
		return ""
	}
	return names[i]
}

// ReverseOptions are the per-batch parameters shared by every reverse call.
// Nil pointers and unspecified enum members are omitted from the request.
type ReverseOptions struct {
	OutSR                SpatialReference
	LangCode             *string
	ForStorage           *bool
	FeatureType          FeatureType
	LocationType         LocationType
	PreferredLabelValues PreferredLabelValues
}

// ReverseParams is a single reverse call.
type ReverseParams struct {
	Location Point
	ReverseOptions
}
