package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseFeatureType(t *testing.T) {
	assert.Equal(t, FeatureTypeStreetInt, ParseFeatureType("StreetInt"))
	assert.Equal(t, FeatureTypePOI, ParseFeatureType("POI"))
	assert.Equal(t, FeatureTypePOI, ParseFeatureType("poi"))
	assert.Equal(t, FeatureTypeLocality, ParseFeatureType("Locality"))
	assert.Equal(t, "PointAddress", ParseFeatureType("PointAddress").String())

	for _, s := range []string{"", "Airport", "street int", "Unspecified"} {
		assert.Equal(t, FeatureTypeUnspecified, ParseFeatureType(s), s)
	}
	assert.Empty(t, FeatureTypeUnspecified.String())
}

func TestParseLocationType(t *testing.T) {
	assert.Equal(t, LocationTypeRooftop, ParseLocationType("Rooftop"))
	assert.Equal(t, LocationTypeStreet, ParseLocationType("street"))
	assert.Equal(t, "rooftop", LocationTypeRooftop.String())
	assert.Equal(t, LocationTypeUnspecified, ParseLocationType("parcel"))
	assert.Empty(t, LocationTypeUnspecified.String())
}

func TestParsePreferredLabelValues(t *testing.T) {
	assert.Equal(t, PreferredLabelPostalCity, ParsePreferredLabelValues("PostalCity"))
	assert.Equal(t, PreferredLabelLocalCity, ParsePreferredLabelValues("localCity"))
	assert.Equal(t, "postalCity", PreferredLabelPostalCity.String())
	assert.Equal(t, PreferredLabelDefault, ParsePreferredLabelValues("matchedCity"))
	assert.Empty(t, PreferredLabelDefault.String())
}

func TestEnumString_OutOfRange(t *testing.T) {
	assert.Empty(t, FeatureType(99).String())
	assert.Empty(t, LocationType(-1).String())
}
