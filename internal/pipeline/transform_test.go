package pipeline_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/arcgeocode/internal/adapter/arcgis"
	"github.com/couchcryptid/arcgeocode/internal/dispatch"
	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/observability"
	"github.com/couchcryptid/arcgeocode/internal/pipeline"
)

type mockDispatcher struct {
	records  []domain.AddressRecord
	outSR    *domain.SpatialReference
	points   []*domain.Point
	opts     domain.ReverseOptions
	forward  domain.BatchResponse
	err      error
	outcomes []domain.ReverseOutcome
}

func (m *mockDispatcher) Forward(_ context.Context, records []domain.AddressRecord, outSR *domain.SpatialReference) (domain.BatchResponse, error) {
	m.records = records
	m.outSR = outSR
	return m.forward, m.err
}

func (m *mockDispatcher) Reverse(_ context.Context, points []*domain.Point, opts domain.ReverseOptions) []domain.ReverseOutcome {
	m.points = points
	m.opts = opts
	return m.outcomes
}

func freezeClock(t *testing.T) time.Time {
	t.Helper()
	at := time.Date(2026, time.March, 2, 9, 30, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { domain.SetClock(nil) })
	return at
}

func transformJSON(t *testing.T, d pipeline.Dispatcher, key, value string) domain.JobResult {
	t.Helper()
	tfm := pipeline.NewTransformer(d, testLogger())
	res, err := tfm.Transform(context.Background(), domain.RawJob{Key: []byte(key), Value: []byte(value)})
	require.NoError(t, err)
	return res
}

func TestJobTransformer_Forward(t *testing.T) {
	at := freezeClock(t)
	d := &mockDispatcher{forward: domain.BatchResponse{
		SpatialReference: domain.WKID(4326),
		Locations: []domain.GeocodeCandidate{
			{Location: domain.Point{X: 1, Y: 2}, Score: 95, Attributes: domain.Attributes{"ResultID": 1.0}},
		},
		Failures: []domain.RecordFailure{{Index: 1, Err: &domain.DecodeError{Field: "location"}}},
	}}

	res := transformJSON(t, d, "", `{
		"job_id": "job-1",
		"mode": "forward",
		"spatial_reference": 4326,
		"columns": {"city": ["Springfield", null], "postal_ext": [null, "1234"]}
	}`)

	assert.Empty(t, res.Error)
	assert.Equal(t, "job-1", res.ID)
	assert.Equal(t, domain.ModeForward, res.Mode)
	assert.Equal(t, at, res.ProcessedAt)

	require.Len(t, d.records, 2)
	springfield := "Springfield"
	ext := "1234"
	want := []domain.AddressRecord{
		{ID: 1, City: &springfield},
		{ID: 2, PostalExt: &ext},
	}
	if diff := cmp.Diff(want, d.records); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
	require.NotNil(t, d.outSR)
	assert.Equal(t, 4326, *d.outSR.Wkid)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, 95.0, res.Candidates[0].Score)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Contains(t, res.Errors[0].Message, "location")
}

func TestJobTransformer_ForwardBatchFailure(t *testing.T) {
	freezeClock(t)
	d := &mockDispatcher{err: &domain.TransportError{Status: http.StatusUnauthorized, Message: "Invalid token"}}

	res := transformJSON(t, d, "key-7", `{"mode":"forward","columns":{"single_line":["380 New York St"]}}`)

	assert.Equal(t, "key-7", res.ID, "message key is the fallback id")
	assert.Contains(t, res.Error, "401")
	assert.Empty(t, res.Candidates)
}

func TestJobTransformer_ForwardCallerErrors(t *testing.T) {
	freezeClock(t)
	tests := []struct {
		name string
		job  string
		want string
	}{
		{"unknown column", `{"mode":"forward","columns":{"county":["Orange"]}}`, `"county"`},
		{"locations without sr", `{"mode":"forward","locations":[[1,2]]}`, "spatial reference"},
		{"bad sr", `{"mode":"forward","spatial_reference":"not-a-crs"}`, "spatial reference"},
		{"length mismatch", `{"mode":"forward","n":3,"columns":{"city":["a"]}}`, "city"},
		{"unknown mode", `{"mode":"sideways"}`, `"sideways"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			res := transformJSON(t, d, "k", tt.job)
			assert.Contains(t, res.Error, tt.want)
			assert.Nil(t, d.records, "no call on caller errors")
		})
	}
}

func TestJobTransformer_GeneratesID(t *testing.T) {
	freezeClock(t)
	res := transformJSON(t, &mockDispatcher{}, "", `{"mode":"forward","n":0}`)
	_, err := uuid.Parse(res.ID)
	assert.NoError(t, err)
}

func TestJobTransformer_Reverse(t *testing.T) {
	freezeClock(t)
	d := &mockDispatcher{outcomes: []domain.ReverseOutcome{
		{Result: &domain.ReverseGeocodeResult{Address: domain.Attributes{"City": "Redlands"}}},
		{Err: &domain.TransportError{Status: http.StatusBadGateway}},
		{Err: domain.ErrCallerContract},
	}}

	res := transformJSON(t, d, "", `{
		"job_id": "rev-1",
		"mode": "reverse",
		"spatial_reference": {"wkid": 4326},
		"locations": [[-117.19, 34.05], [0, 0], [1]],
		"reverse": {"lang_code": "es", "feature_type": "poi", "location_type": "helipad", "preferred_label_values": "localCity"}
	}`)

	assert.Empty(t, res.Error)
	require.Len(t, d.points, 3)
	assert.Nil(t, d.points[2])
	assert.Equal(t, 4326, *d.points[0].SpatialReference.Wkid)

	assert.Equal(t, 4326, *d.opts.OutSR.Wkid)
	assert.Equal(t, "es", *d.opts.LangCode)
	assert.Equal(t, domain.FeatureTypePOI, d.opts.FeatureType)
	assert.Equal(t, domain.LocationTypeUnspecified, d.opts.LocationType, "unknown filters mean no filter")
	assert.Equal(t, domain.PreferredLabelLocalCity, d.opts.PreferredLabelValues)

	require.Len(t, res.Reverse, 3)
	assert.Equal(t, "Redlands", res.Reverse[0].Address["City"])
	assert.Nil(t, res.Reverse[1])
	assert.Nil(t, res.Reverse[2])
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 1, res.Errors[0].Index)
	assert.Equal(t, 2, res.Errors[1].Index)
}

func TestJobTransformer_ReverseRequiresSpatialReference(t *testing.T) {
	freezeClock(t)
	d := &mockDispatcher{}
	res := transformJSON(t, d, "", `{"mode":"reverse","locations":[[1,2]]}`)
	assert.Contains(t, res.Error, "spatial_reference")
	assert.Nil(t, d.points)
}

func TestJobTransformer_UndecodableMessage(t *testing.T) {
	tfm := pipeline.NewTransformer(&mockDispatcher{}, testLogger())
	_, err := tfm.Transform(context.Background(), domain.RawJob{Value: []byte("not json")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode job")
}

func TestJobTransformer_EndToEndOverHTTP(t *testing.T) {
	freezeClock(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"spatialReference":{"wkid":4326},"locations":[
			{"address":"380 New York St, Redlands","location":{"x":-117.19,"y":34.05},"score":100,"attributes":{"ResultID":1}},
			{"address":"","location":{"x":"NaN","y":"NaN"},"score":0,"attributes":{"ResultID":2,"Status":"U"}}
		]}`)
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	client := arcgis.NewClient(srv.URL, "", 5*time.Second, metrics, testLogger())
	d := dispatch.New(client, testLogger(), metrics)

	res := transformJSON(t, d, "", `{"job_id":"e2e","mode":"forward","columns":{"address":["380 New York St","nowhere"]}}`)
	require.Empty(t, res.Error)
	require.Len(t, res.Candidates, 2)
	assert.True(t, res.Candidates[1].Location.Empty())

	data, err := json.Marshal(res)
	require.NoError(t, err, "unmatched NaN locations still serialize")
	assert.Contains(t, string(data), `"x":"NaN"`)
}
