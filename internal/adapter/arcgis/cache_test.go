package arcgis

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	mu           sync.Mutex
	forwardCalls int
	reverseCalls int
	result       domain.ReverseGeocodeResult
	err          error
}

func (m *countingGeocoder) GeocodeAddresses(_ context.Context, _ []domain.AddressRecord, _ *domain.SpatialReference) (domain.BatchResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forwardCalls++
	return domain.BatchResponse{SpatialReference: domain.WKID(4326)}, nil
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _ domain.ReverseParams) (domain.ReverseGeocodeResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reverseCalls++
	return m.result, m.err
}

func redlands() domain.ReverseGeocodeResult {
	return domain.ReverseGeocodeResult{
		Address:  domain.Attributes{"Match_addr": "380 New York St, Redlands"},
		Location: domain.Point{X: -117.195, Y: 34.057},
	}
}

func reverseAt(x, y float64) domain.ReverseParams {
	return domain.ReverseParams{Location: domain.NewPoint(x, y, domain.WKID(4326))}
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_ReverseCacheHit(t *testing.T) {
	inner := &countingGeocoder{result: redlands()}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), reverseAt(-117.195, 34.057))
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), reverseAt(-117.195, 34.057))
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.reverseCalls)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("reverse", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues("reverse", "miss")))
}

func TestCachedGeocoder_OptionsArePartOfKey(t *testing.T) {
	inner := &countingGeocoder{result: redlands()}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	base := reverseAt(1, 2)
	withLang := base
	withLang.LangCode = strPtr("es")
	withOut := base
	withOut.OutSR = domain.WKID(3857)
	withType := base
	withType.FeatureType = domain.FeatureTypePOI

	for _, p := range []domain.ReverseParams{base, withLang, withOut, withType, base} {
		_, err := cached.ReverseGeocode(context.Background(), p)
		require.NoError(t, err)
	}
	assert.Equal(t, 4, inner.reverseCalls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{result: domain.ReverseGeocodeResult{Address: domain.Attributes{}}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, _ = cached.ReverseGeocode(context.Background(), reverseAt(0, 0))
	_, _ = cached.ReverseGeocode(context.Background(), reverseAt(0, 0))
	assert.Equal(t, 2, inner.reverseCalls)
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: &domain.TransportError{Status: 500}}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	_, err := cached.ReverseGeocode(context.Background(), reverseAt(0, 0))
	require.ErrorIs(t, err, domain.ErrTransport)

	inner.err = nil
	inner.result = redlands()
	_, err = cached.ReverseGeocode(context.Background(), reverseAt(0, 0))
	require.NoError(t, err)
	assert.Equal(t, 2, inner.reverseCalls)
}

func TestCachedGeocoder_ForwardPassesThrough(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, observability.NewMetricsForTesting())

	for range 3 {
		_, err := cached.GeocodeAddresses(context.Background(), []domain.AddressRecord{{ID: 1}}, nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, inner.forwardCalls)
}

func TestCachedGeocoder_Concurrent(t *testing.T) {
	inner := &countingGeocoder{result: redlands()}
	cached := NewCachedGeocoder(inner, 4, observability.NewMetricsForTesting())

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cached.ReverseGeocode(context.Background(), reverseAt(float64(i%8), 0))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, cached.cache.len(), 4)
}

// --- LRU tests ---

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache[int](2)
	c.put("a", 1)
	c.put("b", 2)
	c.put("c", 3)

	_, ok := c.get("a")
	assert.False(t, ok, "oldest entry should be evicted")
	v, ok := c.get("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_GetRefreshesRecency(t *testing.T) {
	c := newLRUCache[string](2)
	c.put("a", "A")
	c.put("b", "B")
	_, _ = c.get("a")
	c.put("c", "C")

	_, ok := c.get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.get("a")
	assert.True(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache[int](2)
	c.put("a", 1)
	c.put("a", 10)

	v, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, 10, v)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_Miss(t *testing.T) {
	c := newLRUCache[domain.ReverseGeocodeResult](1)
	v, ok := c.get("missing")
	assert.False(t, ok)
	assert.Nil(t, v.Address)
}
