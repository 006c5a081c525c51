package arcgis

import (
	"container/list"
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache of reverse
// lookups. Forward batches pass straight through.
type CachedGeocoder struct {
	inner   domain.Geocoder
	cache   *lruCache[domain.ReverseGeocodeResult]
	metrics *observability.Metrics
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:   inner,
		cache:   newLRUCache[domain.ReverseGeocodeResult](maxEntries),
		metrics: metrics,
	}
}

func (c *CachedGeocoder) GeocodeAddresses(ctx context.Context, records []domain.AddressRecord, outSR *domain.SpatialReference) (domain.BatchResponse, error) {
	return c.inner.GeocodeAddresses(ctx, records, outSR)
}

func (c *CachedGeocoder) ReverseGeocode(ctx context.Context, params domain.ReverseParams) (domain.ReverseGeocodeResult, error) {
	key := reverseKey(params)
	if result, ok := c.cache.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("reverse", "hit").Inc()
		return result, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("reverse", "miss").Inc()

	result, err := c.inner.ReverseGeocode(ctx, params)
	if err != nil {
		return result, err
	}
	// Empty answers are not cached so a later call can still find an address.
	if len(result.Address) > 0 {
		c.cache.put(key, result)
	}
	return result, nil
}

// reverseKey covers every parameter that changes the provider's answer.
func reverseKey(p domain.ReverseParams) string {
	inSR := ""
	if p.Location.SpatialReference != nil {
		inSR = p.Location.SpatialReference.String()
	}
	lang, storage := "", ""
	if p.LangCode != nil {
		lang = *p.LangCode
	}
	if p.ForStorage != nil {
		storage = fmt.Sprint(*p.ForStorage)
	}
	return fmt.Sprintf("rev:%.8f,%.8f|%s|%s|%s|%s|%s|%s|%s",
		p.Location.X, p.Location.Y, inSR, p.OutSR.String(), lang, storage,
		p.FeatureType, p.LocationType, p.PreferredLabelValues)
}

// lruCache is a thread-safe LRU cache. The front of order is the most
// recently used entry.
type lruCache[V any] struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List
	entries    map[string]*list.Element
}

type lruEntry[V any] struct {
	key   string
	value V
}

func newLRUCache[V any](maxEntries int) *lruCache[V] {
	return &lruCache[V]{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache[V]) get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruEntry[V]).value, true
}

func (c *lruCache[V]) put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruEntry[V]).key)
	}
}

func (c *lruCache[V]) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
