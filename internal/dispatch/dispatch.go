// Package dispatch runs geocoding calls for a whole batch: one call for
// forward batches, and a bounded scatter/gather of per-point calls for
// reverse lookups.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/arcgeocode/internal/domain"
	"github.com/couchcryptid/arcgeocode/internal/observability"
)

// DefaultConcurrency is the number of reverse calls in flight at once.
const DefaultConcurrency = 8

// Dispatcher issues the calls for one batch operation at a time and waits
// for all of them before returning. It never retries.
type Dispatcher struct {
	geocoder    domain.Geocoder
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	progress    func()
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency bounds the reverse calls in flight. Values below 1 are
// ignored.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithProgress registers a callback invoked once per finished reverse call.
// It is called from multiple goroutines.
func WithProgress(fn func()) Option {
	return func(d *Dispatcher) { d.progress = fn }
}

// WithClock overrides the clock used for duration metrics.
func WithClock(c clockwork.Clock) Option {
	return func(d *Dispatcher) { d.clock = c }
}

// New creates a Dispatcher over g.
func New(g domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		geocoder:    g,
		concurrency: DefaultConcurrency,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Forward sends every record in one geocodeAddresses call. An empty batch
// makes no call. Transport and envelope decode failures are fatal to the
// batch; per-candidate decode failures are logged and returned in
// BatchResponse.Failures alongside the candidates that decoded.
func (d *Dispatcher) Forward(ctx context.Context, records []domain.AddressRecord, outSR *domain.SpatialReference) (domain.BatchResponse, error) {
	if len(records) == 0 {
		resp := domain.BatchResponse{Locations: []domain.GeocodeCandidate{}}
		if outSR != nil {
			resp.SpatialReference = *outSR
		}
		return resp, nil
	}

	start := d.clock.Now()
	d.metrics.DispatchBatchSize.WithLabelValues(domain.ModeForward).Observe(float64(len(records)))
	defer func() {
		d.metrics.DispatchDuration.WithLabelValues(domain.ModeForward).Observe(d.clock.Since(start).Seconds())
	}()

	resp, err := d.geocoder.GeocodeAddresses(ctx, records, outSR)
	if err != nil {
		d.logger.Error("forward geocode batch failed", "records", len(records), "error", err)
		return domain.BatchResponse{}, fmt.Errorf("geocode %d addresses: %w", len(records), err)
	}
	for _, f := range resp.Failures {
		d.logger.Warn("dropping undecodable candidate", "index", f.Index, "error", f.Err)
	}
	d.logger.Debug("forward geocode batch complete",
		"records", len(records), "candidates", len(resp.Locations), "failures", len(resp.Failures))
	return resp, nil
}

// Reverse looks up every point concurrently and returns one outcome per
// input index, in input order. A failed call sets Err at its index and
// leaves its siblings untouched. A nil point is a caller error reported at
// its index without a call.
func (d *Dispatcher) Reverse(ctx context.Context, points []*domain.Point, opts domain.ReverseOptions) []domain.ReverseOutcome {
	out := make([]domain.ReverseOutcome, len(points))
	if len(points) == 0 {
		return out
	}

	start := d.clock.Now()
	d.metrics.DispatchBatchSize.WithLabelValues(domain.ModeReverse).Observe(float64(len(points)))

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for i, p := range points {
		if p == nil {
			out[i].Err = fmt.Errorf("%w: point %d is missing", domain.ErrCallerContract, i)
			d.done()
			continue
		}
		params := domain.ReverseParams{Location: *p, ReverseOptions: opts}
		g.Go(func() error {
			d.metrics.ReverseInFlight.Inc()
			defer d.metrics.ReverseInFlight.Dec()
			defer d.done()

			result, err := d.geocoder.ReverseGeocode(ctx, params)
			if err != nil {
				d.logger.Warn("reverse geocode failed", "index", i, "x", params.Location.X, "y", params.Location.Y, "error", err)
				out[i].Err = err
				return nil
			}
			out[i].Result = &result
			return nil
		})
	}
	// Calls report through out; the group never returns an error.
	_ = g.Wait()

	d.metrics.DispatchDuration.WithLabelValues(domain.ModeReverse).Observe(d.clock.Since(start).Seconds())
	return out
}

func (d *Dispatcher) done() {
	if d.progress != nil {
		d.progress()
	}
}

// Failed counts outcomes carrying an error.
func Failed(outcomes []domain.ReverseOutcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}
