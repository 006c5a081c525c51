package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// Dispatcher runs the provider calls for one job.
type Dispatcher interface {
	Forward(ctx context.Context, records []domain.AddressRecord, outSR *domain.SpatialReference) (domain.BatchResponse, error)
	Reverse(ctx context.Context, points []*domain.Point, opts domain.ReverseOptions) []domain.ReverseOutcome
}

// JobTransformer implements Transformer by building, dispatching and
// decoding one geocode job.
type JobTransformer struct {
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewTransformer creates a JobTransformer.
func NewTransformer(dispatcher Dispatcher, logger *slog.Logger) *JobTransformer {
	return &JobTransformer{
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// Transform returns an error only when the message is not a job at all.
// Every decodable job yields a result; batch-level failures are reported in
// JobResult.Error so the requester hears back.
func (t *JobTransformer) Transform(ctx context.Context, raw domain.RawJob) (domain.JobResult, error) {
	var job domain.Job
	if err := json.Unmarshal(raw.Value, &job); err != nil {
		return domain.JobResult{}, fmt.Errorf("decode job: %w", err)
	}
	if job.ID == "" {
		job.ID = string(raw.Key)
	}
	if job.ID == "" {
		job.ID = uuid.NewString()
	}

	result := domain.JobResult{ID: job.ID, Mode: job.Mode}
	var err error
	switch job.Mode {
	case domain.ModeForward:
		err = t.forward(ctx, job, &result)
	case domain.ModeReverse:
		err = t.reverse(ctx, job, &result)
	default:
		err = fmt.Errorf("%w: unknown mode %q", domain.ErrCallerContract, job.Mode)
	}
	if err != nil {
		t.logger.Error("geocode job failed", "job_id", job.ID, "mode", job.Mode, "error", err)
		result.Error = err.Error()
	}
	result.ProcessedAt = domain.Now()
	return result, nil
}

func (t *JobTransformer) forward(ctx context.Context, job domain.Job, result *domain.JobResult) error {
	sr, err := jobSpatialReference(job)
	if err != nil {
		return err
	}
	cols, err := jobColumns(job)
	if err != nil {
		return err
	}
	records, err := domain.Build(jobRows(job), sr, cols)
	if err != nil {
		return err
	}

	resp, err := t.dispatcher.Forward(ctx, records, sr)
	if err != nil {
		return err
	}
	result.SpatialReference = &resp.SpatialReference
	result.Candidates = resp.Locations
	for _, f := range resp.Failures {
		result.Errors = append(result.Errors, domain.JobError{Index: f.Index, Message: f.Err.Error()})
	}
	return nil
}

func (t *JobTransformer) reverse(ctx context.Context, job domain.Job, result *domain.JobResult) error {
	sr, err := jobSpatialReference(job)
	if err != nil {
		return err
	}
	if sr == nil {
		return fmt.Errorf("%w: reverse job requires spatial_reference", domain.ErrCallerContract)
	}

	opts := domain.ReverseOptions{OutSR: *sr}
	if r := job.Reverse; r != nil {
		opts.LangCode = r.LangCode
		opts.ForStorage = r.ForStorage
		opts.FeatureType = domain.ParseFeatureType(r.FeatureType)
		opts.LocationType = domain.ParseLocationType(r.LocationType)
		opts.PreferredLabelValues = domain.ParsePreferredLabelValues(r.PreferredLabelValues)
	}

	outcomes := t.dispatcher.Reverse(ctx, domain.PointsFromCoordinates(job.Locations, *sr), opts)
	result.SpatialReference = sr
	result.Reverse = make([]*domain.ReverseGeocodeResult, len(outcomes))
	for i, o := range outcomes {
		if o.Err != nil {
			result.Errors = append(result.Errors, domain.JobError{Index: i, Message: o.Err.Error()})
			continue
		}
		result.Reverse[i] = o.Result
	}
	return nil
}

func jobSpatialReference(job domain.Job) (*domain.SpatialReference, error) {
	if len(job.SpatialReference) == 0 || string(job.SpatialReference) == "null" {
		return nil, nil
	}
	sr, err := domain.ResolveSpatialReference(job.SpatialReference)
	if err != nil {
		return nil, err
	}
	return &sr, nil
}

func jobColumns(job domain.Job) (domain.Columns, error) {
	cols := domain.Columns{Locations: job.Locations}
	var errs []error
	for name, values := range job.Columns {
		f, ok := domain.ParseField(name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: unknown column %q", domain.ErrCallerContract, name))
			continue
		}
		cols.Set(f, values)
	}
	return cols, errors.Join(errs...)
}

// jobRows returns N, or when N is unset the length of the longest column.
// Build rejects columns that disagree.
func jobRows(job domain.Job) int {
	if job.N > 0 {
		return job.N
	}
	n := len(job.Locations)
	for _, values := range job.Columns {
		n = max(n, len(values))
	}
	return n
}
