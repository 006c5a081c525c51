package domain

import (
	"context"
	"encoding/json"
	"time"
)

// Job modes.
const (
	ModeForward = "forward"
	ModeReverse = "reverse"
)

// RawJob is an undecoded geocode job read from the source topic.
type RawJob struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// Job is the queue representation of one batch operation. Columns are keyed
// by field name (see ParseField); Locations holds coordinate pairs for
// forward jobs with point hints and for every reverse job.
type Job struct {
	ID               string               `json:"job_id"`
	Mode             string               `json:"mode"`
	SpatialReference json.RawMessage      `json:"spatial_reference,omitempty"`
	N                int                  `json:"n"`
	Columns          map[string][]*string `json:"columns,omitempty"`
	Locations        [][]float64          `json:"locations,omitempty"`
	Reverse          *JobReverseOptions   `json:"reverse,omitempty"`
}

// JobReverseOptions carries reverse filters as their string spellings; they
// go through the total Parse* functions, so unknown values mean no filter.
type JobReverseOptions struct {
	LangCode             *string `json:"lang_code,omitempty"`
	ForStorage           *bool   `json:"for_storage,omitempty"`
	FeatureType          string  `json:"feature_type,omitempty"`
	LocationType         string  `json:"location_type,omitempty"`
	PreferredLabelValues string  `json:"preferred_label_values,omitempty"`
}

// JobError reports a failed row. Index is the input row for reverse jobs
// and the response position for forward jobs.
type JobError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// JobResult is published for every job that could be decoded. Error is set
// when the whole batch failed; Errors lists per-row failures. Reverse has
// one entry per input coordinate, null where the call failed.
type JobResult struct {
	ID               string                  `json:"job_id"`
	Mode             string                  `json:"mode"`
	SpatialReference *SpatialReference       `json:"spatial_reference,omitempty"`
	Candidates       []GeocodeCandidate      `json:"candidates,omitempty"`
	Reverse          []*ReverseGeocodeResult `json:"reverse,omitempty"`
	Errors           []JobError              `json:"errors,omitempty"`
	Error            string                  `json:"error,omitempty"`
	ProcessedAt      time.Time               `json:"processed_at"`
}
