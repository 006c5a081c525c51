package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/arcgeocode/internal/config"
	"github.com/couchcryptid/arcgeocode/internal/domain"
)

// Writer publishes job results to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes every result in one WriteMessages call. Results are
// keyed by job id so all results of a job land on one partition.
func (w *Writer) LoadBatch(ctx context.Context, results []domain.JobResult) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			w.logger.Error("job result not serializable, publishing failure instead",
				"job_id", results[i].ID, "error", err)
			msg, err = serializeToMessage(failedResult(results[i], err))
			if err != nil {
				return err
			}
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d job results: %w", len(msgs), err)
	}
	w.logger.Debug("published job results", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a JobResult into a Kafka message.
func serializeToMessage(result domain.JobResult) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize job result %s: %w", result.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(result.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "job_mode", Value: []byte(result.Mode)},
			{Key: "job_failed", Value: []byte(strconv.FormatBool(result.Error != ""))},
			{Key: "processed_at", Value: []byte(result.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}

// failedResult keeps a job's identity and reports err in place of its
// payload, so the requester still hears back.
func failedResult(r domain.JobResult, err error) domain.JobResult {
	return domain.JobResult{
		ID:          r.ID,
		Mode:        r.Mode,
		Error:       err.Error(),
		ProcessedAt: r.ProcessedAt,
	}
}
