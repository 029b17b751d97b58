// Package kafka publishes shaped forecast summaries to the sink topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ensemble-forecast-service/internal/config"
	"github.com/couchcryptid/ensemble-forecast-service/internal/domain"
)

// Writer produces forecast summaries to a Kafka topic.
// It implements pipeline.Publisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishBatch serializes and publishes the summaries for one forecast date
// in a single WriteMessages call.
func (w *Writer) PublishBatch(ctx context.Context, summaries []domain.ForecastSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(summaries))
	for i := range summaries {
		msg, err := serializeToMessage(summaries[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastSummary into a Kafka message. The key
// combines the forecast date and location so re-runs of the same date
// overwrite cleanly downstream.
func serializeToMessage(summary domain.ForecastSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize forecast summary: %w", err)
	}
	key := fmt.Sprintf("%s|%.4f|%.4f", summary.ForecastDate, summary.Location.Lat, summary.Location.Lon)
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "forecast_date", Value: []byte(summary.ForecastDate)},
			{Key: "processed_at", Value: []byte(summary.ProcessedAt.Format(time.RFC3339))},
		},
	}, nil
}
