package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ozonesonde-etl/internal/config"
	"github.com/couchcryptid/ozonesonde-etl/internal/domain"
)

// Writer publishes gridded profiles to a Kafka topic, one message per flight.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured profile topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the profiles in a single WriteMessages
// call. Messages are keyed by launch time, so a re-run lands on the same
// partition and compacted topics keep only the latest profile of a flight.
func (w *Writer) LoadBatch(ctx context.Context, profiles []domain.GriddedFlightProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	compiledAt := domain.Now().UTC()
	msgs := make([]kafkago.Message, len(profiles))
	for i := range profiles {
		msg, err := serializeToMessage(profiles[i], compiledAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish profiles: %w", err)
	}
	w.logger.Debug("profiles published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a gridded profile into a Kafka message.
func serializeToMessage(p domain.GriddedFlightProfile, compiledAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize profile: %w", err)
	}
	launch := p.LaunchTime.UTC().Format(time.RFC3339)
	return kafkago.Message{
		Key:   []byte(launch),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "launch_time", Value: []byte(launch)},
			{Key: "compiled_at", Value: []byte(compiledAt.Format(time.RFC3339))},
		},
	}, nil
}
