package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/story-map-service/internal/config"
	"github.com/couchcryptid/story-map-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces projected marker sets to a Kafka topic.
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

// LoadBatch serializes and publishes marker sets to the sink topic in a
// single WriteMessages call. Sets are keyed by fingerprint, so repeated
// projections of one batch land on the same partition.
func (w *Writer) LoadBatch(ctx context.Context, sets []domain.MarkerSet) error {
	if len(sets) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(sets))
	for i := range sets {
		msg, err := serializeToMessage(sets[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write marker sets: %w", err)
	}
	w.logger.Debug("marker sets written", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a MarkerSet into a Kafka message.
func serializeToMessage(set domain.MarkerSet) (kafkago.Message, error) {
	data, err := json.Marshal(set)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize marker set: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(set.Fingerprint),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "stories_count", Value: []byte(strconv.Itoa(len(set.Stories)))},
			{Key: "projected_at", Value: []byte(set.ProjectedAt.Format(time.RFC3339))},
		},
	}, nil
}
