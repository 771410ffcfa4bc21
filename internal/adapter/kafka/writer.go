package kafka

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/osm-data-etl/internal/config"
	"github.com/couchcryptid/osm-data-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes shaped documents to a Kafka topic, one message each.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured document topic.
// Messages are hashed by key so updates to one element stay on one partition.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes docs in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, docs []*domain.Document) error {
	if len(docs) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(docs))
	for i, doc := range docs {
		msg, err := serializeToMessage(doc)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish documents: %w", err)
	}
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// messageKey identifies an element across runs, e.g. "way/209809850".
func messageKey(doc *domain.Document) []byte {
	return []byte(doc.Type + "/" + doc.ID())
}

// serializeToMessage marshals a document into a Kafka message.
func serializeToMessage(doc *domain.Document) (kafkago.Message, error) {
	data, err := domain.MarshalDocument(doc, "")
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s %s: %w", doc.Type, doc.ID(), err)
	}
	return kafkago.Message{
		Key:   messageKey(doc),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "osm_type", Value: []byte(doc.Type)},
		},
	}, nil
}
