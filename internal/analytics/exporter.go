// Package analytics streams domain events to Kafka for downstream
// consumption pipelines. Export is best effort: a broker outage must
// never fail the request that produced the event.
package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Event is a single analytics record.
type Event struct {
	Type       string         `json:"type"`
	TenantID   uuid.UUID      `json:"tenantId"`
	ActorID    uuid.UUID      `json:"actorId,omitempty"`
	OccurredAt time.Time      `json:"occurredAt"`
	Payload    map[string]any `json:"payload,omitempty"`
}

// Exporter publishes analytics events.
type Exporter interface {
	Publish(ctx context.Context, event Event)
	Close() error
}

// KafkaExporter writes events to a Kafka topic keyed by tenant so each
// tenant's events stay ordered within a partition.
type KafkaExporter struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewKafkaExporter creates an exporter for the given brokers and topic.
func NewKafkaExporter(brokers []string, topic string, logger *slog.Logger) *KafkaExporter {
	return &KafkaExporter{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
		logger: logger,
	}
}

// Publish serializes and queues the event. Failures are logged, not
// returned; the async writer surfaces broker errors on Close.
func (e *KafkaExporter) Publish(ctx context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	value, err := json.Marshal(event)
	if err != nil {
		e.logger.Warn("failed to serialize analytics event", "type", event.Type, "error", err)
		return
	}

	err = e.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.TenantID.String()),
		Value: value,
	})
	if err != nil {
		e.logger.Warn("failed to publish analytics event", "type", event.Type, "error", err)
	}
}

// Close flushes buffered messages and releases the writer.
func (e *KafkaExporter) Close() error {
	return e.writer.Close()
}

// NopExporter discards all events. Used when Kafka is not configured.
type NopExporter struct{}

func (NopExporter) Publish(context.Context, Event) {}
func (NopExporter) Close() error                   { return nil }
