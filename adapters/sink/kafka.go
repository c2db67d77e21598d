package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"

	"github.com/segmentio/kafka-go"
)

// Kafka publishes alert events to a topic as JSON. Events for the same
// feature share a key, so per-feature ordering survives partitioning.
type Kafka struct {
	writer *kafka.Writer
}

// NewKafka creates the sink with a writer for the given brokers
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("%w: kafka brokers required", core.ErrConfiguration)
	}
	if topic == "" {
		return nil, fmt.Errorf("%w: kafka topic required", core.ErrConfiguration)
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Name identifies the sink in dispatch logs
func (s *Kafka) Name() string { return "kafka" }

// Notify publishes one event
func (s *Kafka) Notify(ctx context.Context, event alert.Event) error {
	msg, err := kafkaMessage(event)
	if err != nil {
		return err
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Close flushes and releases the underlying writer
func (s *Kafka) Close() error {
	return s.writer.Close()
}

func kafkaMessage(event alert.Event) (kafka.Message, error) {
	raw, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}
	key := event.Feature
	if key == "" {
		key = string(event.Kind)
	}
	return kafka.Message{Key: []byte(key), Value: raw}, nil
}
