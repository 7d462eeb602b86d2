package messaging

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"samiksha/internal/shared/events"

	"github.com/segmentio/kafka-go"
)

// KafkaBus publishes and consumes envelopes through external Kafka brokers.
// Selected by bootstrap when KAFKA_BROKERS is set.
type KafkaBus struct {
	brokers []string
	writer  *kafka.Writer
	logger  *slog.Logger

	mu      sync.Mutex
	readers []*kafka.Reader
}

func NewKafkaBus(brokers []string, logger *slog.Logger) (*KafkaBus, error) {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &KafkaBus{
		brokers: brokers,
		writer:  writer,
		logger:  logger,
	}, nil
}

func (k *KafkaBus) Publish(ctx context.Context, topic string, event events.Envelope) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = k.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(event.EntityID),
		Value: payload,
	})
	if err != nil {
		if k.logger != nil {
			k.logger.Error("kafka publish failed",
				"event", "kafka_publish_failed",
				"module", "internal/platform/messaging",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
				"error", err.Error(),
			)
		}
		return err
	}
	return nil
}

func (k *KafkaBus) Subscribe(
	ctx context.Context,
	topic string,
	consumerGroup string,
	handler func(context.Context, events.Envelope) error,
) error {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  k.brokers,
		Topic:    topic,
		GroupID:  consumerGroup,
		MinBytes: 1,
		MaxBytes: 10e6,
	})

	k.mu.Lock()
	k.readers = append(k.readers, reader)
	k.mu.Unlock()

	go func() {
		for {
			msg, err := reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				if k.logger != nil {
					k.logger.Warn("kafka read failed",
						"event", "kafka_read_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"consumer_group", consumerGroup,
						"error", err.Error(),
					)
				}
				continue
			}

			var event events.Envelope
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				if k.logger != nil {
					k.logger.Error("kafka envelope decode failed",
						"event", "kafka_decode_failed",
						"module", "internal/platform/messaging",
						"layer", "platform",
						"topic", topic,
						"error", err.Error(),
					)
				}
				continue
			}
			if err := handler(ctx, event); err != nil && k.logger != nil {
				k.logger.Error("consumer handler failed",
					"event", "kafka_consume_failed",
					"module", "internal/platform/messaging",
					"layer", "platform",
					"topic", topic,
					"consumer_group", consumerGroup,
					"event_id", event.EventID,
					"event_type", event.EventType,
					"error", err.Error(),
				)
			}
		}
	}()
	return nil
}

func (k *KafkaBus) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, reader := range k.readers {
		_ = reader.Close()
	}
	return k.writer.Close()
}
