package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/rssabbir-dev/m-buy-sell-backend/pkg/logger"
)

// KafkaSink forwards events to a Kafka topic. Delivery is best effort: the
// stores are the source of truth and a failed publish is only logged.
type KafkaSink struct {
	writer *kafka.Writer
}

func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Handle is an event.Handler.
func (k *KafkaSink) Handle(ctx context.Context, e Event) {
	msg, err := encode(e)
	if err != nil {
		logger.WithCtx(ctx).Error("event: encode failed", "event", e.Name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		logger.WithCtx(ctx).Warn("event: kafka publish failed", "event", e.Name, "key", e.Key, "error", err)
	}
}

func (k *KafkaSink) Close() error {
	return k.writer.Close()
}

func encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Key:   []byte(e.Key),
		Value: value,
		Time:  e.At,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(e.Name)},
		},
	}, nil
}
