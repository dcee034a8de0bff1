package kafka

import (
	"context"
	"errors"
	"log"

	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one activity message.
type MessageHandler func(ctx context.Context, key, value []byte) error

// Consumer reads the activity topic as part of a consumer group.
type Consumer struct {
	reader *kafka.Reader
	logger *log.Logger
}

func NewConsumer(brokers []string, topic, groupID string, logger *log.Logger) *Consumer {
	if logger == nil {
		logger = log.Default()
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     brokers,
			Topic:       topic,
			GroupID:     groupID,
			MinBytes:    1,
			MaxBytes:    1 << 20,
			StartOffset: kafka.FirstOffset,
		}),
		logger: logger,
	}
}

// Consume hands every message to handler and commits it afterwards, until
// ctx is done. A failing message is logged and committed anyway: the
// notifier has no retry queue, and a poison message must not stall the
// group.
func (c *Consumer) Consume(ctx context.Context, handler MessageHandler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, kafka.ErrGroupClosed) {
				return err
			}
			c.logger.Printf("[Kafka] Fetch failed: %v", err)
			continue
		}

		if err := handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Printf("[Kafka] Message %d/%d (%s) failed: %v", msg.Partition, msg.Offset, eventType(msg), err)
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Printf("[Kafka] Commit of offset %d failed: %v", msg.Offset, err)
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func eventType(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == headerEventType {
			return string(h.Value)
		}
	}
	return "unknown"
}
