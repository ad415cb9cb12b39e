package kafka

import (
	"context"
	"errors"
	"fmt"

	"ms-boxoffice/internal/logger"

	"github.com/segmentio/kafka-go"
)

// Handler processes one message. A returned error leaves the offset
// uncommitted so the message is delivered again.
type Handler func(ctx context.Context, msg kafka.Message) error

type Consumer struct {
	reader *kafka.Reader
	logger *logger.Logger
}

func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: reader, logger: log}
}

// Start consumes until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, handle Handler) error {
	c.logger.Info("KAFKA", fmt.Sprintf("Consumer started on %s", c.reader.Config().Topic))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			c.logger.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			continue
		}

		if err := handle(ctx, msg); err != nil {
			c.logger.Warn("KAFKA", fmt.Sprintf("Handler failed for offset %d: %v", msg.Offset, err))
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("KAFKA", fmt.Sprintf("Commit failed for offset %d: %v", msg.Offset, err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
