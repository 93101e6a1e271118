// Package kafka wraps segmentio/kafka-go for the timing sample stream.
// Events are JSON encoded; consumers commit a message only once its handler
// has stored it.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/segmentio/kafka-go"
)

// ErrMalformed marks a message that can never be handled. The consumer
// commits past it instead of stopping.
var ErrMalformed = errors.New("malformed message")

type MessageHandler func(ctx context.Context, key []byte, value []byte) error

type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	logger  *slog.Logger
}

// NewConsumer joins cfg.ConsumerGroup on topic. A group without committed
// offsets starts at the oldest message.
func NewConsumer(cfg config.KafkaConfig, topic string, handler MessageHandler) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    1,
			MaxBytes:    1 << 20,
			StartOffset: kafka.FirstOffset,
		}),
		handler: handler,
		logger:  slog.Default().With("component", "sample-consumer", "topic", topic),
	}
}

// Start consumes until ctx ends or a handler fails with anything other than
// ErrMalformed. In the latter case the message stays uncommitted and is
// redelivered to the next consumer of the group.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()
	c.logger.Info("consumer started")
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err)
			continue
		}

		err = c.handler(ctx, msg.Key, msg.Value)
		switch {
		case errors.Is(err, ErrMalformed):
			c.logger.Warn("dropping malformed message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		case err != nil:
			return fmt.Errorf("handling partition %d offset %d: %w", msg.Partition, msg.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// DecodeJSON unmarshals a message value into T. Decoding failures are
// ErrMalformed.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return result, nil
}
