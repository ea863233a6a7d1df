// Package kafka provides Kafka producer and consumer clients backed by
// segmentio/kafka-go. The producer serialises events as JSON; the consumer
// hands raw message values to a MessageHandler and never commits past a
// message the handler rejected.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/config"
)

// MessageHandler is invoked for each Kafka message. Returning nil commits the
// message. Returning an error makes the Consumer rejoin the group after
// RedeliveryDelay, so fetching resumes at the last committed offset and the
// failed message is handled again before anything after it is committed.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

const defaultRedeliveryDelay = 5 * time.Second

// messageReader is the part of *kafka.Reader the consume loop uses.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads messages from a Kafka topic and dispatches them to a
// MessageHandler, one at a time.
type Consumer struct {
	open    func() messageReader
	logger  *slog.Logger
	handler MessageHandler
	delay   time.Duration
}

// NewConsumer creates a Consumer for topic in consumer group groupID.
func NewConsumer(cfg config.KafkaConfig, topic, groupID string, handler MessageHandler) *Consumer {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       topic,
		GroupID:     groupID,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.FirstOffset,
	}
	delay := cfg.RedeliveryDelay
	if delay <= 0 {
		delay = defaultRedeliveryDelay
	}
	return &Consumer{
		open:    func() messageReader { return kafka.NewReader(rc) },
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", groupID),
		handler: handler,
		delay:   delay,
	}
}

// Start enters the consume loop, fetching and processing messages until ctx
// is cancelled. Fetch errors and handler failures both pause for the
// redelivery delay before the loop goes on.
func (c *Consumer) Start(ctx context.Context) error {
	c.logger.Info("consumer started")
	r := c.open()
	defer func() {
		if r != nil {
			r.Close()
		}
	}()
	for {
		msg, err := r.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Info("consumer stopping", "reason", ctx.Err())
				return nil
			}
			c.logger.Error("failed to fetch message", "error", err, "retry_in", c.delay)
			if !c.pause(ctx) {
				return nil
			}
			continue
		}
		c.logger.Debug("message received",
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"value_size", len(msg.Value),
		)
		if err := c.handler(ctx, msg.Key, msg.Value); err != nil {
			c.logger.Error("failed to process message, rewinding to last commit",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"retry_in", c.delay,
				"error", err,
			)
			if err := r.Close(); err != nil {
				c.logger.Warn("closing reader", "error", err)
			}
			r = nil
			if !c.pause(ctx) {
				return nil
			}
			r = c.open()
			continue
		}
		if err := r.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("failed to commit message",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// pause waits out the redelivery delay. It reports false if ctx ended first.
func (c *Consumer) pause(ctx context.Context) bool {
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		c.logger.Info("consumer stopping", "reason", ctx.Err())
		return false
	case <-t.C:
		return true
	}
}

// DecodeJSON is a generic helper that unmarshals a Kafka message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var result T
	if err := json.Unmarshal(value, &result); err != nil {
		return result, fmt.Errorf("decoding kafka message: %w", err)
	}
	return result, nil
}
