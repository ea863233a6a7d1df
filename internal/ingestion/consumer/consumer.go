// Package consumer drives the ingestion pipeline from object-created
// notifications delivered over Kafka.
package consumer

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/resilience"
)

// Processor runs one raw event through the pipeline.
type Processor interface {
	Process(ctx context.Context, raw []byte) (*pipeline.Result, error)
}

// EventConsumer wraps a Kafka consumer subscribed to object-created events.
type EventConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

func New(kafkaConsumer *kafka.Consumer) *EventConsumer {
	return &EventConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "event-consumer"),
	}
}

// Start blocks until ctx is cancelled.
func (ec *EventConsumer) Start(ctx context.Context) error {
	ec.logger.Info("object-created consumer starting")
	return ec.consumer.Start(ctx)
}

// HandleMessage returns a MessageHandler that processes each message value as
// a source event. Dependency failures are re-run under policy, which is this
// trigger's re-delivery; if they persist the error is returned and the
// kafka consumer rewinds to the message and hands it over again. Client-class
// failures (malformed events) are logged and committed since re-delivery
// cannot fix them.
func HandleMessage(p Processor, policy resilience.RetryPolicy) kafka.MessageHandler {
	log := slog.Default().With("component", "event-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		ctx = logger.WithRequestID(ctx, string(key))
		var res *pipeline.Result
		err := resilience.Retry(ctx, "process object-created event", policy, func(ctx context.Context) error {
			var err error
			res, err = p.Process(ctx, value)
			if err != nil && apperrors.IsClientError(err) {
				return resilience.Permanent(err)
			}
			return err
		})
		if err != nil {
			if apperrors.IsClientError(err) {
				log.Error("dropping malformed event",
					"key", string(key),
					"error", err,
				)
				return nil
			}
			return err
		}
		log.Info("event processed",
			"key", string(key),
			"doc_id", res.DocumentID,
			"status", res.Status,
		)
		return nil
	}
}
