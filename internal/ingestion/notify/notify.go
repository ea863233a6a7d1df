// Package notify publishes index-complete events so search caches can drop
// entries that a new or replaced document may change.
package notify

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/kafka"
)

// Publisher is the subset of kafka.Producer the notifier uses.
type Publisher interface {
	Publish(ctx context.Context, event kafka.Event) error
}

type KafkaNotifier struct {
	producer Publisher
}

func NewKafka(producer Publisher) *KafkaNotifier {
	return &KafkaNotifier{producer: producer}
}

// IndexComplete publishes e keyed by document id, so events for one document
// stay ordered within a partition.
func (n *KafkaNotifier) IndexComplete(ctx context.Context, e document.IndexCompleteEvent) error {
	return n.producer.Publish(ctx, kafka.Event{Key: e.DocumentID, Value: e})
}
