package annotation

import (
	"context"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/resilience"
)

// Guarded routes both detection calls through one circuit breaker. While
// the circuit is open calls fail fast with resilience.ErrOpen.
type Guarded struct {
	next    Annotator
	breaker *resilience.Breaker
}

func Guard(next Annotator, breaker *resilience.Breaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

func (g *Guarded) DetectLanguage(ctx context.Context, text string) (string, error) {
	var lang string
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		lang, err = g.next.DetectLanguage(ctx, text)
		return err
	})
	return lang, err
}

func (g *Guarded) DetectEntities(ctx context.Context, text, languageCode string) ([]document.Entity, error) {
	var entities []document.Entity
	err := g.breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		entities, err = g.next.DetectEntities(ctx, text, languageCode)
		return err
	})
	return entities, err
}
