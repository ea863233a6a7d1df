package annotation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/resilience"
)

type countingAnnotator struct {
	calls int
	err   error
}

func (a *countingAnnotator) DetectLanguage(ctx context.Context, text string) (string, error) {
	a.calls++
	return "de", a.err
}

func (a *countingAnnotator) DetectEntities(ctx context.Context, text, lang string) ([]document.Entity, error) {
	a.calls++
	return []document.Entity{{Text: "Berlin", Type: "LOCATION"}}, a.err
}

func TestGuardPassesThroughResults(t *testing.T) {
	next := &countingAnnotator{}
	g := Guard(next, resilience.NewBreaker("test", resilience.BreakerConfig{}))
	lang, err := g.DetectLanguage(context.Background(), "hallo")
	if err != nil || lang != "de" {
		t.Fatalf("DetectLanguage = %q, %v", lang, err)
	}
	entities, err := g.DetectEntities(context.Background(), "Berlin", "de")
	if err != nil || len(entities) != 1 || entities[0].Text != "Berlin" {
		t.Fatalf("DetectEntities = %+v, %v", entities, err)
	}
}

func TestGuardFailsFastOnceOpen(t *testing.T) {
	next := &countingAnnotator{err: errors.New("throttled")}
	g := Guard(next, resilience.NewBreaker("test", resilience.BreakerConfig{FailureThreshold: 2, Cooldown: time.Hour}))
	ctx := context.Background()

	g.DetectLanguage(ctx, "a")
	g.DetectLanguage(ctx, "b")
	_, err := g.DetectLanguage(ctx, "c")
	if !errors.Is(err, resilience.ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	_, err = g.DetectEntities(ctx, "c", "en")
	if !errors.Is(err, resilience.ErrOpen) {
		t.Fatalf("expected ErrOpen for entities, got %v", err)
	}
	if next.calls != 2 {
		t.Errorf("expected 2 calls to reach the annotator, got %d", next.calls)
	}
}
