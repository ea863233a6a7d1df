// Package comprehend implements annotation.Annotator on Amazon Comprehend.
package comprehend

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/annotation"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

// API is the subset of the Comprehend client the annotator calls.
type API interface {
	DetectDominantLanguage(ctx context.Context, params *comprehend.DetectDominantLanguageInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectDominantLanguageOutput, error)
	DetectEntities(ctx context.Context, params *comprehend.DetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectEntitiesOutput, error)
}

type Annotator struct {
	client API
}

func New(client API) *Annotator {
	return &Annotator{client: client}
}

// NewFromConfig builds the Comprehend client from a shared aws.Config.
func NewFromConfig(cfg aws.Config) *Annotator {
	return New(comprehend.NewFromConfig(cfg))
}

// DetectLanguage returns the language code Comprehend ranks first.
func (a *Annotator) DetectLanguage(ctx context.Context, text string) (string, error) {
	out, err := a.client.DetectDominantLanguage(ctx, &comprehend.DetectDominantLanguageInput{
		Text: aws.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("comprehend detect dominant language: %w", err)
	}
	if len(out.Languages) == 0 || aws.ToString(out.Languages[0].LanguageCode) == "" {
		return "", annotation.ErrNoLanguage
	}
	return aws.ToString(out.Languages[0].LanguageCode), nil
}

// DetectEntities returns entities in the order Comprehend reports them.
func (a *Annotator) DetectEntities(ctx context.Context, text, languageCode string) ([]document.Entity, error) {
	out, err := a.client.DetectEntities(ctx, &comprehend.DetectEntitiesInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return nil, fmt.Errorf("comprehend detect entities (%s): %w", languageCode, err)
	}
	entities := make([]document.Entity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, document.Entity{
			Text: aws.ToString(e.Text),
			Type: string(e.Type),
		})
	}
	return entities, nil
}
