// Package textract extracts text lines with Amazon Textract's synchronous
// DetectDocumentText, addressing the object in place in S3.
package textract

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

// API is the subset of the Textract client the extractor calls.
type API interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Extractor implements extraction.Extractor on Textract.
type Extractor struct {
	client API
}

func New(client API) *Extractor {
	return &Extractor{client: client}
}

// NewFromConfig builds the Textract client from a shared aws.Config.
func NewFromConfig(cfg aws.Config) *Extractor {
	return New(textract.NewFromConfig(cfg))
}

// Extract returns the text of every LINE block in the order Textract
// reports them.
func (e *Extractor) Extract(ctx context.Context, ref document.ObjectRef) ([]string, error) {
	out, err := e.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("textract detect document text s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	lines := make([]string, 0, len(out.Blocks))
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine {
			continue
		}
		lines = append(lines, aws.ToString(block.Text))
	}
	return lines, nil
}
