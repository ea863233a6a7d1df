// Package tesseract extracts text lines by downloading the object from S3
// and running it through a local Tesseract install via gosseract. It handles
// raster images (PNG, JPEG, TIFF); PDFs need the textract engine.
package tesseract

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/otiai10/gosseract/v2"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

// maxObjectBytes bounds what is read into memory for OCR.
const maxObjectBytes = 32 << 20

// ObjectGetter is the subset of the S3 client the extractor calls.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Recognizer turns image bytes into plain text.
type Recognizer func(image []byte, languages []string) (string, error)

// Extractor implements extraction.Extractor with Tesseract.
type Extractor struct {
	objects   ObjectGetter
	recognize Recognizer
	languages []string
}

// New builds an Extractor reading objects through objects. A nil recognize
// uses gosseract.
func New(objects ObjectGetter, languages []string, recognize Recognizer) *Extractor {
	if recognize == nil {
		recognize = recognizeWithGosseract
	}
	return &Extractor{
		objects:   objects,
		recognize: recognize,
		languages: append([]string(nil), languages...),
	}
}

// NewFromConfig builds the S3 client from a shared aws.Config.
func NewFromConfig(cfg aws.Config, languages []string) *Extractor {
	return New(s3.NewFromConfig(cfg), languages, nil)
}

func (e *Extractor) Extract(ctx context.Context, ref document.ObjectRef) ([]string, error) {
	out, err := e.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(ref.Bucket),
		Key:    aws.String(ref.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get object s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxObjectBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read object s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	if len(data) > maxObjectBytes {
		return nil, fmt.Errorf("object s3://%s/%s exceeds %d bytes", ref.Bucket, ref.Key, maxObjectBytes)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text, err := e.recognize(data, e.languages)
	if err != nil {
		return nil, fmt.Errorf("tesseract s3://%s/%s: %w", ref.Bucket, ref.Key, err)
	}
	return splitLines(text), nil
}

func recognizeWithGosseract(image []byte, languages []string) (string, error) {
	c := gosseract.NewClient()
	defer c.Close()
	if len(languages) > 0 {
		if err := c.SetLanguage(languages...); err != nil {
			return "", fmt.Errorf("set languages: %w", err)
		}
	}
	if err := c.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}
	return text, nil
}

// splitLines drops blank lines and surrounding whitespace, the way Tesseract
// separates paragraphs.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
