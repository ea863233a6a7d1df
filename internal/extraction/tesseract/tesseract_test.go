package tesseract

import (
	"bytes"
	"context"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

type fakeS3 struct {
	body  []byte
	err   error
	input *s3.GetObjectInput
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(f.body))}, nil
}

func TestExtractSplitsRecognizedText(t *testing.T) {
	objects := &fakeS3{body: []byte("png-bytes")}
	var gotImage []byte
	var gotLangs []string
	ext := New(objects, []string{"eng", "deu"}, func(image []byte, languages []string) (string, error) {
		gotImage, gotLangs = image, languages
		return "  Revenue grew 10%\n\n Net income up \n", nil
	})

	lines, err := ext.Extract(context.Background(), document.ObjectRef{Bucket: "docs", Key: "scans/a.png"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if want := []string{"Revenue grew 10%", "Net income up"}; !reflect.DeepEqual(lines, want) {
		t.Errorf("lines = %q, want %q", lines, want)
	}
	if string(gotImage) != "png-bytes" {
		t.Errorf("recognizer got %q", gotImage)
	}
	if !reflect.DeepEqual(gotLangs, []string{"eng", "deu"}) {
		t.Errorf("languages = %v", gotLangs)
	}
	if aws.ToString(objects.input.Key) != "scans/a.png" {
		t.Errorf("unexpected key %q", aws.ToString(objects.input.Key))
	}
}

func TestExtractBlankImage(t *testing.T) {
	ext := New(&fakeS3{body: []byte("x")}, nil, func([]byte, []string) (string, error) { return " \n\n", nil })
	lines, err := ext.Extract(context.Background(), document.ObjectRef{Bucket: "b", Key: "k"})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("expected no lines, got %q", lines)
	}
}

func TestExtractPropagatesFailures(t *testing.T) {
	denied := errors.New("AccessDenied")
	ext := New(&fakeS3{err: denied}, nil, func([]byte, []string) (string, error) {
		t.Fatal("recognizer must not run when the download fails")
		return "", nil
	})
	if _, err := ext.Extract(context.Background(), document.ObjectRef{Bucket: "b", Key: "k"}); !errors.Is(err, denied) {
		t.Fatalf("expected download error, got %v", err)
	}

	ocrErr := errors.New("unsupported image")
	ext = New(&fakeS3{body: []byte("x")}, nil, func([]byte, []string) (string, error) { return "", ocrErr })
	if _, err := ext.Extract(context.Background(), document.ObjectRef{Bucket: "b", Key: "k"}); !errors.Is(err, ocrErr) {
		t.Fatalf("expected recognizer error, got %v", err)
	}
}
