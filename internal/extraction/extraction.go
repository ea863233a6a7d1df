// Package extraction defines the OCR boundary: an object locator goes in, the
// detected text lines come out in reading order.
package extraction

import (
	"context"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
)

// Extractor returns the text lines detected in an object. An empty slice with
// a nil error means the object holds no detectable text.
type Extractor interface {
	Extract(ctx context.Context, ref document.ObjectRef) ([]string, error)
}

// JoinLines concatenates lines, terminating each with a newline.
func JoinLines(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}
