// Package ingestion parses object-created notifications into the object
// reference the pipeline works on.
package ingestion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
)

// InvalidEventMessage is the caller-facing message for unparseable events.
const InvalidEventMessage = "Invalid S3 event format"

// envelope accepts both an S3 notification and the flat trigger form.
type envelope struct {
	Records   []events.S3EventRecord `json:"Records"`
	Bucket    string                 `json:"bucket"`
	Container string                 `json:"container"`
	Key       string                 `json:"key"`
}

// ParseEvent resolves raw to exactly one (bucket, key) pair. Keys arrive
// URL-encoded with '+' for spaces and are decoded here. Anything else is an
// ErrInvalidEvent.
func ParseEvent(raw []byte) (document.ObjectRef, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return document.ObjectRef{}, invalid(fmt.Errorf("decoding event: %w", err))
	}

	var bucket, rawKey string
	switch {
	case env.Records != nil:
		if len(env.Records) == 0 {
			return document.ObjectRef{}, invalid(errors.New("event has no records"))
		}
		s3 := env.Records[0].S3
		bucket, rawKey = s3.Bucket.Name, s3.Object.Key
	default:
		bucket, rawKey = env.Bucket, env.Key
		if bucket == "" {
			bucket = env.Container
		}
	}

	if strings.TrimSpace(bucket) == "" {
		return document.ObjectRef{}, invalid(errors.New("missing bucket name"))
	}
	if rawKey == "" {
		return document.ObjectRef{}, invalid(errors.New("missing object key"))
	}
	key, err := url.QueryUnescape(rawKey)
	if err != nil {
		return document.ObjectRef{}, invalid(fmt.Errorf("decoding object key %q: %w", rawKey, err))
	}
	if key == "" {
		return document.ObjectRef{}, invalid(errors.New("empty object key"))
	}
	return document.ObjectRef{Bucket: bucket, Key: key}, nil
}

func invalid(cause error) error {
	return apperrors.Wrap(apperrors.ErrInvalidEvent, http.StatusBadRequest, InvalidEventMessage, cause)
}
