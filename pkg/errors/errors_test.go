package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"app error", New(ErrInvalidInput, http.StatusBadRequest, "bad"), http.StatusBadRequest},
		{"wrapped app error", fmt.Errorf("outer: %w", Wrap(ErrDependency, http.StatusInternalServerError, "x", errors.New("boom"))), http.StatusInternalServerError},
		{"bare invalid event", fmt.Errorf("parse: %w", ErrInvalidEvent), http.StatusBadRequest},
		{"not found", ErrNotFound, http.StatusNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatusCode(tt.err); got != tt.want {
				t.Errorf("HTTPStatusCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsSentinelAndCause(t *testing.T) {
	cause := errors.New("AccessDeniedException")
	err := Wrap(ErrDependency, http.StatusInternalServerError, "Error processing document.", cause)

	if !errors.Is(err, ErrDependency) {
		t.Error("expected errors.Is to find the sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
	if got := PublicMessage(err); got != "Error processing document." {
		t.Errorf("public message leaked or changed: %q", got)
	}
	if got := PublicMessage(cause); got != "internal error" {
		t.Errorf("expected generic message for non-app errors, got %q", got)
	}
	if IsClientError(err) {
		t.Error("dependency failure must not be a client error")
	}
}
