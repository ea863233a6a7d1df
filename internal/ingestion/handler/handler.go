// Package handler exposes the ingestion pipeline to its triggers: an HTTP
// endpoint accepting object-created events and an AWS Lambda adapter.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
)

const maxEventBytes = 1 << 20

// Processor runs one raw event through the pipeline.
type Processor interface {
	Process(ctx context.Context, raw []byte) (*pipeline.Result, error)
}

type Handler struct {
	processor Processor
	logger    *slog.Logger
}

func New(p Processor) *Handler {
	return &Handler{
		processor: p,
		logger:    slog.Default().With("component", "ingestion-handler"),
	}
}

// Routes registers the ingestion endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/events", h.Ingest)
}

// Ingest processes the request body as a source event and responds with the
// run result, or {"error": message} with the error's status.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxEventBytes))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, ingestion.InvalidEventMessage)
		return
	}

	res, err := h.processor.Process(ctx, raw)
	if err != nil {
		statusCode := apperrors.HTTPStatusCode(err)
		log.Error("ingestion failed",
			"error", err,
			"status_code", statusCode,
		)
		h.writeError(w, statusCode, apperrors.PublicMessage(err))
		return
	}
	log.Info("event processed",
		"doc_id", res.DocumentID,
		"status", res.Status,
	)
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
