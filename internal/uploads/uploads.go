// Package uploads issues short-lived presigned PUT URLs so browser clients
// can upload straight to the ingest bucket.
package uploads

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/middleware"
)

const (
	DefaultExpiry = time.Hour

	NotConfiguredMessage   = "Server-side bucket not configured."
	MissingFileNameMessage = "fileName must be provided in the request body."
	InvalidJSONMessage     = "Invalid JSON in request body."
	PresignFailedMessage   = "Could not generate upload URL."
)

// Presigner is the subset of s3.PresignClient the issuer uses.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Grant is returned to the uploading client.
type Grant struct {
	UploadURL string `json:"uploadUrl"`
	FileName  string `json:"fileName"`
}

type Issuer struct {
	presigner Presigner
	bucket    string
	expiry    time.Duration
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func NewIssuer(presigner Presigner, bucket string, expiry time.Duration, m *metrics.Metrics) *Issuer {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Issuer{
		presigner: presigner,
		bucket:    bucket,
		expiry:    expiry,
		metrics:   m,
		logger:    slog.Default().With("component", "upload-issuer"),
	}
}

// NewIssuerFromConfig builds the S3 presign client from a shared aws.Config.
func NewIssuerFromConfig(awsCfg aws.Config, bucket string, expiry time.Duration, m *metrics.Metrics) *Issuer {
	return NewIssuer(s3.NewPresignClient(s3.NewFromConfig(awsCfg)), bucket, expiry, m)
}

// Issue presigns a PUT of fileName into the bucket. The file name is used as
// the object key unchanged.
func (i *Issuer) Issue(ctx context.Context, fileName string) (*Grant, error) {
	if strings.TrimSpace(i.bucket) == "" {
		return nil, apperrors.New(apperrors.ErrNotConfigured, http.StatusInternalServerError, NotConfiguredMessage)
	}
	if fileName == "" {
		return nil, apperrors.New(apperrors.ErrInvalidInput, http.StatusBadRequest, MissingFileNameMessage)
	}
	req, err := i.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(i.bucket),
		Key:    aws.String(fileName),
	}, s3.WithPresignExpires(i.expiry))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrDependency, http.StatusInternalServerError, PresignFailedMessage,
			fmt.Errorf("presign put %s/%s: %w", i.bucket, fileName, err))
	}
	if i.metrics != nil {
		i.metrics.UploadURLsIssued.Inc()
	}
	logger.FromContext(ctx).Info("upload url issued", "bucket", i.bucket, "key", fileName, "expires_in", i.expiry.String())
	return &Grant{UploadURL: req.URL, FileName: fileName}, nil
}

// Handler serves POST /api/v1/uploads.
type Handler struct {
	issuer *Issuer
	logger *slog.Logger
}

func NewHandler(issuer *Issuer) *Handler {
	return &Handler{
		issuer: issuer,
		logger: slog.Default().With("component", "upload-handler"),
	}
}

// Routes registers the upload endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/uploads", h.Create)
}

// CORS is the cross-origin policy of the upload API.
func CORS() func(http.Handler) http.Handler {
	return middleware.CORS(middleware.PublicCORSConfig(http.MethodPost, http.MethodOptions))
}

type createRequest struct {
	FileName string `json:"fileName"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64<<10))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, InvalidJSONMessage)
		return
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			h.writeError(w, http.StatusBadRequest, InvalidJSONMessage)
			return
		}
	}

	grant, err := h.issuer.Issue(r.Context(), req.FileName)
	if err != nil {
		status := apperrors.HTTPStatusCode(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context()).Error("upload url issuance failed", "error", err)
		}
		h.writeError(w, status, apperrors.PublicMessage(err))
		return
	}
	h.writeJSON(w, http.StatusOK, grant)
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
