package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/lambdacontext"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/logger"
)

// LambdaResponse is the {statusCode, body} pair returned to the Lambda
// runtime. Body is a JSON document.
type LambdaResponse struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// LambdaHandler adapts a Processor to the Lambda invocation model. When
// startupErr is set (missing configuration) every invocation reports it
// without doing any work.
func LambdaHandler(p Processor, startupErr error) func(ctx context.Context, event json.RawMessage) (LambdaResponse, error) {
	log := slog.Default().With("component", "lambda-handler")
	return func(ctx context.Context, event json.RawMessage) (LambdaResponse, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = logger.WithRequestID(ctx, lc.AwsRequestID)
		}
		if startupErr != nil {
			log.Error("invocation rejected, service not configured", "error", startupErr)
			return errorResponse(startupErr), nil
		}
		res, err := p.Process(ctx, event)
		if err != nil {
			logger.FromContext(ctx).Error("ingestion failed", "error", err)
			return errorResponse(err), nil
		}
		return jsonResponse(http.StatusOK, res), nil
	}
}

func errorResponse(err error) LambdaResponse {
	return jsonResponse(apperrors.HTTPStatusCode(err), map[string]string{"error": apperrors.PublicMessage(err)})
}

func jsonResponse(status int, v any) LambdaResponse {
	body, err := json.Marshal(v)
	if err != nil {
		return LambdaResponse{StatusCode: http.StatusInternalServerError, Body: `{"error":"internal error"}`}
	}
	return LambdaResponse{StatusCode: status, Body: string(body)}
}
