package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/otel"
)

// ErrorBody is the client facing shape of every error the API writes.
type ErrorBody struct {
	Error string `json:"error"`
}

func WriteJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	body any,
) {
	c, span := otel.Tracer.Start(c, "WriteJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderApplicationJson)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msgf("failed encoding response body with error=%s", err.Error())
	}
}

func WriteErrorResponse(c context.Context, w http.ResponseWriter, statusCode int, message string) {
	WriteJsonResponse(c, w, statusCode, ErrorBody{Error: message})
}

// WriteRawJsonResponse writes body unchanged.
func WriteRawJsonResponse(
	c context.Context,
	w http.ResponseWriter,
	statusCode int,
	body []byte,
) {
	c, span := otel.Tracer.Start(c, "WriteRawJsonResponse")
	defer span.End()

	logger := zerolog.Ctx(c).With().Str(log.KeyTag, "WriteRawJsonResponse").Logger()

	w.Header().Set(KeyHeaderContentType, ValueHeaderApplicationJson)
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msgf("failed writing response body with error=%s", err.Error())
	}
}
