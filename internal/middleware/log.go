package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/otel"
)

var maskedFields = []string{"password", "confirm_password"}

func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(inHttp.KeyHeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c, span := otel.Tracer.Start(
			r.Context(),
			"middleware Logging",
			trace.WithAttributes(
				attribute.String(log.KeyRequestID, requestID),
				attribute.String(log.KeyRequestHost, r.Host),
				attribute.String(log.KeyRequestIP, r.RemoteAddr),
				attribute.String(log.KeyRequestMethod, r.Method),
				attribute.String(log.KeyRequestURI, r.RequestURI),
			),
		)
		defer span.End()

		dict := zerolog.Dict().
			Str(log.KeyRequestHost, r.Host).
			Str(log.KeyRequestIP, r.RemoteAddr).
			Str(log.KeyRequestMethod, r.Method).
			Str(log.KeyRequestURI, r.RequestURI)
		if body, ok := readJsonBody(r); ok {
			dict = dict.Any(log.KeyRequestBody, body)
		}

		logger := zerolog.Ctx(c).
			With().
			Str(log.KeyRequestID, requestID).
			Dict(log.KeyRequest, dict).
			Logger()
		logger.Trace().Msg("received request")

		w.Header().Set(inHttp.KeyHeaderRequestID, requestID)
		c = log.AttachRequestIDToContext(c, requestID)
		c = logger.WithContext(c)
		next.ServeHTTP(w, r.WithContext(c))
	})
}

// maxLoggedBodyBytes bounds how much of a request body is held for logging.
// Larger bodies are passed on unlogged.
const maxLoggedBodyBytes = 64 << 10

type peekedBody struct {
	io.Reader
	io.Closer
}

// readJsonBody peeks at a JSON request body for logging and restores it for
// the next handler. Password fields are masked.
func readJsonBody(r *http.Request) (map[string]any, bool) {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get(inHttp.KeyHeaderContentType), inHttp.ValueHeaderApplicationJson) {
		return nil, false
	}

	head, err := io.ReadAll(io.LimitReader(r.Body, maxLoggedBodyBytes+1))
	r.Body = peekedBody{Reader: io.MultiReader(bytes.NewReader(head), r.Body), Closer: r.Body}
	if err != nil || len(head) > maxLoggedBodyBytes {
		return nil, false
	}

	body := map[string]any{}
	if err := json.Unmarshal(head, &body); err != nil {
		return nil, false
	}
	for _, field := range maskedFields {
		if _, ok := body[field]; ok {
			body[field] = "***"
		}
	}
	return body, true
}
