package middleware

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/otel"
)

func RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			c, span := otel.Tracer.Start(r.Context(), "middleware RecoverPanic")
			defer span.End()

			err, ok := recovered.(error)
			if !ok {
				err = fmt.Errorf("panic: %v", recovered)
			}
			logger := zerolog.Ctx(c).With().Str(log.KeyTag, "middleware RecoverPanic").Logger()
			logger.Error().Err(err).Stack().Msg("recovered from panic")
			otel.RecordError(err, span)
			inHttp.WriteErrorResponse(c, w, http.StatusInternalServerError, "Internal Server Error")
		}()

		next.ServeHTTP(w, r)
	})
}
