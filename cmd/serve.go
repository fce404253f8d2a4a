package cmd

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	dashboardCmd "github.com/Alturino/dashboard/dashboard/cmd"
	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/constants"
	inHttp "github.com/Alturino/dashboard/internal/http"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/metrics"
	"github.com/Alturino/dashboard/internal/middleware"
	"github.com/Alturino/dashboard/internal/otel"
	productCmd "github.com/Alturino/dashboard/product/cmd"
	userCmd "github.com/Alturino/dashboard/user/cmd"
)

const shutdownTimeout = 10 * time.Second

func runDashboard(c context.Context, cfg *config.Config) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppDashboard).
		Str(log.KeyTag, "main runDashboard").
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "InitOtelSdk").Logger()
	logger.Info().Msg("initalizing otel sdk")
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppDashboard, cfg.Otel)
	if err != nil {
		logger.Error().Err(err).Msgf("failed initalizing otel sdk with error=%s", err.Error())
	}
	logger.Info().Msg("initalized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "initializing auth provider").Logger()
	logger.Info().Msg("initializing auth provider")
	provider, closeProvider, err := userCmd.NewAuthProvider(c, cfg)
	if err != nil {
		logger.Error().Err(err).Msgf("failed initializing auth provider with error=%s", err.Error())
		return errors.Join(err, otel.ShutdownOtel(c, otelShutdowns))
	}
	defer closeProvider()
	logger.Info().Msg("initialized auth provider")

	logger = logger.With().Str(log.KeyProcess, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	m := metrics.New()
	router := mux.NewRouter()
	router.Use(
		middleware.RecoverPanic,
		otelmux.Middleware(constants.AppDashboard),
		middleware.Logging,
		middleware.Metrics(m),
	)
	router.Handle("/metrics", m.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		inHttp.WriteJsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)
	if err := productCmd.AttachProductProxy(c, router, cfg.Upstream, m); err != nil {
		return errors.Join(err, otel.ShutdownOtel(c, otelShutdowns))
	}
	if err := dashboardCmd.AttachDashboard(c, router, cfg.Dashboard, provider); err != nil {
		return errors.Join(err, otel.ShutdownOtel(c, otelShutdowns))
	}
	logger.Info().Msg("initialized router")

	return serve(c, address(cfg.Application.Host, cfg.Application.Port), router, otelShutdowns)
}

// serve runs handler until c is cancelled, then shuts the server and the
// otel providers down.
func serve(c context.Context, addr string, handler http.Handler, otelShutdowns []otel.ShutdownFunc) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main serve").
		Str("addr", addr).
		Logger()

	server := http.Server{
		Addr:         addr,
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      handler,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str(log.KeyProcess, "start server").Msgf("start listening request at %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().
				Err(err).
				Str(log.KeyProcess, "start server").
				Msgf("error=%s occured while server is running", err.Error())
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-c.Done():
		logger.Info().Str(log.KeyProcess, "shutdown server").Msg("received interuption signal shutting down")
	case runErr = <-serverErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), shutdownTimeout)
	defer cancel()

	logger = logger.With().Str(log.KeyProcess, "shutdown server").Logger()
	logger.Info().Msg("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msgf("failed shutting down http server with error=%s", err.Error())
		runErr = errors.Join(runErr, err)
	}
	logger.Info().Msg("shutdown http server")

	logger.Info().Msg("shutting down otel")
	if err := otel.ShutdownOtel(shutdownCtx, otelShutdowns); err != nil {
		logger.Error().Err(err).Msgf("failed shutting down otel with error=%s", err.Error())
		runErr = errors.Join(runErr, err)
	}
	logger.Info().Msg("shutdown otel")

	return runErr
}
