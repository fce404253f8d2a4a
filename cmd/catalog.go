package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/dashboard/internal/catalog"
	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/constants"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/middleware"
	"github.com/Alturino/dashboard/internal/otel"
)

func runCatalog(c context.Context, cfg *config.Config) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyAppName, constants.AppCatalog).
		Str(log.KeyTag, "main runCatalog").
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "InitOtelSdk").Logger()
	logger.Info().Msg("initalizing otel sdk")
	otelShutdowns, err := otel.InitOtelSdk(c, constants.AppCatalog, cfg.Otel)
	if err != nil {
		logger.Error().Err(err).Msgf("failed initalizing otel sdk with error=%s", err.Error())
	}
	logger.Info().Msg("initalized otel sdk")

	logger = logger.With().Str(log.KeyProcess, "seeding catalog").Int("seed", cfg.Catalog.Seed).Logger()
	logger.Info().Msg("seeding catalog")
	store := catalog.NewStore()
	catalog.Seed(store, cfg.Catalog.Seed)
	logger.Info().Msg("seeded catalog")

	router := mux.NewRouter()
	router.Use(
		middleware.RecoverPanic,
		otelmux.Middleware(constants.AppCatalog),
		middleware.Logging,
	)
	catalog.AttachCatalogController(router, store)

	return serve(c, address(cfg.Catalog.Host, cfg.Catalog.Port), router, otelShutdowns)
}
