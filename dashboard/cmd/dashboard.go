package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/dashboard/internal/client"
	"github.com/Alturino/dashboard/dashboard/internal/controller"
	"github.com/Alturino/dashboard/dashboard/internal/guard"
	"github.com/Alturino/dashboard/dashboard/internal/listing"
	"github.com/Alturino/dashboard/dashboard/internal/otel"
	"github.com/Alturino/dashboard/dashboard/internal/view"
	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/log"
)

// AttachDashboard mounts the dashboard pages on router. The pages reach the
// products through the proxy at cfg.ProxyURL.
func AttachDashboard(c context.Context, router *mux.Router, cfg config.Dashboard, provider auth.Provider) error {
	c, span := otel.Tracer.Start(c, "AttachDashboard")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "dashboard AttachDashboard").
		Str(log.KeyUpstreamURL, cfg.ProxyURL).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "parsing templates").Logger()
	logger.Info().Msg("parsing templates")
	renderer, err := view.New()
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("parsed templates")

	logger = logger.With().Str(log.KeyProcess, "initializing proxy client").Logger()
	logger.Info().Msg("initializing proxy client")
	productClient, err := client.NewProductClient(cfg.ProxyURL)
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized proxy client")

	logger = logger.With().Str(log.KeyProcess, "attaching dashboard controller").Logger()
	logger.Info().Msg("attaching dashboard controller")
	controller.AttachDashboardController(
		router,
		provider,
		guard.New(provider, cfg, renderer.Loading()),
		renderer,
		listing.NewRegistry(productClient, cfg.PageLimit),
		productClient,
	)
	logger.Info().Msg("attached dashboard controller")

	return nil
}
