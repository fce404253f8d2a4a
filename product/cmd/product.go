package cmd

import (
	"context"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/internal/metrics"
	"github.com/Alturino/dashboard/product/internal/client"
	"github.com/Alturino/dashboard/product/internal/controller"
	"github.com/Alturino/dashboard/product/internal/otel"
)

// AttachProductProxy mounts the /api product proxy on router, forwarding to
// the product service at cfg.BaseURL.
func AttachProductProxy(c context.Context, router *mux.Router, cfg config.Upstream, m *metrics.Metrics) error {
	c, span := otel.Tracer.Start(c, "AttachProductProxy")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "product AttachProductProxy").
		Str(log.KeyUpstreamURL, cfg.BaseURL).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "initializing product client").Logger()
	logger.Info().Msg("initializing product client")
	productClient, err := client.NewProductClient(cfg, m)
	if err != nil {
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized product client")

	logger = logger.With().Str(log.KeyProcess, "attaching product controller").Logger()
	logger.Info().Msg("attaching product controller")
	controller.AttachProductController(router, productClient)
	logger.Info().Msg("attached product controller")

	return nil
}
