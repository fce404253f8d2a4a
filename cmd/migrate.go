package cmd

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/infra"
	"github.com/Alturino/dashboard/internal/log"
)

func runMigrate(c context.Context, cfg *config.Config, direction infra.MigrationDirection) error {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "main runMigrate").
		Str("direction", string(direction)).
		Logger()
	c = logger.WithContext(c)

	logger = logger.With().Str(log.KeyProcess, "connecting to database").Logger()
	logger.Info().Msg("connecting to database")
	pool, err := infra.NewDatabaseClient(c, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	return infra.Migrate(c, pool, cfg.Database, direction)
}
