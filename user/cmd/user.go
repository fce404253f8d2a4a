package cmd

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Alturino/dashboard/internal/auth"
	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/infra"
	"github.com/Alturino/dashboard/internal/log"
	"github.com/Alturino/dashboard/user/internal/repository"
	"github.com/Alturino/dashboard/user/internal/service"
	"github.com/Alturino/dashboard/user/internal/session"
)

// NewAuthProvider builds the user service selected by cfg.Auth. The returned
// close func releases any database or cache connections it opened.
func NewAuthProvider(c context.Context, cfg *config.Config) (auth.Provider, func(), error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "user NewAuthProvider").
		Str("driver", cfg.Auth.Driver).
		Str("revocation", cfg.Auth.Revocation).
		Logger()
	c = logger.WithContext(c)

	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	logger = logger.With().Str(log.KeyProcess, "initializing user repository").Logger()
	logger.Info().Msg("initializing user repository")
	var repo repository.Repository
	switch cfg.Auth.Driver {
	case config.DriverMemory, "":
		repo = repository.NewMemoryRepository()
	case config.DriverPostgres:
		pool, err := infra.NewDatabaseClient(c, cfg.Database)
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, pool.Close)
		if err := infra.Migrate(c, pool, cfg.Database, infra.MigrationUp); err != nil {
			closeAll()
			return nil, func() {}, err
		}
		repo = repository.NewPostgresRepository(pool)
	default:
		err := fmt.Errorf("unknown auth driver %q", cfg.Auth.Driver)
		logger.Error().Err(err).Msg(err.Error())
		return nil, closeAll, err
	}
	logger.Info().Msg("initialized user repository")

	logger = logger.With().Str(log.KeyProcess, "initializing revocation store").Logger()
	logger.Info().Msg("initializing revocation store")
	var revocation session.RevocationStore
	switch cfg.Auth.Revocation {
	case config.DriverMemory, "":
		revocation = session.NewMemoryRevocationStore()
	case config.DriverRedis:
		client, err := infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			closeAll()
			return nil, func() {}, err
		}
		closers = append(closers, func() { _ = client.Close() })
		revocation = session.NewRedisRevocationStore(client)
	default:
		closeAll()
		err := fmt.Errorf("unknown revocation store %q", cfg.Auth.Revocation)
		logger.Error().Err(err).Msg(err.Error())
		return nil, func() {}, err
	}
	logger.Info().Msg("initialized revocation store")

	if cfg.Application.SecretKey == "" {
		logger.Warn().Msg("application.secret_key is empty, sessions are signed with an empty key")
	}

	return service.NewUserService(repo, revocation, cfg.Application.SecretKey, cfg.Auth.SessionTTL), closeAll, nil
}
