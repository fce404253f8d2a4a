package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Alturino/dashboard/internal/config"
	"github.com/Alturino/dashboard/internal/constants"
	"github.com/Alturino/dashboard/internal/infra"
	"github.com/Alturino/dashboard/internal/log"
)

func Start() {
	// The logger exists before the config file is read, so it takes the same
	// keys from the environment only.
	logger := log.InitLogger(os.Getenv("APPLICATION_LOG_FILE"), os.Getenv("APPLICATION_ENV")).
		With().
		Str(log.KeyAppName, constants.AppMain).
		Str(log.KeyTag, "main Start").
		Logger()

	logger.Info().Msg("adding listener for SIGINT and SIGTERM")
	c, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().Msg("added listener for SIGINT and SIGTERM")

	c = logger.WithContext(c)

	var configName string
	rootCmd := &cobra.Command{
		Use:          constants.AppMain,
		Short:        "Product dashboard with a proxy to the product service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configName, "config", constants.AppMain, "config file name under ./env, without extension")

	migrateDown := false
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the user table migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			direction := infra.MigrationUp
			if migrateDown {
				direction = infra.MigrationDown
			}
			return runMigrate(cmd.Context(), loadConfig(cmd.Context(), configName), direction)
		},
	}
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "roll the migrations back instead")

	commands := []*cobra.Command{
		{
			Use:   "serve",
			Short: "Run the dashboard and product proxy",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runDashboard(cmd.Context(), loadConfig(cmd.Context(), configName))
			},
		},
		{
			Use:   "catalog",
			Short: "Run an in-memory product service for local development",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runCatalog(cmd.Context(), loadConfig(cmd.Context(), configName))
			},
		},
		migrateCmd,
	}
	rootCmd.AddCommand(commands...)
	if err := rootCmd.ExecuteContext(c); err != nil {
		logger.Fatal().Err(err).Msgf("error when executing command=%s", err.Error())
	}
}

func loadConfig(c context.Context, name string) *config.Config {
	return config.InitConfig(c, name)
}

func address(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
