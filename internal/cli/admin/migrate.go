package admin

import (
	"fmt"

	"github.com/cloo-solutions/matchd/internal/config"
	"github.com/cloo-solutions/matchd/internal/database"
	"github.com/cloo-solutions/matchd/internal/logger"
	"github.com/spf13/cobra"
)

func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply all pending up migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			source, _ := cmd.Flags().GetString("migrations")
			return runMigrate(source)
		},
	}

	cmd.Flags().String("migrations", database.DefaultMigrationsSource, "Migration source URL")

	return cmd
}

func runMigrate(source string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogJSON, cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	return database.Migrate(cfg.DatabaseURL, source, log)
}
