package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sdr-enthusiasts/sdr-image-api/database"
)

func newMigrateUpCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
Database connection parameters come from the config file; GitHub credentials
are not required.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, v)
		},
	}
}

func runMigrateUp(cmd *cobra.Command, v *viper.Viper) error {
	db, connString, err := loadDatabaseConfig(v)
	if err != nil {
		return err
	}

	ok, err := confirmed(cmd, fmt.Sprintf("Apply migrations to %s@%s:%d/%s?", db.User, db.Host, db.Port, db.Database))
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled by user")
		return nil
	}

	slog.Info("Applying database migrations")
	version, err := database.MigrateUp(connString)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	slog.Info("Migrations applied successfully", "version", version)
	return nil
}
