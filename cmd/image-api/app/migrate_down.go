package app

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sdr-enthusiasts/sdr-image-api/database"
)

func newMigrateDownCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  image-api migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  image-api migrate down --config config.yaml --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateDown(cmd, v)
		},
	}
}

func runMigrateDown(cmd *cobra.Command, v *viper.Viper) error {
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return fmt.Errorf("failed to get num-steps flag: %w", err)
	}
	if numSteps > math.MaxInt32 {
		return fmt.Errorf("number of steps exceeds maximum allowed value")
	}

	_, connString, err := loadDatabaseConfig(v)
	if err != nil {
		return err
	}

	prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
	if numSteps > 0 {
		prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", numSteps)
	}
	ok, err := confirmed(cmd, prompt)
	if err != nil {
		return err
	}
	if !ok {
		slog.Info("Migration cancelled")
		return fmt.Errorf("migration cancelled by user")
	}

	if numSteps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	} else {
		slog.Info("Migrating down", "steps", numSteps)
	}

	version, err := database.MigrateDown(connString, int(numSteps)) // #nosec G115 -- bounded above
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	if version == 0 {
		slog.Info("Database schema has been completely removed")
	} else {
		slog.Info("Migration completed successfully", "version", version)
	}
	return nil
}
