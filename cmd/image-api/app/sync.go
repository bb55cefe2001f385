package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	imageapp "github.com/sdr-enthusiasts/sdr-image-api/internal/app"
)

func newSyncCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one forced sync cycle and exit",
		Long: `Run a single sync cycle against GitHub, bypassing the freshness window,
record any new images and exit. No HTTP server is started.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSync(cmd.Context(), v)
		},
	}
}

func runSync(ctx context.Context, v *viper.Viper, opts ...imageapp.ImageAppOptions) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	app, err := imageapp.NewImageApp(ctx, append([]imageapp.ImageAppOptions{imageapp.WithConfig(cfg)}, opts...)...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	result, err := app.RunOnce(ctx)
	if result != nil {
		slog.Info("Sync finished",
			"cycle_id", result.CycleID,
			"repositories", result.Repositories,
			"ignored", result.Ignored,
			"empty", result.Empty,
			"existing", result.Existing,
			"created", result.Created,
			"failed", result.Failed)
	}
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	return nil
}
