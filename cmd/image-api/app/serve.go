package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	imageapp "github.com/sdr-enthusiasts/sdr-image-api/internal/app"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/telemetry"
)

const (
	defaultGracefulTimeout   = 30 * time.Second
	telemetryShutdownTimeout = 5 * time.Second
)

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the image API server",
		Long: `Start the image API server. A sync cycle runs at startup and then on the
configured interval while the read API serves the catalog.

Configuration comes from --config and IMAGE_API_* environment variables;
APP_ID, API_KEY, INSTALLATION_ID, IGNORED_REPOS and PORT are also honoured.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	bindFlag(v, "address", cmd.Flags().Lookup("address"))
	return cmd
}

func runServe(parent context.Context, v *viper.Viper) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer shutdownTelemetry(tel)

	opts := []imageapp.ImageAppOptions{
		imageapp.WithConfig(cfg),
		imageapp.WithTelemetry(tel),
	}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, imageapp.WithAddress(address))
	}

	app, err := imageapp.NewImageApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	select {
	case err := <-errCh:
		if stopErr := app.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop application", "error", stopErr)
		}
		return err
	case <-ctx.Done():
		slog.Info("Received shutdown signal")
	}

	return app.Stop(defaultGracefulTimeout)
}

func shutdownTelemetry(tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.Background(), telemetryShutdownTimeout)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down telemetry", "error", err)
	}
}
