// Package app provides application lifecycle management for the image API.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	pkgsync "github.com/sdr-enthusiasts/sdr-image-api/internal/sync"
)

// ImageApp encapsulates all components needed to run the image API server
type ImageApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the background sync and the HTTP server.
// Blocks until the HTTP server stops or fails.
func (app *ImageApp) Start() error {
	go func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// RunOnce runs a single forced sync cycle without serving HTTP
func (app *ImageApp) RunOnce(ctx context.Context) (*pkgsync.CycleResult, error) {
	return app.components.SyncCoordinator.Trigger(ctx, true)
}

// Stop stops the sync coordinator, then shuts the HTTP server down within timeout
func (app *ImageApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := app.httpServer.Shutdown(shutdownCtx)

	// storage goes last so in-flight requests can finish
	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	if err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// Close releases storage without starting anything
func (app *ImageApp) Close() {
	if app.cancelFunc != nil {
		app.cancelFunc()
	}
}

// GetConfig returns the application configuration
func (app *ImageApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server
func (app *ImageApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
