package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/filestore"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service/inmemory"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/state"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/writer"
)

// FileFactory creates components backed by JSON documents in one directory
type FileFactory struct {
	config  *config.Config
	dataDir string

	// shared by every component so reads see what sync wrote
	store             *filestore.Store
	statusPersistence status.StatusPersistence
}

var _ Factory = (*FileFactory)(nil)

// NewFileFactory creates the data directory and the shared file backends
func NewFileFactory(cfg *config.Config) (*FileFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	dataDir := cfg.Storage.Path
	if dataDir == "" {
		dataDir = config.DefaultStoragePath
	}
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data directory %s: %w", dataDir, err)
	}

	slog.Info("Creating file-based storage factory", "data_dir", dataDir)

	return &FileFactory{
		config:            cfg,
		dataDir:           dataDir,
		store:             filestore.New(dataDir),
		statusPersistence: status.NewFileStatusPersistence(dataDir),
	}, nil
}

// CreateStateService creates a file-based state service
func (f *FileFactory) CreateStateService(_ context.Context) (state.SyncStateService, error) {
	slog.Debug("Creating file-based state service")
	return state.NewStateService(f.config, f.statusPersistence, nil)
}

// CreateSyncWriter creates a file-based sync writer
func (f *FileFactory) CreateSyncWriter(_ context.Context) (writer.SyncWriter, error) {
	slog.Debug("Creating file-based sync writer")
	return writer.NewSyncWriter(f.config, f.store, nil)
}

// CreateImageService creates the in-memory read service over the file store
func (f *FileFactory) CreateImageService(_ context.Context) (service.ImageService, error) {
	slog.Debug("Creating file-based image service")
	return inmemory.New(f.store, f.statusPersistence)
}

// Cleanup is a no-op for file storage
func (*FileFactory) Cleanup() {
	slog.Debug("Cleaning up file storage factory (no-op)")
}
