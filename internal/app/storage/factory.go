// Package storage creates the storage-dependent components of the image API
// as one family, so the state service, sync writer and image service always
// share a backend.
package storage

import (
	"context"
	"fmt"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/state"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/writer"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family
type Factory interface {
	// CreateStateService creates the last-sync bookkeeping service
	CreateStateService(ctx context.Context) (state.SyncStateService, error)

	// CreateSyncWriter creates the writer the sync manager inserts records through
	CreateSyncWriter(ctx context.Context) (writer.SyncWriter, error)

	// CreateImageService creates the read service behind the HTTP API
	CreateImageService(ctx context.Context) (service.ImageService, error)

	// Cleanup releases resources held by the factory, such as the database pool
	Cleanup()
}

// NewStorageFactory creates a factory for the configured storage type
func NewStorageFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDatabaseFactory(ctx, cfg, opts...)
	case config.StorageTypeFile:
		return NewFileFactory(cfg)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.GetStorageType())
	}
}
