package state

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
)

// NewStateService creates a SyncStateService based on the configured storage type.
//
// File storage uses statusPersistence; database storage requires a non-nil pool.
func NewStateService(
	cfg *config.Config,
	statusPersistence status.StatusPersistence,
	pool *pgxpool.Pool,
) (SyncStateService, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		if pool == nil {
			return nil, fmt.Errorf("database pool is required when storage type is database")
		}
		return NewDBStateService(pool), nil
	case config.StorageTypeFile:
		if statusPersistence == nil {
			return nil, fmt.Errorf("status persistence is required when storage type is file")
		}
		return NewFileStateService(statusPersistence), nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.GetStorageType())
	}
}
