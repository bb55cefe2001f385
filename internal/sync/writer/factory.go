package writer

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/filestore"
)

// NewSyncWriter creates a SyncWriter based on the configured storage type.
func NewSyncWriter(cfg *config.Config, store *filestore.Store, pool *pgxpool.Pool) (SyncWriter, error) {
	switch cfg.GetStorageType() {
	case config.StorageTypeDatabase:
		return NewDBSyncWriter(pool)
	case config.StorageTypeFile:
		return NewFileSyncWriter(store)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", cfg.GetStorageType())
	}
}
