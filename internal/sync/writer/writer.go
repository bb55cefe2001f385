// Package writer contains the SyncWriter interface and implementations
package writer

import (
	"context"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
)

//go:generate mockgen -destination=mocks/mock_sync_writer.go -package=mocks -source=writer.go SyncWriter

// SyncWriter is the write side of the image catalog used by sync.
// Records are only ever created, never updated or deleted.
type SyncWriter interface {
	// HasImage reports whether a record with the given dedup key exists
	HasImage(ctx context.Context, key service.ImageKey) (bool, error)
	// CreateImage stores img and sets its ID
	CreateImage(ctx context.Context, img *service.Image) error
}
