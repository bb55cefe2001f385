package writer

import (
	"context"
	"fmt"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/filestore"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
)

type fileSyncWriter struct {
	store *filestore.Store
}

// NewFileSyncWriter creates a SyncWriter over the JSON file catalog
func NewFileSyncWriter(store *filestore.Store) (SyncWriter, error) {
	if store == nil {
		return nil, fmt.Errorf("file store is required")
	}
	return &fileSyncWriter{store: store}, nil
}

func (f *fileSyncWriter) HasImage(ctx context.Context, key service.ImageKey) (bool, error) {
	return f.store.Exists(ctx, key)
}

func (f *fileSyncWriter) CreateImage(ctx context.Context, img *service.Image) error {
	return f.store.Insert(ctx, img)
}
