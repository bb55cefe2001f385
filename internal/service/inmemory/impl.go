// Package inmemory provides an ImageService over the file catalog, which is
// held in memory after its first load.
package inmemory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/filestore"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
)

type imageSvc struct {
	store             *filestore.Store
	statusPersistence status.StatusPersistence
}

var _ service.ImageService = (*imageSvc)(nil)

// New creates an ImageService reading images from store and the last sync
// time from statusPersistence.
func New(store *filestore.Store, statusPersistence status.StatusPersistence) (service.ImageService, error) {
	if store == nil {
		return nil, fmt.Errorf("file store is required")
	}
	if statusPersistence == nil {
		return nil, fmt.Errorf("status persistence is required")
	}
	return &imageSvc{
		store:             store,
		statusPersistence: statusPersistence,
	}, nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *imageSvc) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", service.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *imageSvc) GetLastUpdated(ctx context.Context) (*time.Time, error) {
	syncStatus, err := s.statusPersistence.Load(ctx)
	if err != nil {
		if errors.Is(err, status.ErrNoStatus) {
			return nil, nil
		}
		return nil, err
	}
	lastSync := syncStatus.LastSyncTime
	return &lastSync, nil
}

func (s *imageSvc) ListImages(ctx context.Context, opts ...service.Option) ([]service.Image, error) {
	options, err := service.NewListImagesOptions(opts...)
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, options.Matches)
}
