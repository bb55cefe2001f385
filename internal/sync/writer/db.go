package writer

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/db/sqlc"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
)

type dbSyncWriter struct {
	pool *pgxpool.Pool
}

// NewDBSyncWriter creates a new dbSyncWriter with the given connection pool.
// The caller is responsible for closing the pool when done.
func NewDBSyncWriter(pool *pgxpool.Pool) (SyncWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbSyncWriter{pool: pool}, nil
}

func (d *dbSyncWriter) HasImage(ctx context.Context, key service.ImageKey) (bool, error) {
	count, err := sqlc.New(d.pool).CountImagesByKey(ctx, sqlc.CountImagesByKeyParams{
		Name:      key.Name,
		Tag:       key.PrimaryTag,
		TagTrixie: key.SecondaryTag,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (d *dbSyncWriter) CreateImage(ctx context.Context, img *service.Image) error {
	if img == nil {
		return fmt.Errorf("image must not be nil")
	}

	id, err := sqlc.New(d.pool).InsertImage(ctx, sqlc.InsertImageParams{
		Name:            img.Name,
		Url:             img.PrimaryURL,
		UrlTrixie:       img.SecondaryURL,
		Tag:             img.PrimaryTag,
		TagTrixie:       img.SecondaryTag,
		ReleaseNotes:    img.ReleaseNotes,
		Stable:          img.Stable,
		IsPinnedVersion: img.Pinned,
		CreatedDate:     img.CreatedAt,
		ModifiedDate:    img.ModifiedAt,
	})
	if err != nil {
		return err
	}
	img.ID = id
	return nil
}
