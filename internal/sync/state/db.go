package state

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/db/sqlc"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
)

type dbStateService struct {
	pool *pgxpool.Pool
}

// NewDBStateService creates a new database-backed sync state service
func NewDBStateService(pool *pgxpool.Pool) SyncStateService {
	return &dbStateService{
		pool: pool,
	}
}

func (d *dbStateService) GetLastSync(ctx context.Context) (*status.SyncStatus, error) {
	lastSync, err := sqlc.New(d.pool).GetLastUpdated(ctx)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSyncState
		}
		return nil, err
	}
	return &status.SyncStatus{LastSyncTime: lastSync}, nil
}

// ReplaceLastSync deletes and inserts in one transaction so readers never
// observe an empty table between cycles.
func (d *dbStateService) ReplaceLastSync(ctx context.Context, syncStatus *status.SyncStatus) error {
	if syncStatus == nil {
		return fmt.Errorf("sync status must not be nil")
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	queries := sqlc.New(d.pool).WithTx(tx)
	if err := queries.DeleteLastUpdated(ctx); err != nil {
		return fmt.Errorf("failed to delete previous sync state: %w", err)
	}
	if err := queries.InsertLastUpdated(ctx, syncStatus.LastSyncTime); err != nil {
		return fmt.Errorf("failed to insert sync state: %w", err)
	}

	return tx.Commit(ctx)
}
