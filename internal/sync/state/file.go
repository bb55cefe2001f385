package state

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
)

type fileStateService struct {
	statusPersistence status.StatusPersistence

	mu sync.Mutex
}

// NewFileStateService creates a sync state service backed by a status file
func NewFileStateService(statusPersistence status.StatusPersistence) SyncStateService {
	return &fileStateService{
		statusPersistence: statusPersistence,
	}
}

func (f *fileStateService) GetLastSync(ctx context.Context) (*status.SyncStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	syncStatus, err := f.statusPersistence.Load(ctx)
	if err != nil {
		if errors.Is(err, status.ErrNoStatus) {
			return nil, ErrNoSyncState
		}
		return nil, err
	}
	return syncStatus, nil
}

func (f *fileStateService) ReplaceLastSync(ctx context.Context, syncStatus *status.SyncStatus) error {
	if syncStatus == nil {
		return fmt.Errorf("sync status must not be nil")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.statusPersistence.Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete previous sync state: %w", err)
	}
	if err := f.statusPersistence.Save(ctx, syncStatus); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}
