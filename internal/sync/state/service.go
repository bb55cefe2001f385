// Package state holds the sync state singleton: the time of the last cycle
// that passed the freshness gate.
package state

import (
	"context"
	"errors"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
)

// ErrNoSyncState is returned when no cycle has been recorded yet
var ErrNoSyncState = errors.New("no sync state recorded")

// SyncStateService reads and replaces the sync state singleton.
//
//go:generate mockgen -destination=mocks/mock_sync_state_service.go -package=mocks -source=service.go SyncStateService
type SyncStateService interface {
	// GetLastSync returns the most recent sync state, or ErrNoSyncState.
	GetLastSync(ctx context.Context) (*status.SyncStatus, error)
	// ReplaceLastSync deletes any existing state and records syncStatus
	// in its place, so at most one state exists afterwards.
	ReplaceLastSync(ctx context.Context, syncStatus *status.SyncStatus) error
}
