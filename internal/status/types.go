package status

import "time"

// SyncStatus is the persisted record of the last synchronization cycle that
// passed the freshness gate. At most one exists at a time.
type SyncStatus struct {
	// LastSyncTime is when the cycle started
	LastSyncTime time.Time `json:"lastSyncTime"`

	// CycleID identifies the cycle in logs
	CycleID string `json:"cycleId,omitempty"`
}
