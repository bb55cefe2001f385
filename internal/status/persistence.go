// Package status provides file persistence for the sync status singleton.
package status

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

//go:generate mockgen -destination=mocks/mock_status_persistence.go -package=mocks -source=persistence.go StatusPersistence

const (
	// StatusFileName is the name of the status file
	StatusFileName = "status.json"
)

// ErrNoStatus is returned by Load when no status has been saved
var ErrNoStatus = errors.New("no sync status recorded")

// StatusPersistence stores the sync status singleton
//
//nolint:revive // This name is fine
type StatusPersistence interface {
	// Save writes the status, replacing any previous one
	Save(ctx context.Context, syncStatus *SyncStatus) error

	// Load returns the stored status, or ErrNoStatus on first run
	Load(ctx context.Context) (*SyncStatus, error)

	// Delete removes the stored status. Deleting a missing status is not an error.
	Delete(ctx context.Context) error
}

type fileStatusPersistence struct {
	basePath string
}

// NewFileStatusPersistence creates a status store rooted at basePath
func NewFileStatusPersistence(basePath string) StatusPersistence {
	return &fileStatusPersistence{
		basePath: basePath,
	}
}

func (f *fileStatusPersistence) path() string {
	return filepath.Join(f.basePath, StatusFileName)
}

func (f *fileStatusPersistence) Save(_ context.Context, status *SyncStatus) error {
	if status == nil {
		return fmt.Errorf("status must not be nil")
	}
	if err := os.MkdirAll(f.basePath, 0750); err != nil {
		return fmt.Errorf("failed to create status directory: %w", err)
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}

	filePath := f.path()
	tempPath := filePath + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary status file: %w", err)
	}
	if err := os.Rename(tempPath, filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename status file: %w", err)
	}
	return nil
}

func (f *fileStatusPersistence) Load(_ context.Context) (*SyncStatus, error) {
	// #nosec G304 -- path is built from the configured storage directory
	data, err := os.ReadFile(f.path())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoStatus
		}
		return nil, fmt.Errorf("failed to read status file: %w", err)
	}

	var status SyncStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

func (f *fileStatusPersistence) Delete(_ context.Context) error {
	if err := os.Remove(f.path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete status file: %w", err)
	}
	return nil
}
