package status

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStatusPersistence_SaveAndLoad(t *testing.T) {
	t.Parallel()

	tmpDir := filepath.Join(t.TempDir(), "nested")
	persistence := NewFileStatusPersistence(tmpDir)
	ctx := context.Background()

	saved := &SyncStatus{
		LastSyncTime: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		CycleID:      "cycle-1",
	}
	require.NoError(t, persistence.Save(ctx, saved))

	_, err := os.Stat(filepath.Join(tmpDir, StatusFileName))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmpDir, StatusFileName+".tmp"))
	assert.True(t, os.IsNotExist(err))

	loaded, err := persistence.Load(ctx)
	require.NoError(t, err)
	assert.True(t, saved.LastSyncTime.Equal(loaded.LastSyncTime))
	assert.Equal(t, "cycle-1", loaded.CycleID)
}

func TestFileStatusPersistence_LoadMissing(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(t.TempDir())

	loaded, err := persistence.Load(context.Background())
	require.ErrorIs(t, err, ErrNoStatus)
	assert.Nil(t, loaded)
}

func TestFileStatusPersistence_LoadCorrupt(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, StatusFileName), []byte("{not json"), 0600))

	_, err := NewFileStatusPersistence(tmpDir).Load(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoStatus)
}

func TestFileStatusPersistence_Delete(t *testing.T) {
	t.Parallel()

	persistence := NewFileStatusPersistence(t.TempDir())
	ctx := context.Background()

	require.NoError(t, persistence.Delete(ctx), "deleting a missing status")

	require.NoError(t, persistence.Save(ctx, &SyncStatus{LastSyncTime: time.Now()}))
	require.NoError(t, persistence.Delete(ctx))

	_, err := persistence.Load(ctx)
	require.ErrorIs(t, err, ErrNoStatus)
}

func TestFileStatusPersistence_SaveNil(t *testing.T) {
	t.Parallel()

	err := NewFileStatusPersistence(t.TempDir()).Save(context.Background(), nil)
	require.Error(t, err)
}
