package writer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdr-enthusiasts/sdr-image-api/database"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/filestore"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
)

func testImage(secondaryURL string) *service.Image {
	now := time.Date(2024, 4, 2, 15, 4, 5, 0, time.UTC)
	return &service.Image{
		Name:         "docker-readsb",
		PrimaryURL:   "ghcr.io/sdr-enthusiasts/docker-readsb:latest-build-7",
		SecondaryURL: secondaryURL,
		PrimaryTag:   "latest-build-7",
		SecondaryTag: "trixie-latest",
		ReleaseNotes: service.DefaultReleaseNotes,
		Stable:       true,
		Pinned:       true,
		CreatedAt:    now,
		ModifiedAt:   now,
	}
}

// exerciseWriter checks the create-if-absent contract shared by every backend
func exerciseWriter(t *testing.T, w SyncWriter) {
	t.Helper()
	ctx := context.Background()

	img := testImage("")
	exists, err := w.HasImage(ctx, img.Key())
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, w.CreateImage(ctx, img))
	assert.Positive(t, img.ID)

	exists, err = w.HasImage(ctx, img.Key())
	require.NoError(t, err)
	assert.True(t, exists)

	otherKey := img.Key()
	otherKey.PrimaryTag = "latest"
	exists, err = w.HasImage(ctx, otherKey)
	require.NoError(t, err)
	assert.False(t, exists)

	second := testImage("ghcr.io/sdr-enthusiasts/docker-readsb:trixie-latest")
	second.PrimaryTag = "latest-build-8"
	require.NoError(t, w.CreateImage(ctx, second))
	assert.Greater(t, second.ID, img.ID)
}

func TestFileSyncWriter(t *testing.T) {
	t.Parallel()

	w, err := NewFileSyncWriter(filestore.New(t.TempDir()))
	require.NoError(t, err)
	exerciseWriter(t, w)
}

func TestDBSyncWriter(t *testing.T) {
	t.Parallel()

	pool, _ := database.SetupTestDB(t)
	w, err := NewDBSyncWriter(pool)
	require.NoError(t, err)
	exerciseWriter(t, w)

	var stable, pinned bool
	var notes string
	require.NoError(t, pool.QueryRow(context.Background(),
		"SELECT stable, is_pinned_version, release_notes FROM images ORDER BY id LIMIT 1",
	).Scan(&stable, &pinned, &notes))
	assert.True(t, stable)
	assert.True(t, pinned)
	assert.Equal(t, service.DefaultReleaseNotes, notes)
}

func TestNewSyncWriter(t *testing.T) {
	t.Parallel()

	w, err := NewSyncWriter(&config.Config{}, filestore.New(t.TempDir()), nil)
	require.NoError(t, err)
	assert.IsType(t, &fileSyncWriter{}, w)

	_, err = NewSyncWriter(&config.Config{Storage: config.StorageConfig{Type: config.StorageTypeDatabase}}, nil, nil)
	require.Error(t, err)

	_, err = NewSyncWriter(&config.Config{}, nil, nil)
	require.Error(t, err)

	_, err = NewSyncWriter(&config.Config{Storage: config.StorageConfig{Type: "memory"}}, nil, nil)
	require.Error(t, err)
}
