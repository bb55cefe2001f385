package app

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/app/storage"
	storagemocks "github.com/sdr-enthusiasts/sdr-image-api/internal/app/storage/mocks"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/github"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	syncmocks "github.com/sdr-enthusiasts/sdr-image-api/internal/sync/mocks"
)

func testConfig(dataDir string) *config.Config {
	return &config.Config{
		GitHub: config.GitHubConfig{
			Organization: "sdr-enthusiasts",
			RegistryHost: "ghcr.io",
		},
		Sync: config.SyncConfig{
			Interval:            "60m",
			IgnoredRepositories: []string{"docker-baseimage"},
		},
		Server:  config.ServerConfig{Address: ":3000"},
		Storage: config.StorageConfig{Type: config.StorageTypeFile, Path: dataDir},
	}
}

func fileFactory(t *testing.T, cfg *config.Config) storage.Factory {
	t.Helper()
	f, err := storage.NewFileFactory(cfg)
	require.NoError(t, err)
	return f
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		addr    string
		wantErr bool
	}{
		{addr: ":8080"},
		{addr: "localhost:3000"},
		{addr: "127.0.0.1:3000"},
		{addr: "", wantErr: true},
		{addr: "8080", wantErr: true},
		{addr: "localhost:", wantErr: true},
		{addr: ":http", wantErr: true},
		{addr: "example.com:80", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			t.Parallel()

			cfg := &imageAppConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	_, err := baseConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config cannot be nil")

	cfg, err := baseConfig(WithConfig(&config.Config{}))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultAddress, cfg.address)
	assert.Equal(t, defaultRequestTimeout, cfg.requestTimeout)

	cfg, err = baseConfig(WithConfig(testConfig(t.TempDir())), WithAddress(":9000"))
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.address)
}

func TestNewImageApp_InjectedManager(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t.TempDir())

	app, err := NewImageApp(context.Background(),
		WithConfig(cfg),
		WithStorageFactory(fileFactory(t, cfg)),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
	)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	assert.Same(t, cfg, app.GetConfig())
	assert.Equal(t, ":3000", app.GetHTTPServer().Addr)
	require.NotNil(t, app.components.SyncCoordinator)
	require.NotNil(t, app.components.ImageService)
}

func TestNewImageApp_CleansUpOnFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t.TempDir())
	cfg.GitHub.PrivateKeyFile = "/nonexistent/key.pem"

	factory := storagemocks.NewMockFactory(ctrl)
	factory.EXPECT().Cleanup().Times(1)

	_, err := NewImageApp(context.Background(),
		WithConfig(cfg),
		WithStorageFactory(factory),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create GitHub client")
}

func TestNewImageApp_ServiceFailure(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	cfg := testConfig(t.TempDir())

	factory := storagemocks.NewMockFactory(ctrl)
	factory.EXPECT().CreateImageService(gomock.Any()).Return(nil, service.ErrStoreUnavailable)
	factory.EXPECT().Cleanup().Times(1)

	_, err := NewImageApp(context.Background(),
		WithConfig(cfg),
		WithStorageFactory(factory),
		WithSyncManager(syncmocks.NewMockManager(ctrl)),
	)
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrStoreUnavailable)
}

// fakeGitHub serves the organization listing, the rate limit probe and
// package versions for a small organization
func fakeGitHub(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rate_limit", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"resources":{"core":{"limit":5000,"remaining":4990,"used":10,"reset":1735689600}}}`)
	})
	mux.HandleFunc("GET /orgs/sdr-enthusiasts/repos", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `[
			{"id":1,"name":"docker-adsb-ultrafeeder"},
			{"id":2,"name":"docker-baseimage"},
			{"id":3,"name":"docs"}
		]`)
	})
	mux.HandleFunc("GET /orgs/sdr-enthusiasts/packages/container/docker-adsb-ultrafeeder/versions",
		func(w http.ResponseWriter, _ *http.Request) {
			_, _ = fmt.Fprint(w, `[
				{"id":10,"name":"sha256:aa","metadata":{"package_type":"container","container":{
					"tags":["latest","latest-build-42","trixie-latest","trixie-latest-build-42"]}}},
				{"id":9,"name":"sha256:bb","metadata":{"package_type":"container","container":{
					"tags":["latest-build-41"]}}}
			]`)
		})
	mux.HandleFunc("GET /orgs/sdr-enthusiasts/packages/container/docs/versions",
		func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"message":"Package not found."}`, http.StatusNotFound)
		})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// A forced cycle through the wired walker, manager and file storage lands in
// the read service.
func TestNewImageApp_SyncPipeline(t *testing.T) {
	t.Parallel()

	srv := fakeGitHub(t)
	client, err := github.NewClient(nil, github.WithBaseURL(srv.URL))
	require.NoError(t, err)

	cfg := testConfig(t.TempDir())
	app, err := NewImageApp(context.Background(),
		WithConfig(cfg),
		WithStorageFactory(fileFactory(t, cfg)),
		WithGitHubClient(client),
	)
	require.NoError(t, err)
	t.Cleanup(app.Close)

	ctx := context.Background()
	result, err := app.RunOnce(ctx)
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Forced)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Ignored)
	assert.Equal(t, 1, result.Empty)

	images, err := app.components.ImageService.ListImages(ctx)
	require.NoError(t, err)
	require.Len(t, images, 1)

	img := images[0]
	assert.Equal(t, "docker-adsb-ultrafeeder", img.Name)
	assert.Equal(t, "latest-build-42", img.PrimaryTag)
	assert.Equal(t, "ghcr.io/sdr-enthusiasts/docker-adsb-ultrafeeder:latest-build-42", img.PrimaryURL)
	assert.Equal(t, "trixie-latest-build-42", img.SecondaryTag)
	assert.Equal(t, "ghcr.io/sdr-enthusiasts/docker-adsb-ultrafeeder:trixie-latest-build-42", img.SecondaryURL)
	assert.True(t, img.Pinned)
	assert.True(t, img.Stable)

	last, err := app.components.ImageService.GetLastUpdated(ctx)
	require.NoError(t, err)
	assert.NotNil(t, last)

	// a second forced cycle finds the record and creates nothing
	result, err = app.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Existing)
}
