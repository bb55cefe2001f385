package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/api"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/app/storage"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/github"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	dbservice "github.com/sdr-enthusiasts/sdr-image-api/internal/service/db"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sources"
	pkgsync "github.com/sdr-enthusiasts/sdr-image-api/internal/sync"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/coordinator"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// ImageAppOptions is a function that configures the image app builder
type ImageAppOptions func(*imageAppConfig) error

// imageAppConfig collects everything NewImageApp needs. Injected components
// replace the ones built from config, which is how tests stay offline.
type imageAppConfig struct {
	config *config.Config

	storageFactory storage.Factory
	githubClient   github.Client
	syncManager    pkgsync.Manager

	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
	metricsHandler http.Handler
}

func baseConfig(opts ...ImageAppOptions) (*imageAppConfig, error) {
	cfg := &imageAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.Address
	}
	if cfg.address == "" {
		cfg.address = config.DefaultAddress
	}

	return cfg, nil
}

// NewImageApp wires storage, the GitHub client, the sync coordinator and the
// HTTP server from the configuration
func NewImageApp(ctx context.Context, opts ...ImageAppOptions) (*ImageApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.storageFactory == nil {
		var factoryOpts []storage.DatabaseFactoryOption
		if cfg.tracerProvider != nil {
			factoryOpts = append(factoryOpts,
				storage.WithTracer(cfg.tracerProvider.Tracer(dbservice.ServiceTracerName)))
		}
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config, factoryOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	cleanupNeeded := true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
		}
	}()

	syncCoordinator, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	imageService, err := buildServiceComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(ctx, cfg, imageService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)
	cleanupNeeded = false

	factory := cfg.storageFactory
	return &ImageApp{
		config: cfg.config,
		components: &AppComponents{
			SyncCoordinator: syncCoordinator,
			ImageService:    imageService,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: func() {
			cancel()
			factory.Cleanup()
		},
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding server.address
func WithAddress(addr string) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		switch host {
		case "localhost":
			host = "127.0.0.1"
		case "":
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares replaces the default HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory injects a storage factory
func WithStorageFactory(f storage.Factory) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithGitHubClient injects an authorized GitHub client, skipping the App handshake
func WithGitHubClient(client github.Client) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		cfg.githubClient = client
		return nil
	}
}

// WithSyncManager injects a sync manager
func WithSyncManager(sm pkgsync.Manager) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithTelemetry uses the providers and Prometheus handler of t
func WithTelemetry(t *telemetry.Telemetry) ImageAppOptions {
	return func(cfg *imageAppConfig) error {
		if t == nil {
			return nil
		}
		cfg.meterProvider = t.MeterProvider()
		cfg.tracerProvider = t.TracerProvider()
		cfg.metricsHandler = t.MetricsHandler()
		return nil
	}
}

// buildGitHubClient performs the GitHub App installation handshake
func buildGitHubClient(ctx context.Context, cfg *config.GitHubConfig) (github.Client, error) {
	key, err := github.LoadPrivateKey(cfg.PrivateKeyFile)
	if err != nil {
		return nil, err
	}

	client, err := github.NewAppClient(ctx,
		github.AppCredentials{
			AppID:          cfg.AppID,
			InstallationID: cfg.InstallationID,
			PrivateKey:     key,
		},
		github.WithBaseURL(cfg.APIURL),
		github.WithAPIVersion(cfg.APIVersion),
		github.WithTimeout(cfg.GetTimeout()),
	)
	if err != nil {
		return nil, err
	}

	slog.Info("GitHub App authentication succeeded",
		"app_id", cfg.AppID,
		"installation_id", cfg.InstallationID,
	)
	return client, nil
}

// buildSyncComponents builds the walker, sync manager and coordinator
func buildSyncComponents(ctx context.Context, b *imageAppConfig) (coordinator.Coordinator, error) {
	slog.Info("Initializing sync components")

	interval := b.config.Sync.GetInterval()

	if b.syncManager == nil {
		if b.githubClient == nil {
			client, err := buildGitHubClient(ctx, &b.config.GitHub)
			if err != nil {
				return nil, fmt.Errorf("failed to create GitHub client: %w", err)
			}
			b.githubClient = client
		}

		stateService, err := b.storageFactory.CreateStateService(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create state service: %w", err)
		}
		syncWriter, err := b.storageFactory.CreateSyncWriter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync writer: %w", err)
		}

		var (
			walkerOpts  []sources.WalkerOption
			managerOpts = []pkgsync.Option{
				pkgsync.WithOrganization(b.config.GitHub.Organization),
				pkgsync.WithRegistryHost(b.config.GitHub.RegistryHost),
				pkgsync.WithInterval(interval),
				pkgsync.WithIgnoredRepositories(b.config.Sync.IgnoredRepositories),
			}
		)

		if b.meterProvider != nil {
			syncMetrics, err := telemetry.NewSyncMetrics(b.meterProvider)
			if err != nil {
				return nil, fmt.Errorf("failed to create sync metrics: %w", err)
			}
			walkerOpts = append(walkerOpts, sources.WithSyncMetrics(syncMetrics))
			managerOpts = append(managerOpts, pkgsync.WithSyncMetrics(syncMetrics))
			slog.Info("Sync metrics enabled")
		}
		if b.tracerProvider != nil {
			walkerOpts = append(walkerOpts, sources.WithTracer(b.tracerProvider.Tracer(sources.TracerName)))
			managerOpts = append(managerOpts, pkgsync.WithTracer(b.tracerProvider.Tracer(pkgsync.TracerName)))
		}

		walker := sources.NewWalker(b.githubClient, walkerOpts...)
		b.syncManager = pkgsync.NewManager(b.githubClient, walker, stateService, syncWriter, managerOpts...)
	}

	syncCoordinator := coordinator.New(b.syncManager,
		coordinator.WithForceOnStartup(b.config.Sync.ShouldForceOnStartup()),
		coordinator.WithFallbackInterval(interval),
	)
	slog.Info("Sync components initialized successfully",
		"organization", b.config.GitHub.Organization,
		"interval", interval,
	)

	return syncCoordinator, nil
}

// buildServiceComponents builds the read service
func buildServiceComponents(ctx context.Context, b *imageAppConfig) (service.ImageService, error) {
	slog.Info("Initializing service components")

	svc, err := b.storageFactory.CreateImageService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create image service: %w", err)
	}

	slog.Info("Service components initialized successfully")
	return svc, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
//
//nolint:unparam // we prefer having a similar interface
func buildHTTPServer(
	_ context.Context,
	b *imageAppConfig,
	svc service.ImageService,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMetricsHandler(b.metricsHandler),
	}

	// instrumentation goes first to see every request
	if b.tracerProvider != nil || b.meterProvider != nil {
		instrumentation, err := telemetry.HTTPMiddleware(b.tracerProvider, b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create HTTP instrumentation: %w", err)
		}
		b.middlewares = append([]func(http.Handler) http.Handler{instrumentation}, b.middlewares...)
	}

	if b.meterProvider != nil {
		imageMetrics, err := telemetry.NewImageMetrics(b.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("failed to create image metrics: %w", err)
		}
		serverOpts = append(serverOpts, api.WithImageMetrics(imageMetrics))
	}

	serverOpts = append(serverOpts, api.WithMiddlewares(b.middlewares...))
	router := api.NewServer(svc, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
