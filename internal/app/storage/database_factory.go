package storage

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdr-enthusiasts/sdr-image-api/database"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/config"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	dbservice "github.com/sdr-enthusiasts/sdr-image-api/internal/service/db"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/state"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/writer"
)

// DatabaseFactory creates PostgreSQL-backed components sharing one pool
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
	tracer trace.Tracer

	migrate func(connString string) (uint, error)
}

var _ Factory = (*DatabaseFactory)(nil)

// DatabaseFactoryOption is a functional option for configuring the DatabaseFactory
type DatabaseFactoryOption func(*DatabaseFactory)

// WithTracer sets the tracer of the database image service.
// Tracing is disabled when unset.
func WithTracer(tracer trace.Tracer) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.tracer = tracer
	}
}

// WithPool uses an existing pool instead of building one from the configuration
func WithPool(pool *pgxpool.Pool) DatabaseFactoryOption {
	return func(f *DatabaseFactory) {
		f.pool = pool
	}
}

// NewDatabaseFactory connects to the configured database, applying pending
// migrations first when database.migrateOnStart is set
func NewDatabaseFactory(ctx context.Context, cfg *config.Config, opts ...DatabaseFactoryOption) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required for database storage type")
	}

	factory := &DatabaseFactory{
		config:  cfg,
		migrate: database.MigrateUp,
	}
	for _, opt := range opts {
		opt(factory)
	}

	slog.Info("Creating database-backed storage factory")

	if factory.pool != nil {
		return factory, nil
	}

	connStr, err := cfg.Database.GetConnectionString()
	if err != nil {
		return nil, fmt.Errorf("failed to build database connection string: %w", err)
	}

	if cfg.Database.MigrateOnStart {
		version, err := factory.migrate(connStr)
		if err != nil {
			return nil, fmt.Errorf("failed to apply migrations: %w", err)
		}
		slog.Info("Database migrations applied", "version", version)
	}

	pool, err := buildDatabaseConnectionPool(ctx, cfg.Database, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	factory.pool = pool

	return factory, nil
}

// CreateStateService creates a database-backed state service
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.SyncStateService, error) {
	slog.Debug("Creating database-backed state service")
	return state.NewStateService(d.config, nil, d.pool)
}

// CreateSyncWriter creates a database-backed sync writer
func (d *DatabaseFactory) CreateSyncWriter(_ context.Context) (writer.SyncWriter, error) {
	slog.Debug("Creating database-backed sync writer")
	return writer.NewSyncWriter(d.config, nil, d.pool)
}

// CreateImageService creates a database-backed image service
func (d *DatabaseFactory) CreateImageService(_ context.Context) (service.ImageService, error) {
	slog.Debug("Creating database-backed image service")

	opts := []dbservice.Option{
		dbservice.WithConnectionPool(d.pool),
	}
	if d.tracer != nil {
		opts = append(opts, dbservice.WithTracer(d.tracer))
		slog.Debug("Database service tracing enabled")
	}

	return dbservice.New(opts...)
}

// Cleanup closes the connection pool
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}

func buildDatabaseConnectionPool(ctx context.Context, cfg *config.DatabaseConfig, connStr string) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if lifetime := cfg.GetConnMaxLifetime(); lifetime > 0 {
		poolConfig.MaxConnLifetime = lifetime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	slog.Info("Database connection pool created",
		"host", cfg.Host,
		"database", cfg.Database,
		"max_conns", poolConfig.MaxConns,
	)
	return pool, nil
}
