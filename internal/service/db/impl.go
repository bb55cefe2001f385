// Package database provides a database-backed implementation of the ImageService interface
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/db/sqlc"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/otel"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
)

// ServiceTracerName is the name used for the database service tracer
const ServiceTracerName = "github.com/sdr-enthusiasts/sdr-image-api/service/db"

type options struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

// Option is a functional option for configuring the database service
type Option func(*options) error

// WithConnectionPool sets the pgx pool. The caller is responsible for
// closing the pool when it is done.
func WithConnectionPool(pool *pgxpool.Pool) Option {
	return func(o *options) error {
		if pool == nil {
			return fmt.Errorf("pgx pool is required")
		}
		o.pool = pool
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the database service.
// If not set, tracing will be disabled (no-op).
func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

type dbService struct {
	pool   *pgxpool.Pool
	tracer trace.Tracer
}

var _ service.ImageService = (*dbService)(nil)

// New creates a new database-backed image service with the given options
func New(opts ...Option) (service.ImageService, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}

	return &dbService{
		pool:   o.pool,
		tracer: o.tracer,
	}, nil
}

// CheckReadiness checks if the service is ready to serve requests
func (s *dbService) CheckReadiness(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: failed to ping database: %w", service.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *dbService) GetLastUpdated(ctx context.Context) (_ *time.Time, err error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "dbService.GetLastUpdated", semconv.DBSystemPostgreSQL)
	defer otel.EndSpan(span, &err)

	lastSync, err := sqlc.New(s.pool).GetLastUpdated(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &lastSync, nil
}

func (s *dbService) ListImages(ctx context.Context, opts ...service.Option) (_ []service.Image, err error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "dbService.ListImages", semconv.DBSystemPostgreSQL)
	defer otel.EndSpan(span, &err)

	options, err := service.NewListImagesOptions(opts...)
	if err != nil {
		return nil, err
	}

	params := sqlc.ListImagesParams{StableOnly: options.StableOnly}
	if options.Name != "" {
		params.Name = &options.Name
		span.SetAttributes(otel.AttrImageName.String(options.Name))
	}
	span.SetAttributes(otel.AttrStableOnly.Bool(options.StableOnly))

	slog.DebugContext(ctx, "ListImages query",
		"name", options.Name,
		"stable_only", options.StableOnly,
		"request_id", middleware.GetReqID(ctx))

	rows, err := sqlc.New(s.pool).ListImages(ctx, params)
	if err != nil {
		return nil, err
	}

	images := make([]service.Image, 0, len(rows))
	for _, row := range rows {
		images = append(images, toImage(row))
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(images)))
	return images, nil
}

func toImage(row sqlc.Image) service.Image {
	return service.Image{
		ID:           row.ID,
		Name:         row.Name,
		PrimaryURL:   row.Url,
		SecondaryURL: row.UrlTrixie,
		PrimaryTag:   row.Tag,
		SecondaryTag: row.TagTrixie,
		ReleaseNotes: row.ReleaseNotes,
		Stable:       row.Stable,
		Pinned:       row.IsPinnedVersion,
		ModifiedAt:   row.ModifiedDate,
		CreatedAt:    row.CreatedDate,
	}
}
