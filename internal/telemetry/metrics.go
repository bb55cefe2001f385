// Package telemetry provides OpenTelemetry instrumentation for the image API.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// ImageMetricsMeterName is the name used for the stored image metrics meter
	ImageMetricsMeterName = "github.com/sdr-enthusiasts/sdr-image-api/images"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/sdr-enthusiasts/sdr-image-api/sync"
)

// Sync cycle outcomes recorded on the cycle duration histogram
const (
	OutcomeCompleted = "completed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// ImageMetrics holds the OpenTelemetry instruments for served image metrics
type ImageMetrics struct {
	imagesServed metric.Int64Counter
}

// NewImageMetrics creates a new ImageMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewImageMetrics(provider metric.MeterProvider) (*ImageMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ImageMetricsMeterName)

	imagesServed, err := meter.Int64Counter(
		"sdr_image_api_images_served_total",
		metric.WithDescription("Number of image records returned by the read API"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	return &ImageMetrics{
		imagesServed: imagesServed,
	}, nil
}

// RecordImagesServed records image records returned for a query kind
func (m *ImageMetrics) RecordImagesServed(ctx context.Context, query string, count int) {
	if m == nil || m.imagesServed == nil {
		return
	}

	m.imagesServed.Add(ctx, int64(count), metric.WithAttributes(attribute.String("query", query)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync operation metrics
type SyncMetrics struct {
	cycleDuration      metric.Float64Histogram
	imagesCreated      metric.Int64Counter
	upstreamRequests   metric.Int64Counter
	rateLimitRemaining metric.Int64Gauge
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"sdr_image_api_sync_duration_seconds",
		metric.WithDescription("Duration of sync cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	imagesCreated, err := meter.Int64Counter(
		"sdr_image_api_sync_images_created_total",
		metric.WithDescription("Number of image records created by sync cycles"),
		metric.WithUnit("{image}"),
	)
	if err != nil {
		return nil, err
	}

	upstreamRequests, err := meter.Int64Counter(
		"sdr_image_api_upstream_requests_total",
		metric.WithDescription("Number of requests issued to the GitHub API"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	rateLimitRemaining, err := meter.Int64Gauge(
		"sdr_image_api_upstream_rate_limit_remaining",
		metric.WithDescription("Remaining GitHub API core quota observed by the last rate limit probe"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycleDuration:      cycleDuration,
		imagesCreated:      imagesCreated,
		upstreamRequests:   upstreamRequests,
		rateLimitRemaining: rateLimitRemaining,
	}, nil
}

// RecordCycleDuration records the duration of a sync cycle with its outcome
func (m *SyncMetrics) RecordCycleDuration(ctx context.Context, duration time.Duration, outcome string) {
	if m == nil || m.cycleDuration == nil {
		return
	}

	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("outcome", outcome)))
}

// RecordImagesCreated records image records created during a cycle
func (m *SyncMetrics) RecordImagesCreated(ctx context.Context, count int) {
	if m == nil || m.imagesCreated == nil || count == 0 {
		return
	}

	m.imagesCreated.Add(ctx, int64(count))
}

// RecordUpstreamRequest records one GitHub API request for an endpoint kind
func (m *SyncMetrics) RecordUpstreamRequest(ctx context.Context, endpoint string, success bool) {
	if m == nil || m.upstreamRequests == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("endpoint", endpoint),
		attribute.Bool("success", success),
	}

	m.upstreamRequests.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordRateLimitRemaining records the remaining API quota
func (m *SyncMetrics) RecordRateLimitRemaining(ctx context.Context, remaining int64) {
	if m == nil || m.rateLimitRemaining == nil {
		return
	}

	m.rateLimitRemaining.Record(ctx, remaining)
}
