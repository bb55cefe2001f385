package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader, scopeName string) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	found := map[string]metricdata.Metrics{}
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != scopeName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m
		}
	}
	return found
}

func TestNewImageMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewImageMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *ImageMetrics
		metrics.RecordImagesServed(context.Background(), "all", 3)
	})

	t.Run("records served images by query", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewImageMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)

		metrics.RecordImagesServed(context.Background(), "recommended", 2)
		metrics.RecordImagesServed(context.Background(), "recommended", 3)

		found := collect(t, reader, ImageMetricsMeterName)
		m, ok := found["sdr_image_api_images_served_total"]
		require.True(t, ok)

		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, sum.DataPoints, 1)
		assert.Equal(t, int64(5), sum.DataPoints[0].Value)
	})
}

func TestNewSyncMetrics(t *testing.T) {
	t.Parallel()

	t.Run("returns nil when provider is nil", func(t *testing.T) {
		t.Parallel()

		metrics, err := NewSyncMetrics(nil)
		require.NoError(t, err)
		assert.Nil(t, metrics)
	})

	t.Run("creates metrics with SDK provider", func(t *testing.T) {
		t.Parallel()

		mp := sdkmetric.NewMeterProvider()
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewSyncMetrics(mp)
		require.NoError(t, err)
		require.NotNil(t, metrics)
		assert.NotNil(t, metrics.cycleDuration)
		assert.NotNil(t, metrics.imagesCreated)
		assert.NotNil(t, metrics.upstreamRequests)
		assert.NotNil(t, metrics.rateLimitRemaining)
	})
}

func TestSyncMetrics_Record(t *testing.T) {
	t.Parallel()

	t.Run("no-op when metrics is nil", func(t *testing.T) {
		t.Parallel()

		var metrics *SyncMetrics
		ctx := context.Background()
		metrics.RecordCycleDuration(ctx, time.Second, OutcomeCompleted)
		metrics.RecordImagesCreated(ctx, 1)
		metrics.RecordUpstreamRequest(ctx, "versions", true)
		metrics.RecordRateLimitRemaining(ctx, 10)
	})

	t.Run("records every instrument", func(t *testing.T) {
		t.Parallel()

		reader := sdkmetric.NewManualReader()
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
		defer func() { _ = mp.Shutdown(context.Background()) }()

		metrics, err := NewSyncMetrics(mp)
		require.NoError(t, err)

		ctx := context.Background()
		metrics.RecordCycleDuration(ctx, 2500*time.Millisecond, OutcomeCompleted)
		metrics.RecordCycleDuration(ctx, 0, OutcomeSkipped)
		metrics.RecordImagesCreated(ctx, 4)
		metrics.RecordImagesCreated(ctx, 0)
		metrics.RecordUpstreamRequest(ctx, "versions", true)
		metrics.RecordUpstreamRequest(ctx, "versions", false)
		metrics.RecordRateLimitRemaining(ctx, 4321)

		found := collect(t, reader, SyncMetricsMeterName)

		hist, ok := found["sdr_image_api_sync_duration_seconds"].Data.(metricdata.Histogram[float64])
		require.True(t, ok)
		assert.Len(t, hist.DataPoints, 2)

		created, ok := found["sdr_image_api_sync_images_created_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		require.Len(t, created.DataPoints, 1)
		assert.Equal(t, int64(4), created.DataPoints[0].Value)

		requests, ok := found["sdr_image_api_upstream_requests_total"].Data.(metricdata.Sum[int64])
		require.True(t, ok)
		assert.Len(t, requests.DataPoints, 2)

		gauge, ok := found["sdr_image_api_upstream_rate_limit_remaining"].Data.(metricdata.Gauge[int64])
		require.True(t, ok)
		require.Len(t, gauge.DataPoints, 1)
		assert.Equal(t, int64(4321), gauge.DataPoints[0].Value)
	})
}
