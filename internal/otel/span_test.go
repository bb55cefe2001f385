package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func recorder(t *testing.T) (*tracetest.InMemoryExporter, trace.Tracer) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp.Tracer("otel-test")
}

func TestStartSpan(t *testing.T) {
	t.Parallel()

	t.Run("nil tracer reuses context span", func(t *testing.T) {
		t.Parallel()

		ctx, span := StartSpan(context.Background(), nil, "walk", AttrRepository.String("docker-readsb"))
		require.NotNil(t, ctx)
		assert.False(t, span.SpanContext().IsValid())
		assert.NotPanics(t, func() { span.End() })
	})

	t.Run("records name and attributes", func(t *testing.T) {
		t.Parallel()

		exporter, tracer := recorder(t)
		_, span := StartSpan(context.Background(), tracer, "sources.FetchTags",
			AttrRepository.String("docker-readsb"),
			AttrPageCount.Int(2),
		)
		assert.True(t, span.SpanContext().IsValid())
		span.End()

		spans := exporter.GetSpans()
		require.Len(t, spans, 1)
		assert.Equal(t, "sources.FetchTags", spans[0].Name)
		assert.Contains(t, spans[0].Attributes, AttrRepository.String("docker-readsb"))
		assert.Contains(t, spans[0].Attributes, AttrPageCount.Int(2))
	})
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("boom")) })

	exporter, tracer := recorder(t)

	_, ok := tracer.Start(context.Background(), "ok")
	RecordError(ok, nil)
	ok.End()

	_, failed := tracer.Start(context.Background(), "failed")
	RecordError(failed, errors.New("dial tcp 10.0.0.1:5432: connection refused"))
	failed.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Empty(t, spans[0].Events)

	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, failedStatus, spans[1].Status.Description)
	require.Len(t, spans[1].Events, 1)
	assert.Equal(t, "exception", spans[1].Events[0].Name)
}

func TestEndSpan(t *testing.T) {
	t.Parallel()

	exporter, tracer := recorder(t)

	op := func(fail bool) (err error) {
		_, span := StartSpan(context.Background(), tracer, "op")
		defer EndSpan(span, &err)
		if fail {
			return errors.New("query failed")
		}
		return nil
	}

	require.NoError(t, op(false))
	require.Error(t, op(true))
	assert.NotPanics(t, func() { EndSpan(nil, nil) })

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, codes.Unset, spans[0].Status.Code)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
}
