package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

type instrumented struct {
	router  *chi.Mux
	spans   *tracetest.InMemoryExporter
	metrics *sdkmetric.ManualReader
}

func newInstrumentedRouter(t *testing.T) *instrumented {
	t.Helper()

	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		_ = mp.Shutdown(context.Background())
	})

	mw, err := HTTPMiddleware(tp, mp)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/api/v1/images/byname/{name}/recommended", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return &instrumented{router: r, spans: spans, metrics: reader}
}

func (i *instrumented) get(path string) {
	i.router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
}

// requestCounts returns the request counter by route and status code
func (i *instrumented) requestCounts(t *testing.T) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, i.metrics.Collect(context.Background(), &rm))

	counts := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != HTTPInstrumentationName {
			continue
		}
		for _, m := range scope.Metrics {
			if m.Name != "sdr_image_api_http_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				route, _ := dp.Attributes.Value(attribute.Key("route"))
				status, _ := dp.Attributes.Value(attribute.Key("status_code"))
				counts[route.AsString()+" "+status.AsString()] += dp.Value
			}
		}
	}
	return counts
}

func TestHTTPMiddleware_PassThrough(t *testing.T) {
	t.Parallel()

	mw, err := HTTPMiddleware(nil, nil)
	require.NoError(t, err)

	wrapped := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rr := httptest.NewRecorder()
	wrapped.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rr.Code)
}

func TestHTTPMiddleware_RoutePatterns(t *testing.T) {
	t.Parallel()

	inst := newInstrumentedRouter(t)
	inst.get("/api/v1/images/byname/docker-readsb/recommended")
	inst.get("/api/v1/images/byname/acarshub/recommended")
	inst.get("/wp-login.php")

	assert.Equal(t, map[string]int64{
		"/api/v1/images/byname/{name}/recommended 200": 2,
		unroutedPattern + " 404":                       1,
	}, inst.requestCounts(t))

	spans := inst.spans.GetSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, "GET /api/v1/images/byname/{name}/recommended", spans[0].Name)
	assert.Equal(t, "GET "+unroutedPattern, spans[2].Name)
}

func TestHTTPMiddleware_ServerErrorMarksSpan(t *testing.T) {
	t.Parallel()

	inst := newInstrumentedRouter(t)
	inst.get("/readiness")

	spans := inst.spans.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, map[string]int64{"/readiness 503": 1}, inst.requestCounts(t))
}

func TestHTTPMiddleware_TracingOnly(t *testing.T) {
	t.Parallel()

	spans := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(spans))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	mw, err := HTTPMiddleware(tp, nil)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	got := spans.GetSpans()
	require.Len(t, got, 1)
	assert.Equal(t, "GET /health", got[0].Name)
	assert.Equal(t, trace.SpanKindServer, got[0].SpanKind)
	assert.Contains(t, got[0].Attributes, semconv.HTTPResponseStatusCode(http.StatusOK))
}
