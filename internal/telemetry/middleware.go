package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	// HTTPInstrumentationName names the HTTP tracer and meter
	HTTPInstrumentationName = "github.com/sdr-enthusiasts/sdr-image-api/http"

	// unroutedPattern replaces the path of requests no route matched, so
	// scanners cannot blow up label cardinality
	unroutedPattern = "unrouted"
)

// httpInstruments traces and measures requests. Either half may be unset.
type httpInstruments struct {
	tracer   trace.Tracer
	duration metric.Float64Histogram
	requests metric.Int64Counter
}

// HTTPMiddleware returns a middleware that starts a server span per request
// (continuing W3C trace context from the headers) and records the request
// count and duration per route pattern. A nil provider disables its half;
// with both nil the middleware is a pass-through.
func HTTPMiddleware(tp trace.TracerProvider, mp metric.MeterProvider) (func(http.Handler) http.Handler, error) {
	inst := &httpInstruments{}

	if tp != nil {
		inst.tracer = tp.Tracer(HTTPInstrumentationName)
	}

	if mp != nil {
		meter := mp.Meter(HTTPInstrumentationName)

		var err error
		inst.duration, err = meter.Float64Histogram(
			"sdr_image_api_http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
			metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
		)
		if err != nil {
			return nil, err
		}
		inst.requests, err = meter.Int64Counter(
			"sdr_image_api_http_requests_total",
			metric.WithDescription("Total number of HTTP requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			return nil, err
		}
	}

	if inst.tracer == nil && inst.requests == nil {
		return func(next http.Handler) http.Handler { return next }, nil
	}
	return inst.wrap, nil
}

func (inst *httpInstruments) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()

		var span trace.Span
		if inst.tracer != nil {
			ctx = otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(r.Header))
			ctx, span = inst.tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
				),
			)
			defer span.End()
		}

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(ctx))

		// chi fills in the pattern while routing, so it is only known now
		route := routePattern(r)
		status := ww.Status()

		if span != nil {
			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				semconv.HTTPRouteKey.String(route),
				semconv.HTTPResponseStatusCode(status),
			)
			if status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(status))
			}
		}

		if inst.requests != nil {
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
				attribute.String("status_code", strconv.Itoa(status)),
			)
			inst.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			inst.requests.Add(ctx, 1, attrs)
		}
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return unroutedPattern
}
