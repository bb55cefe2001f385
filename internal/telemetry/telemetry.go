package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the process tracer and meter providers
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler

	shutdowns []func(context.Context) error
}

// Option configures New
type Option func(*options)

type options struct {
	config   *Config
	registry *prometheus.Registry
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithPrometheusRegistry registers the Prometheus exporter with reg instead
// of the default registry
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New builds the providers the configuration enables and installs them as
// the OpenTelemetry globals. Disabled parts are no-op providers. Call
// Shutdown before the process exits.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	cfg := o.config
	if !cfg.enabled() {
		slog.Debug("Telemetry disabled")
		return t, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if cfg.tracingEnabled() {
		tp, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, err
		}
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)

		otel.SetTracerProvider(tp)
		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
		slog.Info("Tracing enabled", "endpoint", cfg.endpoint(), "sampling", cfg.Tracing.sampling())
	}

	if cfg.otlpMetricsEnabled() || cfg.PrometheusEnabled() {
		var reg prometheus.Registerer = prometheus.DefaultRegisterer
		if o.registry != nil {
			reg = o.registry
		}

		mp, err := newMeterProvider(ctx, cfg, res, reg)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, err
		}
		t.meterProvider = mp
		t.shutdowns = append(t.shutdowns, mp.Shutdown)

		if cfg.PrometheusEnabled() {
			t.metricsHandler = promhttp.Handler()
			if o.registry != nil {
				t.metricsHandler = promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{})
			}
		}

		otel.SetMeterProvider(mp)
		slog.Info("Metrics enabled", "otlp", cfg.otlpMetricsEnabled(), "prometheus", cfg.PrometheusEnabled())
	}

	if cfg.Insecure {
		slog.Warn("OTLP export uses plain HTTP")
	}
	slog.Info("Telemetry initialized", "service_name", cfg.serviceName(), "service_version", cfg.serviceVersion())
	return t, nil
}

// TracerProvider returns the tracer provider, never nil
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the meter provider, never nil
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, nil unless enabled
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Shutdown flushes and stops the providers, last started first
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for _, shutdown := range slices.Backward(t.shutdowns) {
		if err := shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	t.shutdowns = nil

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to shut down telemetry: %w", err)
	}
	return nil
}
