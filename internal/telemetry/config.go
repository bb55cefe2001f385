// Package telemetry wires OpenTelemetry for the image API: OTLP traces, OTLP
// and Prometheus metrics, the HTTP instrumentation middleware and the
// domain instruments of the sync pipeline and the read API.
package telemetry

import (
	"errors"
	"fmt"
	"time"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/versions"
)

const (
	// DefaultServiceName is the service.name resource attribute when none is configured
	DefaultServiceName = "sdr-image-api"

	// DefaultEndpoint is the OTLP HTTP collector endpoint
	DefaultEndpoint = "localhost:4318"

	// DefaultSampling is the trace sampling ratio
	DefaultSampling = 0.05

	// DefaultMetricsInterval is the OTLP metrics push interval
	DefaultMetricsInterval = 60 * time.Second
)

// Config is the telemetry section of the configuration file
type Config struct {
	Enabled bool `yaml:"enabled"`

	ServiceName string `yaml:"serviceName,omitempty"`

	// ServiceVersion defaults to the build version of the binary
	ServiceVersion string `yaml:"serviceVersion,omitempty"`

	// Endpoint is the OTLP collector in "host:port" form
	Endpoint string `yaml:"endpoint,omitempty"`

	// Insecure sends OTLP over plain HTTP
	Insecure bool `yaml:"insecure,omitempty"`

	// Headers are added to every OTLP export request (e.g. an API key)
	Headers map[string]string `yaml:"headers,omitempty"`

	Tracing *TracingConfig `yaml:"tracing,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// TracingConfig controls trace export
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`

	// Sampling is the ratio of traces kept, 0.0 to 1.0
	Sampling float64 `yaml:"sampling,omitempty"`
}

// MetricsConfig controls metric export
type MetricsConfig struct {
	// Enabled pushes metrics to the OTLP endpoint
	Enabled bool `yaml:"enabled"`

	// Interval between OTLP pushes (e.g. "30s")
	Interval string `yaml:"interval,omitempty"`

	// Prometheus serves metrics for scraping on /metrics
	Prometheus bool `yaml:"prometheus,omitempty"`
}

func (c *Config) serviceName() string {
	if c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

func (c *Config) serviceVersion() string {
	if c.ServiceVersion == "" {
		return versions.Version
	}
	return c.ServiceVersion
}

func (c *Config) endpoint() string {
	if c.Endpoint == "" {
		return DefaultEndpoint
	}
	return c.Endpoint
}

func (c *Config) enabled() bool {
	return c != nil && c.Enabled
}

func (c *Config) tracingEnabled() bool {
	return c.enabled() && c.Tracing != nil && c.Tracing.Enabled
}

func (c *Config) otlpMetricsEnabled() bool {
	return c.enabled() && c.Metrics != nil && c.Metrics.Enabled
}

// PrometheusEnabled reports whether the scrape endpoint should be served
func (c *Config) PrometheusEnabled() bool {
	return c.enabled() && c.Metrics != nil && c.Metrics.Prometheus
}

func (c *TracingConfig) sampling() float64 {
	if c.Sampling == 0 {
		return DefaultSampling
	}
	return c.Sampling
}

func (c *MetricsConfig) interval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return DefaultMetricsInterval
	}
	return d
}

// Validate checks the sections that are enabled. A nil or disabled config is valid.
func (c *Config) Validate() error {
	if !c.enabled() {
		return nil
	}

	var errs []error
	if c.tracingEnabled() && (c.Tracing.Sampling < 0 || c.Tracing.Sampling > 1) {
		errs = append(errs, fmt.Errorf("tracing.sampling must be between 0.0 and 1.0, got %g", c.Tracing.Sampling))
	}
	if c.Metrics != nil && c.Metrics.Interval != "" {
		if d, err := time.ParseDuration(c.Metrics.Interval); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("metrics.interval must be a positive duration, got %q", c.Metrics.Interval))
		}
	}
	return errors.Join(errs...)
}
