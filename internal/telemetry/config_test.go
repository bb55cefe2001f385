package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/versions"
)

func TestConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	assert.Equal(t, DefaultServiceName, cfg.serviceName())
	assert.Equal(t, versions.Version, cfg.serviceVersion())
	assert.Equal(t, DefaultEndpoint, cfg.endpoint())
	assert.Equal(t, DefaultSampling, (&TracingConfig{}).sampling())
	assert.Equal(t, DefaultMetricsInterval, (&MetricsConfig{}).interval())

	cfg = &Config{ServiceName: "images", ServiceVersion: "1.2.3", Endpoint: "collector:4318"}
	assert.Equal(t, "images", cfg.serviceName())
	assert.Equal(t, "1.2.3", cfg.serviceVersion())
	assert.Equal(t, "collector:4318", cfg.endpoint())
	assert.Equal(t, 0.5, (&TracingConfig{Sampling: 0.5}).sampling())
	assert.Equal(t, 15*time.Second, (&MetricsConfig{Interval: "15s"}).interval())
}

func TestConfig_Switches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name                          string
		cfg                           *Config
		tracing, otlpMetrics, promMet bool
	}{
		{name: "nil", cfg: nil},
		{name: "disabled overrides sections", cfg: &Config{
			Tracing: &TracingConfig{Enabled: true},
			Metrics: &MetricsConfig{Enabled: true, Prometheus: true},
		}},
		{name: "enabled without sections", cfg: &Config{Enabled: true}},
		{name: "tracing only", cfg: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true}}, tracing: true},
		{name: "prometheus only", cfg: &Config{Enabled: true, Metrics: &MetricsConfig{Prometheus: true}}, promMet: true},
		{name: "everything", cfg: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true},
			Metrics: &MetricsConfig{Enabled: true, Prometheus: true},
		}, tracing: true, otlpMetrics: true, promMet: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.tracing, tt.cfg.tracingEnabled())
			assert.Equal(t, tt.otlpMetrics, tt.cfg.otlpMetricsEnabled())
			assert.Equal(t, tt.promMet, tt.cfg.PrometheusEnabled())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr string
	}{
		{name: "nil config", config: nil},
		{name: "disabled ignores invalid values", config: &Config{
			Tracing: &TracingConfig{Enabled: true, Sampling: 5},
			Metrics: &MetricsConfig{Interval: "soon"},
		}},
		{name: "valid", config: &Config{
			Enabled: true,
			Tracing: &TracingConfig{Enabled: true, Sampling: 1},
			Metrics: &MetricsConfig{Enabled: true, Interval: "30s"},
		}},
		{name: "sampling above one", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: "tracing.sampling"},
		{name: "negative sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: -0.1}},
			wantErr: "tracing.sampling"},
		{name: "tracing disabled ignores sampling", config: &Config{Enabled: true, Tracing: &TracingConfig{Sampling: 3}}},
		{name: "bad interval", config: &Config{Enabled: true, Metrics: &MetricsConfig{Interval: "soon"}},
			wantErr: "metrics.interval"},
		{name: "zero interval", config: &Config{Enabled: true, Metrics: &MetricsConfig{Interval: "0s"}},
			wantErr: "metrics.interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if tt.wantErr != "" {
				assert.ErrorContains(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
