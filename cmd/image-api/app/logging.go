package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// Levels between debug and info for the "http" and "verbose" names
const (
	LevelHTTP    = slog.LevelDebug + 2
	LevelVerbose = slog.LevelDebug + 1
)

// Log output formats
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// levelNames is ordered by severity; the index is the numeric form of the level
var levelNames = []string{"error", "warn", "info", "http", "verbose", "debug", "silly"}

var levelsByName = map[string]slog.Level{
	"error":   slog.LevelError,
	"warn":    slog.LevelWarn,
	"info":    slog.LevelInfo,
	"http":    LevelHTTP,
	"verbose": LevelVerbose,
	"debug":   slog.LevelDebug,
	"silly":   slog.LevelDebug,
}

// ParseLogLevel accepts a level name or its numeric form 0-6.
// An empty value is info.
func ParseLogLevel(value string) (slog.Level, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return slog.LevelInfo, nil
	}

	if n, err := strconv.Atoi(name); err == nil {
		if n < 0 || n >= len(levelNames) {
			return slog.LevelInfo, fmt.Errorf("log level %d is out of range 0-%d", n, len(levelNames)-1)
		}
		name = levelNames[n]
	}

	level, ok := levelsByName[name]
	if !ok {
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: %s)", value, strings.Join(levelNames, ", "))
	}
	return level, nil
}

// levelLabel prints the in-between levels by name instead of DEBUG+n
func levelLabel(_ []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey {
		return a
	}
	level, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	switch level {
	case LevelHTTP:
		a.Value = slog.StringValue("HTTP")
	case LevelVerbose:
		a.Value = slog.StringValue("VERBOSE")
	}
	return a
}

// newLogHandler builds the process handler. Unknown formats fall back to JSON.
func newLogHandler(w io.Writer, level slog.Leveler, format string) slog.Handler {
	opts := &slog.HandlerOptions{Level: level, ReplaceAttr: levelLabel}

	var h slog.Handler
	if strings.EqualFold(format, LogFormatText) {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return &traceHandler{Handler: h}
}

// traceHandler wraps an slog.Handler to inject the OpenTelemetry trace_id
// and span_id of the active span into every record
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}

// ConfigureLogging installs the default logger. The level comes from
// --log-level or IMAGE_API_LOG_LEVEL, then LOG_LEVEL; the format from
// --log-format or IMAGE_API_LOG_FORMAT. Logs go to stderr so stdout stays
// clean for command output.
func ConfigureLogging(v *viper.Viper) {
	configureLogging(v, os.Stderr, os.Getenv)
}

func configureLogging(v *viper.Viper, w io.Writer, getenv func(string) string) {
	levelStr := v.GetString("log_level")
	if levelStr == "" {
		levelStr = getenv("LOG_LEVEL")
	}

	level, levelErr := ParseLogLevel(levelStr)
	slog.SetDefault(slog.New(newLogHandler(w, level, v.GetString("log_format"))))

	if levelErr != nil {
		slog.Error("Invalid log level, using info", "value", levelStr, "error", levelErr)
	}
}
