package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/trace"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/github"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/otel"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/tags"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/telemetry"
)

// TracerName is the name used for walker spans
const TracerName = "github.com/sdr-enthusiasts/sdr-image-api/sources"

//go:generate mockgen -destination=mocks/mock_tag_source.go -package=mocks -source=walker.go TagSource

// TagSource retrieves the tags of the current release of a container package
type TagSource interface {
	// FetchTags never fails: transport errors are logged and yield whatever
	// tags were accumulated before the failure
	FetchTags(ctx context.Context, path string) []string
}

// VersionsPath returns the container package versions listing path
func VersionsPath(org, name string) string {
	return fmt.Sprintf("/orgs/%s/packages/container/%s/versions", url.PathEscape(org), url.PathEscape(name))
}

// WalkerOption configures a Walker
type WalkerOption func(*Walker)

// WithTracer sets the tracer used for walk spans
func WithTracer(tracer trace.Tracer) WalkerOption {
	return func(w *Walker) {
		w.tracer = tracer
	}
}

// WithSyncMetrics sets the metrics recorder for upstream requests
func WithSyncMetrics(m *telemetry.SyncMetrics) WalkerOption {
	return func(w *Walker) {
		w.metrics = m
	}
}

// Walker pages through a container versions listing
type Walker struct {
	client  github.Client
	tracer  trace.Tracer
	metrics *telemetry.SyncMetrics
}

// NewWalker creates a Walker issuing requests through client
func NewWalker(client github.Client, opts ...WalkerOption) *Walker {
	w := &Walker{client: client}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// FetchTags returns the tags of every version on the first non-empty page
// that carries a "latest" or "trixie-latest" tag. A continuation link is only
// followed while pages come back empty.
func (w *Walker) FetchTags(ctx context.Context, path string) []string {
	ctx, span := otel.StartSpan(ctx, w.tracer, "sources.FetchTags", otel.AttrRepository.String(path))
	defer span.End()

	var (
		found []string
		pages int
	)
	query := url.Values{"per_page": []string{strconv.Itoa(github.PageSize)}}

	for current := path; ; {
		pages++
		resp, err := w.client.Do(ctx, &github.Request{Path: current, Query: query})
		w.metrics.RecordUpstreamRequest(ctx, "package_versions", err == nil)
		if err != nil {
			if github.IsNotFound(err) {
				slog.InfoContext(ctx, "No packages for path", "path", current)
			} else {
				slog.WarnContext(ctx, "Failed to fetch package versions", "path", current, "error", err)
				otel.RecordError(span, err)
			}
			break
		}

		page, err := DecodeVersionPage(resp.Data)
		if err != nil {
			slog.WarnContext(ctx, "Failed to decode package versions", "path", current, "error", err)
			otel.RecordError(span, err)
			break
		}
		span.SetAttributes(otel.AttrPageKind.String(page.Kind.String()))

		found = append(found, page.ReleaseTags(tags.DefaultPrimaryTag, tags.DefaultSecondaryTag)...)

		// the current release is expected on the first non-empty page
		if page.Len() > 0 {
			break
		}

		next, ok := github.NextPageURL(resp.Header.Get("Link"))
		if !ok {
			break
		}
		slog.DebugContext(ctx, "Following continuation link for empty page", "path", path, "next", next)
		current = next
	}

	span.SetAttributes(
		otel.AttrPageCount.Int(pages),
		otel.AttrTagCount.Int(len(found)),
	)
	return found
}
