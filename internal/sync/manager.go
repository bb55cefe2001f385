package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/sdr-enthusiasts/sdr-image-api/internal/github"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/otel"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/service"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sources"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/status"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/state"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/sync/writer"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/tags"
	"github.com/sdr-enthusiasts/sdr-image-api/internal/telemetry"
)

// TracerName is the name used for sync cycle spans
const TracerName = "github.com/sdr-enthusiasts/sdr-image-api/sync"

const (
	// DefaultOrganization is the GitHub organization mirrored when none is configured
	DefaultOrganization = "sdr-enthusiasts"

	// DefaultRegistryHost is the container registry used in pull references
	DefaultRegistryHost = "ghcr.io"

	// DefaultInterval is both the freshness window and the schedule period
	DefaultInterval = 60 * time.Minute
)

// Phase names the stage of a cycle that failed
type Phase string

const (
	// PhaseListing is the organization repository listing
	PhaseListing Phase = "listing"

	// PhaseRepositories is the per-repository walk, interrupted by cancellation
	PhaseRepositories Phase = "repositories"
)

// Error is returned by RunCycle when a cycle ended early
type Error struct {
	Phase Phase
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sync cycle failed during %s: %v", e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CycleResult describes one invocation of RunCycle
type CycleResult struct {
	// CycleID identifies the cycle in logs
	CycleID string

	// Forced is true when the freshness gate was bypassed
	Forced bool

	// Skipped is true when the freshness gate held; nothing else was done
	Skipped bool

	// StartedAt is the time recorded as the new sync state
	StartedAt time.Time

	// NextRun is the delay until the next cycle should run
	NextRun time.Duration

	Repositories int
	Ignored      int
	Empty        int
	Existing     int
	Created      int
	Failed       int
}

// Manager runs synchronization cycles
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks -source=manager.go Manager
type Manager interface {
	// RunCycle runs one cycle. Unless force is set, a cycle whose previous
	// sync is younger than the interval is skipped without any upstream
	// request or store mutation. The result is non-nil even when an error
	// is returned, and its NextRun is always usable for scheduling.
	RunCycle(ctx context.Context, force bool) (*CycleResult, error)
}

// Option configures the default Manager
type Option func(*defaultManager)

// WithOrganization sets the GitHub organization to mirror
func WithOrganization(org string) Option {
	return func(m *defaultManager) {
		if org != "" {
			m.org = org
		}
	}
}

// WithRegistryHost sets the registry host used in pull references
func WithRegistryHost(host string) Option {
	return func(m *defaultManager) {
		if host != "" {
			m.registryHost = host
		}
	}
}

// WithInterval sets the freshness window and schedule period
func WithInterval(interval time.Duration) Option {
	return func(m *defaultManager) {
		if interval > 0 {
			m.interval = interval
		}
	}
}

// WithIgnoredRepositories sets repository names that are never synced
func WithIgnoredRepositories(names []string) Option {
	return func(m *defaultManager) {
		m.ignored = slices.Clone(names)
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *defaultManager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithTracer sets the tracer used for cycle spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultManager) {
		m.tracer = tracer
	}
}

// WithSyncMetrics sets the recorder for cycle metrics
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultManager) {
		m.metrics = metrics
	}
}

type defaultManager struct {
	client    github.Client
	tagSource sources.TagSource
	state     state.SyncStateService
	writer    writer.SyncWriter

	org          string
	registryHost string
	interval     time.Duration
	ignored      []string
	now          func() time.Time
	tracer       trace.Tracer
	metrics      *telemetry.SyncMetrics
}

// NewManager creates a Manager. The client is used for the rate limit probe
// and the repository listing; tag walks go through tagSource.
func NewManager(
	client github.Client,
	tagSource sources.TagSource,
	stateService state.SyncStateService,
	syncWriter writer.SyncWriter,
	opts ...Option,
) Manager {
	m := &defaultManager{
		client:       client,
		tagSource:    tagSource,
		state:        stateService,
		writer:       syncWriter,
		org:          DefaultOrganization,
		registryHost: DefaultRegistryHost,
		interval:     DefaultInterval,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *defaultManager) RunCycle(ctx context.Context, force bool) (*CycleResult, error) {
	result := &CycleResult{
		CycleID: uuid.NewString(),
		Forced:  force,
	}
	logger := slog.With("cycle_id", result.CycleID)

	if !force {
		if remaining, fresh := m.freshness(ctx, logger); fresh {
			result.Skipped = true
			result.NextRun = remaining
			logger.InfoContext(ctx, "Skipping sync, last sync is recent", "next_run", remaining)
			m.metrics.RecordCycleDuration(ctx, 0, telemetry.OutcomeSkipped)
			return result, nil
		}
	}

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.RunCycle",
		otel.AttrOrganization.String(m.org),
		otel.AttrForced.Bool(force),
	)
	defer span.End()

	result.StartedAt = m.now()
	result.NextRun = m.interval
	logger.InfoContext(ctx, "Starting sync cycle", "organization", m.org, "forced", force)

	err := m.run(ctx, logger, result)

	outcome := telemetry.OutcomeCompleted
	if err != nil {
		outcome = telemetry.OutcomeFailed
		otel.RecordError(span, err)
		logger.ErrorContext(ctx, "Sync cycle ended early", "error", err)
	}
	span.SetAttributes(otel.AttrResultCount.Int(result.Created))
	m.metrics.RecordCycleDuration(ctx, m.now().Sub(result.StartedAt), outcome)
	m.metrics.RecordImagesCreated(ctx, result.Created)

	logger.InfoContext(ctx, "Sync cycle finished",
		"repositories", result.Repositories,
		"ignored", result.Ignored,
		"empty", result.Empty,
		"existing", result.Existing,
		"created", result.Created,
		"failed", result.Failed,
		"next_run", result.NextRun)

	return result, err
}

// freshness reports whether the last sync is younger than the interval and,
// if so, how long remains. A read failure counts as "no prior sync".
func (m *defaultManager) freshness(ctx context.Context, logger *slog.Logger) (time.Duration, bool) {
	last, err := m.state.GetLastSync(ctx)
	if err != nil {
		if !errors.Is(err, state.ErrNoSyncState) {
			logger.WarnContext(ctx, "Failed to read sync state, treating as never synced", "error", err)
		}
		return 0, false
	}

	elapsed := m.now().Sub(last.LastSyncTime)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed >= m.interval {
		return 0, false
	}
	return m.interval - elapsed, true
}

func (m *defaultManager) run(ctx context.Context, logger *slog.Logger, result *CycleResult) error {
	if err := m.state.ReplaceLastSync(ctx, &status.SyncStatus{
		LastSyncTime: result.StartedAt,
		CycleID:      result.CycleID,
	}); err != nil {
		logger.ErrorContext(ctx, "Failed to record sync state", "error", err)
	}

	m.probeRateLimit(ctx, logger)

	repos, err := m.client.ListOrganizationRepositories(ctx, m.org)
	m.metrics.RecordUpstreamRequest(ctx, "repositories", err == nil)
	if err != nil {
		return &Error{Phase: PhaseListing, Err: err}
	}

	for _, repo := range repos {
		if err := ctx.Err(); err != nil {
			return &Error{Phase: PhaseRepositories, Err: err}
		}

		if slices.Contains(m.ignored, repo.Name) {
			result.Ignored++
			logger.DebugContext(ctx, "Ignoring repository", "repository", repo.Name)
			continue
		}

		result.Repositories++
		m.syncRepository(ctx, logger.With("repository", repo.Name), repo.Name, result)
	}
	return nil
}

func (m *defaultManager) probeRateLimit(ctx context.Context, logger *slog.Logger) {
	resp, err := m.client.Do(ctx, &github.Request{Path: github.RateLimitPath})
	m.metrics.RecordUpstreamRequest(ctx, "rate_limit", err == nil)
	if err != nil {
		logger.WarnContext(ctx, "Rate limit probe failed", "error", err)
		return
	}

	limit, err := github.ParseRateLimit(resp.Data)
	if err != nil {
		logger.WarnContext(ctx, "Failed to parse rate limit response", "error", err)
		return
	}

	m.metrics.RecordRateLimitRemaining(ctx, limit.Remaining)
	logger.InfoContext(ctx, "GitHub API rate limit",
		"limit", limit.Limit,
		"remaining", limit.Remaining,
		"used", limit.Used,
		"reset", limit.Reset)
}

func (m *defaultManager) syncRepository(ctx context.Context, logger *slog.Logger, name string, result *CycleResult) {
	found := m.tagSource.FetchTags(ctx, sources.VersionsPath(m.org, name))
	if len(found) == 0 {
		result.Empty++
		logger.DebugContext(ctx, "No release tags found")
		return
	}

	class := tags.Classify(found)
	primaryURL, secondaryURL := class.URLs(m.registryHost, m.org, name)
	for _, ref := range []string{primaryURL, secondaryURL} {
		if ref == "" {
			continue
		}
		if err := tags.ValidateReference(ref); err != nil {
			logger.WarnContext(ctx, "Pull reference is not valid", "reference", ref, "error", err)
		}
	}

	now := m.now()
	img := &service.Image{
		Name:         name,
		PrimaryURL:   primaryURL,
		SecondaryURL: secondaryURL,
		PrimaryTag:   class.PrimaryTag,
		SecondaryTag: class.SecondaryTag,
		ReleaseNotes: service.DefaultReleaseNotes,
		// every created record is stable; nothing ever marks one otherwise
		Stable:     true,
		Pinned:     class.Pinned,
		ModifiedAt: now,
		CreatedAt:  now,
	}

	exists, err := m.writer.HasImage(ctx, img.Key())
	if err != nil {
		logger.WarnContext(ctx, "Image lookup failed, treating as absent", "error", err)
		exists = false
	}
	if exists {
		result.Existing++
		logger.DebugContext(ctx, "Image already recorded", "tag", img.PrimaryTag, "tag_trixie", img.SecondaryTag)
		return
	}

	if err := m.writer.CreateImage(ctx, img); err != nil {
		result.Failed++
		logger.ErrorContext(ctx, "Failed to create image record", "error", err)
		return
	}
	result.Created++
	logger.InfoContext(ctx, "Created image record",
		"id", img.ID,
		"url", img.PrimaryURL,
		"url_trixie", img.SecondaryURL,
		"pinned", img.Pinned)
}
