package coordinator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	pkgsync "github.com/sdr-enthusiasts/sdr-image-api/internal/sync"
)

// cycleKey is the single singleflight key: there is only one kind of cycle
const cycleKey = "cycle"

// Coordinator schedules sync cycles on a single timer and guarantees that at
// most one cycle runs at a time
type Coordinator interface {
	// Start runs the startup cycle and then the schedule loop.
	// Blocks until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels the loop and any in-flight cycle it started, then waits
	// for Start to return
	Stop() error

	// Trigger runs a cycle now. A caller arriving while a cycle is in
	// flight joins it and receives its result, whatever force it asked for.
	// The outcome re-arms the schedule timer of a running coordinator.
	Trigger(ctx context.Context, force bool) (*pkgsync.CycleResult, error)
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithForceOnStartup controls whether the startup cycle bypasses the freshness gate
func WithForceOnStartup(force bool) Option {
	return func(c *defaultCoordinator) {
		c.forceOnStartup = force
	}
}

// WithFallbackInterval sets the delay used when a cycle returns no result
func WithFallbackInterval(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		if d > 0 {
			c.fallback = d
		}
	}
}

type defaultCoordinator struct {
	manager        pkgsync.Manager
	forceOnStartup bool
	fallback       time.Duration

	group singleflight.Group
	rearm chan time.Duration

	mu         sync.Mutex
	running    bool
	cancelFunc context.CancelFunc
	done       chan struct{}
}

// New creates a new coordinator around manager
func New(manager pkgsync.Manager, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:        manager,
		forceOnStartup: true,
		fallback:       pkgsync.DefaultInterval,
		rearm:          make(chan time.Duration, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *defaultCoordinator) Start(ctx context.Context) error {
	coordCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	c.mu.Lock()
	c.running = true
	c.cancelFunc = cancel
	c.done = done
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		cancel()
		close(done)
		slog.Info("Background sync coordinator shut down")
	}()

	slog.Info("Starting background sync coordinator", "force_on_startup", c.forceOnStartup)

	next := c.runCycle(coordCtx, c.forceOnStartup)
	timer := time.NewTimer(next)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			timer.Reset(c.runCycle(coordCtx, false))
		case d := <-c.rearm:
			slog.Debug("Re-arming sync timer after triggered cycle", "next_run", d)
			timer.Reset(d)
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel, done := c.cancelFunc, c.done
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	slog.Info("Stopping sync coordinator")
	cancel()
	<-done
	return nil
}

func (c *defaultCoordinator) Trigger(ctx context.Context, force bool) (*pkgsync.CycleResult, error) {
	result, err := c.do(ctx, force)

	c.mu.Lock()
	running := c.running
	c.mu.Unlock()

	if running {
		next := c.nextRun(result)
		// keep only the latest delay; an unread older one is stale
		select {
		case <-c.rearm:
		default:
		}
		select {
		case c.rearm <- next:
		default:
		}
	}
	return result, err
}

// runCycle runs one scheduled cycle and returns the delay until the next
func (c *defaultCoordinator) runCycle(ctx context.Context, force bool) time.Duration {
	result, err := c.do(ctx, force)
	if err != nil {
		slog.Error("Sync cycle failed", "error", err)
	}
	next := c.nextRun(result)
	slog.Info("Next sync cycle scheduled", "in", next)
	return next
}

func (c *defaultCoordinator) do(ctx context.Context, force bool) (*pkgsync.CycleResult, error) {
	v, err, shared := c.group.Do(cycleKey, func() (any, error) {
		return c.manager.RunCycle(ctx, force)
	})
	if shared {
		slog.Debug("Joined in-flight sync cycle")
	}

	result, _ := v.(*pkgsync.CycleResult)
	return result, err
}

func (c *defaultCoordinator) nextRun(result *pkgsync.CycleResult) time.Duration {
	if result == nil || result.NextRun <= 0 {
		return c.fallback
	}
	return result.NextRun
}
