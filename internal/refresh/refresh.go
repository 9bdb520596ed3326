// Package refresh keeps a collection current: an initial load, then a
// background reload on a fixed interval, plus reloads on demand.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/omsdash/omsctl/internal/logging"
)

// DefaultInterval is the background reload cadence.
const DefaultInterval = 120 * time.Second

var (
	// ErrInFlight is returned by Trigger when a reload is already running.
	ErrInFlight = errors.New("a reload is already in flight")
	// ErrLocked means another process holds the loop's lock file.
	ErrLocked = errors.New("another process is already refreshing this view")
)

// Func performs one load.
type Func func(ctx context.Context) error

// Loop is safe for concurrent use.
type Loop struct {
	initial  Func
	reload   Func
	interval time.Duration
	lockPath string
	onReload func(error)
	logger   *slog.Logger

	busy atomic.Bool

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	lock   *flock.Flock
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// WithLockFile makes Start take an exclusive lock on path, so two processes
// never poll the same view.
func WithLockFile(path string) Option {
	return func(l *Loop) { l.lockPath = path }
}

// WithOnReload is called after every load the loop performs.
func WithOnReload(fn func(error)) Option {
	return func(l *Loop) { l.onReload = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loop) { l.logger = logger }
}

// New creates a stopped Loop. initial runs once on Start; reload runs on
// every tick and Trigger.
func New(initial, reload Func, opts ...Option) *Loop {
	l := &Loop{
		initial:  initial,
		reload:   reload,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.OrDefault(l.logger).With("component", "refresh")
	return l
}

// Interval returns the reload cadence.
func (l *Loop) Interval() time.Duration { return l.interval }

// Start stops any previous run, performs the initial load and starts the
// timer. The timer keeps running when the initial load fails; its error is
// returned.
func (l *Loop) Start(ctx context.Context) error {
	l.Stop()

	var lock *flock.Flock
	if l.lockPath != "" {
		if err := os.MkdirAll(filepath.Dir(l.lockPath), 0o750); err != nil {
			return fmt.Errorf("failed to create lock directory: %w", err)
		}
		lock = flock.New(l.lockPath)
		locked, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("failed to lock %s: %w", l.lockPath, err)
		}
		if !locked {
			return ErrLocked
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	l.mu.Lock()
	l.cancel = cancel
	l.done = done
	l.lock = lock
	l.mu.Unlock()

	err := l.run(runCtx, l.initial, "initial")

	go l.tick(runCtx, done)
	return err
}

func (l *Loop) tick(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.run(ctx, l.reload, "tick"); errors.Is(err, ErrInFlight) {
				l.logger.Debug("skipping tick, reload in flight")
			}
		}
	}
}

// Trigger reloads now, outside the timer cadence. It returns ErrInFlight
// without reloading when another reload is running.
func (l *Loop) Trigger(ctx context.Context) error {
	return l.run(ctx, l.reload, "manual")
}

func (l *Loop) run(ctx context.Context, fn Func, reason string) error {
	if !l.busy.CompareAndSwap(false, true) {
		return ErrInFlight
	}
	defer l.busy.Store(false)

	l.logger.Debug("refreshing", "reason", reason)
	err := fn(ctx)
	if err != nil && ctx.Err() == nil {
		l.logger.Warn("refresh failed", "reason", reason, "error", err)
	}
	if l.onReload != nil {
		l.onReload(err)
	}
	return err
}

// Running reports whether the timer is active.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cancel != nil
}

// Stop cancels the timer, waits for it to exit and releases the lock file.
// It is a no-op on a stopped Loop.
func (l *Loop) Stop() {
	l.mu.Lock()
	cancel, done, lock := l.cancel, l.done, l.lock
	l.cancel, l.done, l.lock = nil, nil, nil
	l.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	if lock != nil {
		if err := lock.Unlock(); err != nil {
			l.logger.Warn("failed to release lock", "path", l.lockPath, "error", err)
		}
	}
}

// Wait blocks until ctx is done, then stops the loop.
func (l *Loop) Wait(ctx context.Context) {
	<-ctx.Done()
	l.Stop()
}
