package usecase

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/omsdash/omsctl/internal/collection"
	"github.com/omsdash/omsctl/internal/config"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/mutation"
	"github.com/omsdash/omsctl/internal/refresh"
	"github.com/omsdash/omsctl/internal/services"
	"github.com/omsdash/omsctl/internal/view"
)

// ScreenOptions wires the optional collaborators of a Screen.
type ScreenOptions struct {
	// Interval is the background refresh cadence. Zero uses the default.
	Interval time.Duration
	// LockDir holds the watcher lock files. Empty disables locking.
	LockDir string
	// Journal records dispatched mutations.
	Journal mutation.Journal
	// Snapshots keeps the last applied load for offline use.
	Snapshots *services.SnapshotService
	// SnapshotKind names the screen in the snapshot store.
	SnapshotKind string
	// OnReload observes every background reload.
	OnReload func(error)
	Logger   *slog.Logger
}

// Activity counts background writes in flight. It satisfies
// mutation.Coordinator.
type Activity struct {
	n atomic.Int64
}

func (a *Activity) ProcessStarted() { a.n.Add(1) }
func (a *Activity) ProcessEnded()   { a.n.Add(-1) }

// Busy reports whether any write is in flight.
func (a *Activity) Busy() bool { return a.n.Load() > 0 }

// Screen is one remote collection with everything needed to show and edit
// it: the view state, its sort/filter schema, the mutation controller and
// the refresh loop.
type Screen[T any] struct {
	name       string
	coll       *collection.Collection[T]
	schema     view.Schema[T]
	controller *mutation.Controller[T]
	activity   *Activity
	opts       ScreenOptions
	logger     *slog.Logger

	mu     sync.Mutex
	filter string
	key    view.SortKey
	loop   *refresh.Loop
}

// NewScreen builds a screen named name.
func NewScreen[T any](name string, id func(T) string, load collection.Loader[T], schema view.Schema[T], validate func(T) error, opts ScreenOptions) *Screen[T] {
	logger := logging.OrDefault(opts.Logger).With("screen", name)
	coll := collection.New(id, load, logger)
	activity := &Activity{}

	ctrlOpts := []mutation.Option[T]{
		mutation.WithCoordinator[T](activity),
		mutation.WithLogger[T](logger),
	}
	if validate != nil {
		ctrlOpts = append(ctrlOpts, mutation.WithValidator(validate))
	}
	if opts.Journal != nil {
		ctrlOpts = append(ctrlOpts, mutation.WithJournal[T](opts.Journal))
	}

	s := &Screen[T]{
		name:       name,
		coll:       coll,
		schema:     schema,
		controller: mutation.New(coll, id, ctrlOpts...),
		activity:   activity,
		opts:       opts,
		logger:     logger,
		key:        schema.DefaultKey(),
	}

	if opts.Snapshots != nil && opts.SnapshotKind != "" {
		coll.OnLoaded(s.saveSnapshot)
	}
	return s
}

func (s *Screen[T]) saveSnapshot(st collection.State[T]) {
	err := s.opts.Snapshots.Save(context.Background(), s.opts.SnapshotKind, st.Scope, st.Handle, st.Items, len(st.Items))
	if err != nil {
		s.logger.Warn("failed to save snapshot", "scope", st.Scope, "error", err)
	}
}

func (s *Screen[T]) Name() string                          { return s.name }
func (s *Screen[T]) Collection() *collection.Collection[T] { return s.coll }
func (s *Screen[T]) Controller() *mutation.Controller[T]   { return s.controller }
func (s *Screen[T]) Busy() bool                            { return s.activity.Busy() }

// Load fetches scope once.
func (s *Screen[T]) Load(ctx context.Context, scopeKey string) error {
	return s.coll.Load(ctx, scopeKey)
}

// Watch loads scopeKey and keeps reloading it in the background until ctx
// is cancelled or Close is called.
func (s *Screen[T]) Watch(ctx context.Context, scopeKey string) error {
	opts := []refresh.Option{
		refresh.WithInterval(s.opts.Interval),
		refresh.WithLogger(s.logger),
	}
	if s.opts.LockDir != "" {
		lock := filepath.Join(s.opts.LockDir, config.EncodeLockName(s.name+"-"+scopeKey)+".lock")
		opts = append(opts, refresh.WithLockFile(lock))
	}
	if s.opts.OnReload != nil {
		opts = append(opts, refresh.WithOnReload(s.opts.OnReload))
	}

	loop := refresh.New(
		func(ctx context.Context) error { return s.coll.Load(ctx, scopeKey) },
		s.coll.Reload,
		opts...,
	)

	s.mu.Lock()
	prev := s.loop
	s.loop = loop
	s.mu.Unlock()
	if prev != nil {
		prev.Stop()
	}
	return loop.Start(ctx)
}

// Refresh reloads now, outside the regular cadence.
func (s *Screen[T]) Refresh(ctx context.Context) error {
	s.mu.Lock()
	loop := s.loop
	s.mu.Unlock()
	if loop == nil {
		return s.coll.Reload(ctx)
	}
	err := loop.Trigger(ctx)
	if errors.Is(err, refresh.ErrInFlight) {
		return nil
	}
	return err
}

// Close stops the refresh loop and waits for background writes.
func (s *Screen[T]) Close() {
	s.mu.Lock()
	loop := s.loop
	s.loop = nil
	s.mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
	s.controller.Wait()
}

// SetFilter changes the text filter.
func (s *Screen[T]) SetFilter(filter string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = filter
}

// SortBy selects field. Selecting the active field flips its direction.
func (s *Screen[T]) SortBy(field string) view.SortKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key.Field == field {
		s.key = s.key.Toggle()
	} else {
		s.key = view.SortKey{Field: field, Direction: view.Desc}
	}
	return s.key
}

// SetSort replaces the active ordering.
func (s *Screen[T]) SetSort(key view.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.key = key
}

// Visible is the filtered and sorted sequence of the held records.
func (s *Screen[T]) Visible() []T {
	s.mu.Lock()
	filter, key := s.filter, s.key
	s.mu.Unlock()
	return view.Apply(s.coll.Items(), filter, key, s.schema)
}
