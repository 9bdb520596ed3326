// Package mutation applies record changes optimistically and reconciles
// them with the remote in the background.
//
// Creation inserts the record at once and rolls it back when the remote
// rejects it. Edits only mark the record pending; its fields change when the
// confirming reload arrives. Either way the record is pending from dispatch
// until the resolution has been processed, and no second mutation can start
// on it meanwhile.
package mutation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/omsdash/omsctl/internal/collection"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/pending"
)

const eventBuffer = 64

// Controller runs mutations against one collection.
type Controller[T any] struct {
	coll     *collection.Collection[T]
	id       func(T) string
	validate func(T) error
	pending  *pending.Set
	coord    Coordinator
	journal  Journal
	notify   func(Event)
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	wg     sync.WaitGroup
	events chan Event
}

// Option configures a Controller.
type Option[T any] func(*Controller[T])

// WithValidator sets the local validation run before any dispatch.
func WithValidator[T any](fn func(T) error) Option[T] {
	return func(c *Controller[T]) { c.validate = fn }
}

// WithCoordinator installs the process start/end listener.
func WithCoordinator[T any](coord Coordinator) Option[T] {
	return func(c *Controller[T]) { c.coord = coord }
}

// WithJournal records every dispatched mutation.
func WithJournal[T any](j Journal) Option[T] {
	return func(c *Controller[T]) { c.journal = j }
}

// WithNotifier is called with every resolution, in the task's goroutine.
func WithNotifier[T any](fn func(Event)) Option[T] {
	return func(c *Controller[T]) { c.notify = fn }
}

// WithPending shares a pending set, for example with a renderer.
func WithPending[T any](set *pending.Set) Option[T] {
	return func(c *Controller[T]) {
		if set != nil {
			c.pending = set
		}
	}
}

// WithLogger sets the logger.
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(c *Controller[T]) { c.logger = l }
}

// New creates a Controller for coll.
func New[T any](coll *collection.Collection[T], id func(T) string, opts ...Option[T]) *Controller[T] {
	c := &Controller[T]{
		coll:     coll,
		id:       id,
		validate: func(T) error { return nil },
		pending:  &pending.Set{},
		now:      time.Now,
		events:   make(chan Event, eventBuffer),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDefault(c.logger).With("component", "mutation")
	return c
}

// Pending returns the pending set.
func (c *Controller[T]) Pending() *pending.Set { return c.pending }

// CanEdit reports whether an edit may start on id.
func (c *Controller[T]) CanEdit(id string) bool { return !c.pending.Has(id) }

// Events delivers task resolutions. Nobody has to drain it: when the buffer
// is full further events are dropped.
func (c *Controller[T]) Events() <-chan Event { return c.events }

// Wait blocks until every dispatched task has finished.
func (c *Controller[T]) Wait() { c.wg.Wait() }

// Create inserts rec optimistically and dispatches send in the background.
// Validation and duplicate failures return before anything is inserted or
// sent, as does ErrPending while an earlier task on the same id is still
// resolving.
func (c *Controller[T]) Create(ctx context.Context, rec T, send Sender) (*Task, error) {
	if err := c.validate(rec); err != nil {
		return nil, err
	}
	id := c.id(rec)

	c.mu.Lock()
	if c.coll.ContainsFold(id) {
		c.mu.Unlock()
		return nil, ErrDuplicate
	}
	if !c.pending.Add(id) {
		c.mu.Unlock()
		return nil, ErrPending
	}
	c.coll.UpsertLocal(rec)
	c.mu.Unlock()

	return c.dispatch(ctx, KindCreate, id, send, func() {
		if c.coll.RemoveLocal(id) {
			c.logger.Info("rolled back optimistic insert", "id", id)
		}
	}), nil
}

// Edit dispatches send for the record identified by rec. The displayed
// record is left untouched until the confirming reload. An edit on a pending
// record returns ErrPending and sends nothing.
func (c *Controller[T]) Edit(ctx context.Context, rec T, send Sender) (*Task, error) {
	id := c.id(rec)
	if c.pending.Has(id) {
		return nil, ErrPending
	}
	if err := c.validate(rec); err != nil {
		return nil, err
	}
	if !c.pending.Add(id) {
		return nil, ErrPending
	}
	return c.dispatch(ctx, KindEdit, id, send, nil), nil
}

func (c *Controller[T]) dispatch(ctx context.Context, kind Kind, id string, send Sender, rollback func()) *Task {
	task := &Task{
		ID:       ulid.Make().String(),
		Kind:     kind,
		RecordID: id,
		Scope:    c.coll.Scope(),
		done:     make(chan struct{}),
	}
	bg := context.WithoutCancel(ctx)

	if c.coord != nil {
		c.coord.ProcessStarted()
	}
	c.record(bg, task)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.run(bg, task, send, rollback)
	}()
	return task
}

func (c *Controller[T]) run(ctx context.Context, task *Task, send Sender, rollback func()) {
	ev := Event{TaskID: task.ID, Kind: task.Kind, RecordID: task.RecordID, Scope: task.Scope}

	defer func() {
		c.pending.Remove(task.RecordID)
		if c.coord != nil {
			c.coord.ProcessEnded()
		}
		c.finish(ctx, task, ev.Err)
		task.err = ev.Err
		close(task.done)
		c.publish(ev)
	}()

	c.logger.Debug("dispatching mutation", "kind", task.Kind, "id", task.RecordID, "task", task.ID)
	if err := send(ctx); err != nil {
		ev.Err = err
		c.logger.Warn("mutation failed", "kind", task.Kind, "id", task.RecordID, "error", err)
		if rollback != nil {
			rollback()
		}
		return
	}

	if err := c.coll.Reload(ctx); err != nil {
		ev.ReloadErr = err
		c.logger.Warn("reload after mutation failed", "kind", task.Kind, "id", task.RecordID, "error", err)
	}
}

func (c *Controller[T]) record(ctx context.Context, task *Task) {
	if c.journal == nil {
		return
	}
	entry := Entry{
		ID:        task.ID,
		Kind:      task.Kind,
		RecordID:  task.RecordID,
		Scope:     task.Scope,
		Status:    StatusPending,
		StartedAt: c.now(),
	}
	if err := c.journal.Started(ctx, entry); err != nil {
		c.logger.Warn("failed to journal mutation", "task", task.ID, "error", err)
	}
}

func (c *Controller[T]) finish(ctx context.Context, task *Task, failure error) {
	if c.journal == nil {
		return
	}
	status, msg := StatusSucceeded, ""
	if failure != nil {
		status, msg = StatusFailed, failure.Error()
	}
	if err := c.journal.Finished(ctx, task.ID, status, msg, c.now()); err != nil {
		c.logger.Warn("failed to journal mutation result", "task", task.ID, "error", err)
	}
}

func (c *Controller[T]) publish(ev Event) {
	if c.notify != nil {
		c.notify(ev)
	}
	select {
	case c.events <- ev:
	default:
		c.logger.Debug("mutation event dropped", "task", ev.TaskID)
	}
}
