// Package collection holds the in-memory view state of one remote
// collection: the records of the active scope, the partition handle that
// came with them and the loading indicators.
package collection

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/omsdash/omsctl/internal/logging"
)

// ErrSuperseded is returned by a load whose result was discarded because a
// newer load was dispatched while it was in flight.
var ErrSuperseded = errors.New("load superseded by a newer load")

// Page is the result of one remote fetch.
type Page[T any] struct {
	Items []T
	// Handle identifies the remote partition the items came from, such as
	// the spreadsheet file of a month. It may be empty.
	Handle string
}

// Loader fetches the records of scope.
type Loader[T any] func(ctx context.Context, scope string) (Page[T], error)

// State is a point-in-time copy of the collection.
type State[T any] struct {
	Scope      string
	Handle     string
	Items      []T
	Loading    bool
	Refreshing bool
	Loaded     bool
	LoadedAt   time.Time
	Err        error
}

// Collection is safe for concurrent use.
type Collection[T any] struct {
	id     func(T) string
	load   Loader[T]
	logger *slog.Logger

	mu         sync.Mutex
	scope      string
	requested  string
	handle     string
	items      []T
	loading    bool
	refreshing bool
	loaded     bool
	loadedAt   time.Time
	err        error
	seq        uint64
	cancel     context.CancelFunc
	hooks      []func(State[T])
}

// New creates an empty collection. id extracts the record identifier.
func New[T any](id func(T) string, load Loader[T], logger *slog.Logger) *Collection[T] {
	return &Collection[T]{
		id:     id,
		load:   load,
		logger: logging.OrDefault(logger).With("component", "collection"),
	}
}

// OnLoaded registers fn to run after every applied load, outside the lock.
func (c *Collection[T]) OnLoaded(fn func(State[T])) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, fn)
}

// Load fetches scope and replaces the held records wholesale.
//
// While the fetch is in flight the previous records stay visible. Loading is
// set until the first successful load, Refreshing afterwards. A load dispatched
// later cancels this one and its result is discarded with ErrSuperseded.
//
// On failure, records of the same scope are kept; records of a different
// scope are dropped so they are never shown under the wrong scope.
func (c *Collection[T]) Load(ctx context.Context, scope string) error {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	if c.cancel != nil {
		c.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.requested = scope
	if !c.loaded {
		c.loading = true
		c.refreshing = false
	} else {
		c.refreshing = true
		c.loading = false
	}
	c.mu.Unlock()

	c.logger.Debug("loading collection", "scope", scope, "seq", seq)
	page, err := c.load(loadCtx, scope)
	cancel()

	c.mu.Lock()
	if seq != c.seq {
		c.mu.Unlock()
		c.logger.Debug("discarding superseded load", "scope", scope, "seq", seq)
		return ErrSuperseded
	}
	c.cancel = nil
	c.loading = false
	c.refreshing = false

	if err != nil {
		c.err = err
		if scope != c.scope || !c.loaded {
			c.items = nil
			c.handle = ""
			c.loaded = false
		}
		c.scope = scope
		c.mu.Unlock()
		c.logger.Warn("collection load failed", "scope", scope, "error", err)
		return err
	}

	c.scope = scope
	c.handle = page.Handle
	c.items = append([]T(nil), page.Items...)
	c.loaded = true
	c.loadedAt = time.Now()
	c.err = nil
	state := c.stateLocked()
	hooks := append([]func(State[T]){}, c.hooks...)
	c.mu.Unlock()

	for _, fn := range hooks {
		fn(state)
	}
	return nil
}

// Reload fetches the most recently requested scope again. A load still in
// flight for a newer scope is reloaded, not the scope on display.
func (c *Collection[T]) Reload(ctx context.Context) error {
	c.mu.Lock()
	scope := c.requested
	c.mu.Unlock()
	return c.Load(ctx, scope)
}

// UpsertLocal inserts rec at the head when its identifier is new, or
// replaces the matching record in place. It never calls the loader.
func (c *Collection[T]) UpsertLocal(rec T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := c.id(rec)
	for i, existing := range c.items {
		if c.id(existing) == key {
			c.items[i] = rec
			return
		}
	}
	c.items = append([]T{rec}, c.items...)
}

// RemoveLocal drops the record with identifier id. It reports whether a
// record was removed.
func (c *Collection[T]) RemoveLocal(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, existing := range c.items {
		if c.id(existing) == id {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			return true
		}
	}
	return false
}

// ContainsFold reports whether a record with id exists, ignoring case.
func (c *Collection[T]) ContainsFold(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.items {
		if strings.EqualFold(c.id(existing), id) {
			return true
		}
	}
	return false
}

// Find returns the record with identifier id.
func (c *Collection[T]) Find(id string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, existing := range c.items {
		if c.id(existing) == id {
			return existing, true
		}
	}
	var zero T
	return zero, false
}

// Items returns a copy of the held records.
func (c *Collection[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

// Scope returns the scope of the last load.
func (c *Collection[T]) Scope() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.scope
}

// Handle returns the partition handle of the last successful load.
func (c *Collection[T]) Handle() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}

// State returns a copy of the collection state.
func (c *Collection[T]) State() State[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

func (c *Collection[T]) stateLocked() State[T] {
	return State[T]{
		Scope:      c.scope,
		Handle:     c.handle,
		Items:      append([]T(nil), c.items...),
		Loading:    c.loading,
		Refreshing: c.refreshing,
		Loaded:     c.loaded,
		LoadedAt:   c.loadedAt,
		Err:        c.err,
	}
}
