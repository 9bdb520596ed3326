package collection

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omsdash/omsctl/internal/logging"
)

type rec struct {
	ID   string
	Note string
}

func recID(r rec) string { return r.ID }

func ids(rs []rec) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func staticLoader(pages map[string]Page[rec]) Loader[rec] {
	return func(_ context.Context, scope string) (Page[rec], error) {
		page, ok := pages[scope]
		if !ok {
			return Page[rec]{}, errors.New("no such scope")
		}
		return page, nil
	}
}

func TestLoadReplacesWholesale(t *testing.T) {
	c := New(recID, staticLoader(map[string]Page[rec]{
		"2024-03": {Items: []rec{{ID: "B"}, {ID: "A"}}, Handle: "file-3"},
		"2024-04": {Items: []rec{{ID: "C"}}, Handle: "file-4"},
	}), logging.Discard())

	require.NoError(t, c.Load(context.Background(), "2024-03"))
	st := c.State()
	assert.Equal(t, []string{"B", "A"}, ids(st.Items))
	assert.Equal(t, "file-3", st.Handle)
	assert.True(t, st.Loaded)
	assert.False(t, st.Loading)

	c.UpsertLocal(rec{ID: "local"})
	require.NoError(t, c.Load(context.Background(), "2024-04"))
	assert.Equal(t, []string{"C"}, ids(c.Items()))
	assert.Equal(t, "2024-04", c.Scope())
	assert.Equal(t, "file-4", c.Handle())
}

func TestBackgroundReloadKeepsItemsVisible(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 2)
	calls := 0
	c := New(recID, func(ctx context.Context, _ string) (Page[rec], error) {
		calls++
		if calls == 1 {
			return Page[rec]{Items: []rec{{ID: "A"}}}, nil
		}
		started <- struct{}{}
		<-release
		return Page[rec]{Items: []rec{{ID: "A"}, {ID: "B"}}}, nil
	}, logging.Discard())

	require.NoError(t, c.Load(context.Background(), "s"))

	done := make(chan error, 1)
	go func() { done <- c.Reload(context.Background()) }()
	<-started

	st := c.State()
	assert.True(t, st.Refreshing)
	assert.False(t, st.Loading)
	assert.Equal(t, []string{"A"}, ids(st.Items))

	close(release)
	require.NoError(t, <-done)
	st = c.State()
	assert.False(t, st.Refreshing)
	assert.Equal(t, []string{"A", "B"}, ids(st.Items))
}

func TestBackgroundReloadOfEmptyScopeIsNotPrimaryLoading(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	calls := 0
	c := New(recID, func(ctx context.Context, _ string) (Page[rec], error) {
		calls++
		if calls == 1 {
			return Page[rec]{}, nil
		}
		started <- struct{}{}
		<-release
		return Page[rec]{}, nil
	}, logging.Discard())

	require.NoError(t, c.Load(context.Background(), "s"))
	require.True(t, c.State().Loaded)

	done := make(chan error, 1)
	go func() { done <- c.Reload(context.Background()) }()
	<-started

	st := c.State()
	assert.True(t, st.Refreshing)
	assert.False(t, st.Loading, "an empty loaded scope reloads in the background")

	close(release)
	require.NoError(t, <-done)
}

func TestReloadDuringScopeChangeTargetsRequestedScope(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	c := New(recID, func(ctx context.Context, scope string) (Page[rec], error) {
		if scope == "2024-04" {
			select {
			case <-started:
			default:
				close(started)
				select {
				case <-release:
				case <-ctx.Done():
					return Page[rec]{}, ctx.Err()
				}
			}
		}
		return Page[rec]{Items: []rec{{ID: scope}}}, nil
	}, logging.Discard())

	require.NoError(t, c.Load(context.Background(), "2024-03"))

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), "2024-04") }()
	<-started

	require.NoError(t, c.Reload(context.Background()))
	close(release)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	assert.Equal(t, "2024-04", c.Scope())
	assert.Equal(t, []string{"2024-04"}, ids(c.Items()))
}

func TestInitialLoadSetsLoading(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	c := New(recID, func(ctx context.Context, _ string) (Page[rec], error) {
		close(started)
		<-release
		return Page[rec]{}, nil
	}, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), "s") }()
	<-started
	st := c.State()
	assert.True(t, st.Loading)
	assert.False(t, st.Refreshing)
	close(release)
	require.NoError(t, <-done)
	assert.False(t, c.State().Loading)
}

func TestSupersededLoadIsDiscarded(t *testing.T) {
	slowStarted := make(chan struct{})
	c := New(recID, func(ctx context.Context, scope string) (Page[rec], error) {
		if scope == "old" {
			close(slowStarted)
			<-ctx.Done()
			return Page[rec]{Items: []rec{{ID: "stale"}}}, nil
		}
		return Page[rec]{Items: []rec{{ID: "fresh"}}}, nil
	}, logging.Discard())

	done := make(chan error, 1)
	go func() { done <- c.Load(context.Background(), "old") }()
	<-slowStarted

	require.NoError(t, c.Load(context.Background(), "new"))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrSuperseded)
	case <-time.After(2 * time.Second):
		t.Fatal("superseded load was not cancelled")
	}
	assert.Equal(t, []string{"fresh"}, ids(c.Items()))
	assert.Equal(t, "new", c.Scope())
}

func TestLoadFailureSemantics(t *testing.T) {
	fail := false
	c := New(recID, func(context.Context, string) (Page[rec], error) {
		if fail {
			return Page[rec]{}, errors.New("backend down")
		}
		return Page[rec]{Items: []rec{{ID: "A"}}, Handle: "f"}, nil
	}, logging.Discard())

	require.NoError(t, c.Load(context.Background(), "m1"))
	fail = true

	require.Error(t, c.Reload(context.Background()))
	assert.Equal(t, []string{"A"}, ids(c.Items()), "background failure keeps items")
	assert.Error(t, c.State().Err)

	require.Error(t, c.Load(context.Background(), "m2"))
	assert.Empty(t, c.Items(), "failure on a new scope drops foreign items")
	assert.Empty(t, c.Handle())
	assert.Equal(t, "m2", c.Scope())
}

func TestUpsertLocal(t *testing.T) {
	c := New(recID, staticLoader(map[string]Page[rec]{
		"s": {Items: []rec{{ID: "A"}, {ID: "B"}, {ID: "C"}}},
	}), logging.Discard())
	require.NoError(t, c.Load(context.Background(), "s"))

	c.UpsertLocal(rec{ID: "N"})
	assert.Equal(t, []string{"N", "A", "B", "C"}, ids(c.Items()))

	c.UpsertLocal(rec{ID: "B", Note: "edited"})
	assert.Equal(t, []string{"N", "A", "B", "C"}, ids(c.Items()))
	got, ok := c.Find("B")
	require.True(t, ok)
	assert.Equal(t, "edited", got.Note)
}

func TestRemoveAndContains(t *testing.T) {
	c := New(recID, nil, logging.Discard())
	c.UpsertLocal(rec{ID: "x1"})
	c.UpsertLocal(rec{ID: "y2"})

	assert.True(t, c.ContainsFold("X1"))
	assert.False(t, c.ContainsFold("z"))

	assert.True(t, c.RemoveLocal("x1"))
	assert.False(t, c.RemoveLocal("x1"))
	assert.Equal(t, []string{"y2"}, ids(c.Items()))
}

func TestOnLoadedHook(t *testing.T) {
	c := New(recID, staticLoader(map[string]Page[rec]{
		"s": {Items: []rec{{ID: "A"}}, Handle: "h"},
	}), logging.Discard())

	var seen []State[rec]
	c.OnLoaded(func(st State[rec]) { seen = append(seen, st) })

	require.NoError(t, c.Load(context.Background(), "s"))
	require.Error(t, c.Load(context.Background(), "missing"))

	require.Len(t, seen, 1)
	assert.Equal(t, "s", seen[0].Scope)
	assert.Equal(t, "h", seen[0].Handle)
}
