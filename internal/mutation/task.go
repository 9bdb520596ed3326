package mutation

import (
	"context"
	"time"
)

// Kind distinguishes the two mutation flows.
type Kind string

const (
	KindCreate Kind = "create"
	KindEdit   Kind = "edit"
)

// Status is the journal status of a mutation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Sender performs the remote half of a mutation.
type Sender func(ctx context.Context) error

// Coordinator is told when background work starts and ends, so it can hold
// back navigation that would race an in-flight write.
type Coordinator interface {
	ProcessStarted()
	ProcessEnded()
}

// Entry is one journal record.
type Entry struct {
	ID         string
	Kind       Kind
	RecordID   string
	Scope      string
	Status     Status
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Journal persists dispatched mutations.
type Journal interface {
	Started(ctx context.Context, e Entry) error
	Finished(ctx context.Context, id string, status Status, errMsg string, at time.Time) error
}

// Event reports the resolution of a Task.
type Event struct {
	TaskID   string
	Kind     Kind
	RecordID string
	Scope    string
	// Err is the remote failure. Nil means the mutation was confirmed.
	Err error
	// ReloadErr is set when the confirming reload failed.
	ReloadErr error
}

// Task is a background mutation with its own lifecycle. It keeps running
// after the context that created it is cancelled.
type Task struct {
	ID       string
	Kind     Kind
	RecordID string
	Scope    string

	done chan struct{}
	err  error
}

// Done is closed once the mutation has been resolved and reconciled.
func (t *Task) Done() <-chan struct{} { return t.done }

// Err returns the remote failure. It is only meaningful after Done.
func (t *Task) Err() error {
	<-t.done
	return t.err
}
