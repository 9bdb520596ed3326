package database

import "time"

// SnapshotRecord is the last applied load of one screen and scope. Payload
// holds the records as JSON.
type SnapshotRecord struct {
	ID        int64
	Kind      string
	ScopeKey  string
	Handle    string
	Payload   []byte
	ItemCount int64
	FetchedAt time.Time
}

// MutationRecord is one row of the mutation journal.
type MutationRecord struct {
	ID         string
	Kind       string
	RecordID   string
	ScopeKey   string
	Status     string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Finished reports whether the mutation has been resolved.
func (m MutationRecord) Finished() bool { return !m.FinishedAt.IsZero() }
