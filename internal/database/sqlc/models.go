package sqldb

import "database/sql"

type Snapshot struct {
	ID        int64
	Kind      string
	ScopeKey  string
	Handle    sql.NullString
	Payload   []byte
	ItemCount int64
	FetchedAt int64
}

type Mutation struct {
	ID         string
	Kind       string
	RecordID   string
	ScopeKey   string
	Status     string
	Error      sql.NullString
	StartedAt  int64
	FinishedAt sql.NullInt64
}
