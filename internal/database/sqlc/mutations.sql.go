package sqldb

import (
	"context"
	"database/sql"
)

const insertMutation = `INSERT INTO mutations (id, kind, record_id, scope_key, status, error, started_at, finished_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

type InsertMutationParams struct {
	ID         string
	Kind       string
	RecordID   string
	ScopeKey   string
	Status     string
	Error      sql.NullString
	StartedAt  int64
	FinishedAt sql.NullInt64
}

func (q *Queries) InsertMutation(ctx context.Context, arg InsertMutationParams) error {
	_, err := q.db.ExecContext(ctx, insertMutation,
		arg.ID,
		arg.Kind,
		arg.RecordID,
		arg.ScopeKey,
		arg.Status,
		arg.Error,
		arg.StartedAt,
		arg.FinishedAt,
	)
	return err
}

const finishMutation = `UPDATE mutations SET status = ?, error = ?, finished_at = ? WHERE id = ?`

type FinishMutationParams struct {
	Status     string
	Error      sql.NullString
	FinishedAt sql.NullInt64
	ID         string
}

func (q *Queries) FinishMutation(ctx context.Context, arg FinishMutationParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, finishMutation,
		arg.Status,
		arg.Error,
		arg.FinishedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const findMutationByID = `SELECT id, kind, record_id, scope_key, status, error, started_at, finished_at
FROM mutations
WHERE id = ?`

func (q *Queries) FindMutationByID(ctx context.Context, id string) (Mutation, error) {
	row := q.db.QueryRowContext(ctx, findMutationByID, id)
	var i Mutation
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.RecordID,
		&i.ScopeKey,
		&i.Status,
		&i.Error,
		&i.StartedAt,
		&i.FinishedAt,
	)
	return i, err
}

const listRecentMutations = `SELECT id, kind, record_id, scope_key, status, error, started_at, finished_at
FROM mutations
ORDER BY started_at DESC, id DESC
LIMIT ?`

func (q *Queries) ListRecentMutations(ctx context.Context, limit int64) ([]Mutation, error) {
	return q.listMutations(ctx, listRecentMutations, limit)
}

const listMutationsByRecord = `SELECT id, kind, record_id, scope_key, status, error, started_at, finished_at
FROM mutations
WHERE record_id = ?
ORDER BY started_at DESC, id DESC`

func (q *Queries) ListMutationsByRecord(ctx context.Context, recordID string) ([]Mutation, error) {
	return q.listMutations(ctx, listMutationsByRecord, recordID)
}

const listUnfinishedMutations = `SELECT id, kind, record_id, scope_key, status, error, started_at, finished_at
FROM mutations
WHERE finished_at IS NULL
ORDER BY started_at, id`

func (q *Queries) ListUnfinishedMutations(ctx context.Context) ([]Mutation, error) {
	return q.listMutations(ctx, listUnfinishedMutations)
}

const deleteMutationsBefore = `DELETE FROM mutations WHERE started_at < ? AND finished_at IS NOT NULL`

func (q *Queries) DeleteMutationsBefore(ctx context.Context, before int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteMutationsBefore, before)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (q *Queries) listMutations(ctx context.Context, query string, args ...any) ([]Mutation, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var items []Mutation
	for rows.Next() {
		var i Mutation
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.RecordID,
			&i.ScopeKey,
			&i.Status,
			&i.Error,
			&i.StartedAt,
			&i.FinishedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
