package sqldb

import (
	"context"
	"database/sql"
)

const upsertSnapshot = `INSERT INTO snapshots (kind, scope_key, handle, payload, item_count, fetched_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (kind, scope_key) DO UPDATE SET
    handle = excluded.handle,
    payload = excluded.payload,
    item_count = excluded.item_count,
    fetched_at = excluded.fetched_at`

type UpsertSnapshotParams struct {
	Kind      string
	ScopeKey  string
	Handle    sql.NullString
	Payload   []byte
	ItemCount int64
	FetchedAt int64
}

func (q *Queries) UpsertSnapshot(ctx context.Context, arg UpsertSnapshotParams) error {
	_, err := q.db.ExecContext(ctx, upsertSnapshot,
		arg.Kind,
		arg.ScopeKey,
		arg.Handle,
		arg.Payload,
		arg.ItemCount,
		arg.FetchedAt,
	)
	return err
}

const findSnapshot = `SELECT id, kind, scope_key, handle, payload, item_count, fetched_at
FROM snapshots
WHERE kind = ? AND scope_key = ?`

type FindSnapshotParams struct {
	Kind     string
	ScopeKey string
}

func (q *Queries) FindSnapshot(ctx context.Context, arg FindSnapshotParams) (Snapshot, error) {
	row := q.db.QueryRowContext(ctx, findSnapshot, arg.Kind, arg.ScopeKey)
	var i Snapshot
	err := row.Scan(
		&i.ID,
		&i.Kind,
		&i.ScopeKey,
		&i.Handle,
		&i.Payload,
		&i.ItemCount,
		&i.FetchedAt,
	)
	return i, err
}

const listSnapshots = `SELECT id, kind, scope_key, handle, payload, item_count, fetched_at
FROM snapshots
ORDER BY kind, scope_key`

func (q *Queries) ListSnapshots(ctx context.Context) ([]Snapshot, error) {
	rows, err := q.db.QueryContext(ctx, listSnapshots)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()
	var items []Snapshot
	for rows.Next() {
		var i Snapshot
		if err := rows.Scan(
			&i.ID,
			&i.Kind,
			&i.ScopeKey,
			&i.Handle,
			&i.Payload,
			&i.ItemCount,
			&i.FetchedAt,
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

const deleteSnapshot = `DELETE FROM snapshots WHERE kind = ? AND scope_key = ?`

type DeleteSnapshotParams struct {
	Kind     string
	ScopeKey string
}

func (q *Queries) DeleteSnapshot(ctx context.Context, arg DeleteSnapshotParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteSnapshot, arg.Kind, arg.ScopeKey)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
