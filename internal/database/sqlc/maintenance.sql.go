package sqldb

import "context"

const deleteAllSnapshots = `DELETE FROM snapshots`

func (q *Queries) DeleteAllSnapshots(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllSnapshots)
	return err
}

const deleteAllMutations = `DELETE FROM mutations`

func (q *Queries) DeleteAllMutations(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllMutations)
	return err
}
