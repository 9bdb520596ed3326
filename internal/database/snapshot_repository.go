package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sqldb "github.com/omsdash/omsctl/internal/database/sqlc"
)

type SnapshotRepository struct {
	ctx *Context
}

func NewSnapshotRepository(dbCtx *Context) *SnapshotRepository {
	return &SnapshotRepository{ctx: dbCtx}
}

// Save replaces the snapshot stored for rec.Kind and rec.ScopeKey.
func (r *SnapshotRepository) Save(ctx context.Context, rec SnapshotRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("snapshot repository: missing database context")
	}
	if rec.Kind == "" {
		return fmt.Errorf("snapshot repository: kind is required")
	}

	return queries.UpsertSnapshot(ctx, sqldb.UpsertSnapshotParams{
		Kind:      rec.Kind,
		ScopeKey:  rec.ScopeKey,
		Handle:    nullString(rec.Handle),
		Payload:   rec.Payload,
		ItemCount: rec.ItemCount,
		FetchedAt: toMillis(rec.FetchedAt),
	})
}

// Find returns nil when nothing has been stored for kind and scopeKey.
func (r *SnapshotRepository) Find(ctx context.Context, kind, scopeKey string) (*SnapshotRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("snapshot repository: missing database context")
	}

	row, err := queries.FindSnapshot(ctx, sqldb.FindSnapshotParams{Kind: kind, ScopeKey: scopeKey})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := SnapshotRecordFromRow(row)
	return &record, nil
}

func (r *SnapshotRepository) FindAll(ctx context.Context) ([]SnapshotRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("snapshot repository: missing database context")
	}

	rows, err := queries.ListSnapshots(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]SnapshotRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, SnapshotRecordFromRow(row))
	}
	return result, nil
}

func (r *SnapshotRepository) Delete(ctx context.Context, kind, scopeKey string) (bool, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return false, fmt.Errorf("snapshot repository: missing database context")
	}

	affected, err := queries.DeleteSnapshot(ctx, sqldb.DeleteSnapshotParams{Kind: kind, ScopeKey: scopeKey})
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
