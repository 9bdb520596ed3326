package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sqldb "github.com/omsdash/omsctl/internal/database/sqlc"
)

type MutationRepository struct {
	ctx *Context
}

func NewMutationRepository(dbCtx *Context) *MutationRepository {
	return &MutationRepository{ctx: dbCtx}
}

func (r *MutationRepository) Insert(ctx context.Context, rec MutationRecord) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("mutation repository: missing database context")
	}
	if rec.ID == "" {
		return fmt.Errorf("mutation repository: id is required")
	}
	return queries.InsertMutation(ctx, MutationInsertParams(rec))
}

// Finish records the resolution of mutation id. It returns ErrNotFound when
// no such mutation was journaled.
func (r *MutationRepository) Finish(ctx context.Context, id, status, errMsg string, at time.Time) error {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return fmt.Errorf("mutation repository: missing database context")
	}

	affected, err := queries.FinishMutation(ctx, sqldb.FinishMutationParams{
		Status:     status,
		Error:      nullString(errMsg),
		FinishedAt: nullMillis(at),
		ID:         id,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MutationRepository) FindByID(ctx context.Context, id string) (*MutationRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("mutation repository: missing database context")
	}

	row, err := queries.FindMutationByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	record := MutationRecordFromRow(row)
	return &record, nil
}

// ListRecent returns the newest limit mutations, newest first.
func (r *MutationRepository) ListRecent(ctx context.Context, limit int) ([]MutationRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("mutation repository: missing database context")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := queries.ListRecentMutations(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	return mapMutations(rows), nil
}

func (r *MutationRepository) ListByRecord(ctx context.Context, recordID string) ([]MutationRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("mutation repository: missing database context")
	}

	rows, err := queries.ListMutationsByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return mapMutations(rows), nil
}

// ListUnfinished returns mutations whose process ended before they resolved.
func (r *MutationRepository) ListUnfinished(ctx context.Context) ([]MutationRecord, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return nil, fmt.Errorf("mutation repository: missing database context")
	}

	rows, err := queries.ListUnfinishedMutations(ctx)
	if err != nil {
		return nil, err
	}
	return mapMutations(rows), nil
}

// Prune deletes resolved mutations started before cutoff.
func (r *MutationRepository) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	queries := queriesFromContext(r.ctx)
	if queries == nil {
		return 0, fmt.Errorf("mutation repository: missing database context")
	}
	return queries.DeleteMutationsBefore(ctx, toMillis(cutoff))
}

func mapMutations(rows []sqldb.Mutation) []MutationRecord {
	result := make([]MutationRecord, 0, len(rows))
	for _, row := range rows {
		result = append(result, MutationRecordFromRow(row))
	}
	return result
}
