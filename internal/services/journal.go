package services

import (
	"context"
	"time"

	"github.com/omsdash/omsctl/internal/database"
	"github.com/omsdash/omsctl/internal/mutation"
)

// MutationJournal records dispatched mutations in the local cache database.
type MutationJournal struct {
	repo *database.MutationRepository
}

func NewMutationJournal(dbCtx *database.Context) *MutationJournal {
	return &MutationJournal{repo: database.NewMutationRepository(dbCtx)}
}

func (j *MutationJournal) Started(ctx context.Context, e mutation.Entry) error {
	return j.repo.Insert(ctx, database.MutationRecord{
		ID:        e.ID,
		Kind:      string(e.Kind),
		RecordID:  e.RecordID,
		ScopeKey:  e.Scope,
		Status:    string(e.Status),
		StartedAt: e.StartedAt,
	})
}

func (j *MutationJournal) Finished(ctx context.Context, id string, status mutation.Status, errMsg string, at time.Time) error {
	return j.repo.Finish(ctx, id, string(status), errMsg, at)
}

// Recent lists the latest journal entries, newest first.
func (j *MutationJournal) Recent(ctx context.Context, limit int) ([]mutation.Entry, error) {
	rows, err := j.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// ForRecord lists the journal entries of one record.
func (j *MutationJournal) ForRecord(ctx context.Context, recordID string) ([]mutation.Entry, error) {
	rows, err := j.repo.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// Abandoned lists mutations that were dispatched but never resolved, which
// happens when the process exits with writes in flight.
func (j *MutationJournal) Abandoned(ctx context.Context) ([]mutation.Entry, error) {
	rows, err := j.repo.ListUnfinished(ctx)
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// Prune drops entries started before cutoff.
func (j *MutationJournal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return j.repo.Prune(ctx, cutoff)
}

func toEntries(rows []database.MutationRecord) []mutation.Entry {
	out := make([]mutation.Entry, 0, len(rows))
	for _, r := range rows {
		out = append(out, mutation.Entry{
			ID:         r.ID,
			Kind:       mutation.Kind(r.Kind),
			RecordID:   r.RecordID,
			Scope:      r.ScopeKey,
			Status:     mutation.Status(r.Status),
			Error:      r.Error,
			StartedAt:  r.StartedAt,
			FinishedAt: r.FinishedAt,
		})
	}
	return out
}
