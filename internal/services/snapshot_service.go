package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/omsdash/omsctl/internal/database"
)

// Snapshot kinds.
const (
	SnapshotOrders = "orders"
	SnapshotStores = "stores"
	SnapshotUsers  = "users"
)

// Snapshot is the decoded header of a stored load.
type Snapshot struct {
	Kind      string
	ScopeKey  string
	Handle    string
	Count     int64
	FetchedAt time.Time
}

// SnapshotService keeps the last applied load of each screen so it can be
// shown offline.
type SnapshotService struct {
	repo *database.SnapshotRepository
	now  func() time.Time
}

func NewSnapshotService(dbCtx *database.Context) *SnapshotService {
	return &SnapshotService{repo: database.NewSnapshotRepository(dbCtx), now: time.Now}
}

// Save stores items as the latest load of kind in scopeKey.
func (s *SnapshotService) Save(ctx context.Context, kind, scopeKey, handle string, items any, count int) error {
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", kind, err)
	}
	return s.repo.Save(ctx, database.SnapshotRecord{
		Kind:      kind,
		ScopeKey:  scopeKey,
		Handle:    handle,
		Payload:   payload,
		ItemCount: int64(count),
		FetchedAt: s.now(),
	})
}

// Load decodes the stored items of kind in scopeKey into out. It returns
// ErrNotFound when nothing was stored.
func (s *SnapshotService) Load(ctx context.Context, kind, scopeKey string, out any) (Snapshot, error) {
	rec, err := s.repo.Find(ctx, kind, scopeKey)
	if err != nil {
		return Snapshot{}, err
	}
	if rec == nil {
		return Snapshot{}, ErrNotFound
	}
	if err := json.Unmarshal(rec.Payload, out); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode %s snapshot: %w", kind, err)
	}
	return header(*rec), nil
}

// List returns the headers of every stored snapshot.
func (s *SnapshotService) List(ctx context.Context) ([]Snapshot, error) {
	recs, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Snapshot, 0, len(recs))
	for _, r := range recs {
		out = append(out, header(r))
	}
	return out, nil
}

func header(r database.SnapshotRecord) Snapshot {
	return Snapshot{
		Kind:      r.Kind,
		ScopeKey:  r.ScopeKey,
		Handle:    r.Handle,
		Count:     r.ItemCount,
		FetchedAt: r.FetchedAt,
	}
}
