package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/omsdash/omsctl/internal/collection"
	"github.com/omsdash/omsctl/internal/mutation"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/services"
	"github.com/omsdash/omsctl/internal/view"
)

// StoreSchema has no timestamp, so stores keep their registry order unless
// filtered.
var StoreSchema = view.Schema[oms.Store]{
	FilterFields: []func(oms.Store) string{
		func(s oms.Store) string { return s.ID },
		func(s oms.Store) string { return s.Name },
		func(s oms.Store) string { return s.Region },
	},
}

// Stores is the store dashboard screen.
type Stores struct {
	*Screen[oms.Store]

	svc   *services.StoreService
	stats *services.StatsService
	now   func() time.Time
}

func NewStores(svc *services.StoreService, stats *services.StatsService, opts ScreenOptions) *Stores {
	load := func(ctx context.Context, _ string) (collection.Page[oms.Store], error) {
		stores, err := svc.GetStores(ctx)
		return collection.Page[oms.Store]{Items: stores}, err
	}
	if opts.SnapshotKind == "" {
		opts.SnapshotKind = services.SnapshotStores
	}
	validate := func(s oms.Store) error {
		if strings.TrimSpace(s.Name) == "" {
			return mutation.Invalid("name", "store name is required")
		}
		return nil
	}
	return &Stores{
		Screen: NewScreen("stores", oms.StoreID, load, StoreSchema, validate, opts),
		svc:    svc,
		stats:  stats,
		now:    time.Now,
	}
}

// Add registers a store optimistically.
func (s *Stores) Add(ctx context.Context, in services.NewStore) (*mutation.Task, error) {
	store := services.BuildStore(in, s.now())
	return s.Controller().Create(ctx, store, func(ctx context.Context) error {
		return s.svc.InsertStore(ctx, store)
	})
}

// Delete removes a store. On success the row is dropped locally; on failure
// the registry is reloaded so the display matches the backend.
func (s *Stores) Delete(ctx context.Context, id string) error {
	if err := s.svc.DeleteStore(ctx, id); err != nil {
		if reloadErr := s.Collection().Reload(ctx); reloadErr != nil {
			s.logger.Warn("reload after failed delete", "id", id, "error", reloadErr)
		}
		return err
	}
	s.Collection().RemoveLocal(id)
	return nil
}

// Dashboard derives the dashboard figures from the held stores and fresh
// daily stats.
func (s *Stores) Dashboard(ctx context.Context) (services.Dashboard, error) {
	stats, err := s.stats.GetDailyStats(ctx)
	if err != nil {
		return services.Dashboard{}, err
	}
	stores := s.Collection().Items()
	return services.Dashboard{
		Stores:       stores,
		Stats:        stats,
		Metrics:      services.Metrics(stores),
		DailyRevenue: services.DailyRevenue(stats),
		Growth:       services.TodayGrowth(stores, stats),
	}, nil
}

// Snapshot asks the backend to record today's stats, then reloads in the
// background.
func (s *Stores) Snapshot(ctx context.Context) error {
	if err := s.stats.DebugSnapshot(ctx); err != nil {
		return err
	}
	return s.Refresh(ctx)
}
