package services

import (
	"context"
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/view"
)

// Revenue model constants of the store dashboard.
var (
	PricePerSale   = decimal.NewFromInt(500000)
	NetIncomeRatio = decimal.NewFromFloat(0.3)
	InventoryValue = decimal.NewFromInt(55000000)
)

// Dashboard is everything the store dashboard shows.
type Dashboard struct {
	Stores       []oms.Store
	Stats        []oms.DailyStat
	Metrics      oms.DashboardMetrics
	DailyRevenue []oms.DailyRevenue
	Growth       oms.Growth
}

// StatsService wraps the daily statistics operations.
type StatsService struct {
	caller gateway.Caller
	stores *StoreService
	logger *slog.Logger
}

func NewStatsService(caller gateway.Caller, stores *StoreService, logger *slog.Logger) *StatsService {
	return &StatsService{
		caller: caller,
		stores: stores,
		logger: logging.OrDefault(logger).With("service", "stats"),
	}
}

func (s *StatsService) GetDailyStats(ctx context.Context) ([]oms.DailyStat, error) {
	rows, err := decodeRows(s.caller.Call(ctx, "getDailyStats", gateway.GET, nil))
	if err != nil {
		return nil, err
	}
	stats := make([]oms.DailyStat, 0, len(rows))
	for _, r := range rows {
		stats = append(stats, oms.DailyStat{
			Date:         r.text("date"),
			TotalListing: r.number("totalListing").IntPart(),
			TotalSale:    r.number("totalSale").IntPart(),
		})
	}
	return stats, nil
}

// DebugSnapshot asks the backend to record today's daily snapshot now.
func (s *StatsService) DebugSnapshot(ctx context.Context) error {
	return post(ctx, s.caller, "debugSnapshot", map[string]any{}, "failed to take snapshot")
}

// Dashboard loads stores and daily stats concurrently and derives the
// dashboard figures. Either load failing fails the whole dashboard.
func (s *StatsService) Dashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stores, err := s.stores.GetStores(gctx)
		d.Stores = stores
		return err
	})
	g.Go(func() error {
		stats, err := s.GetDailyStats(gctx)
		d.Stats = stats
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d.Metrics = Metrics(d.Stores)
	d.DailyRevenue = DailyRevenue(d.Stats)
	d.Growth = TodayGrowth(d.Stores, d.Stats)
	s.logger.Debug("dashboard loaded", "stores", len(d.Stores), "stats", len(d.Stats))
	return d, nil
}

func totals(stores []oms.Store) (listing, sale decimal.Decimal) {
	listing, sale = decimal.Zero, decimal.Zero
	for _, st := range stores {
		listing = listing.Add(parseSheetNumber(st.Listing))
		sale = sale.Add(parseSheetNumber(st.Sale))
	}
	return listing, sale
}

// Metrics estimates revenue from the registry's total sales.
func Metrics(stores []oms.Store) oms.DashboardMetrics {
	_, sale := totals(stores)
	revenue := sale.Mul(PricePerSale)
	return oms.DashboardMetrics{
		Revenue:        revenue.IntPart(),
		NetIncome:      revenue.Mul(NetIncomeRatio).IntPart(),
		InventoryValue: InventoryValue.IntPart(),
		Debt:           0,
	}
}

// DailyRevenue prices the sale increase between consecutive daily stats.
// Decreases count as zero. Fewer than two stats yield nothing.
func DailyRevenue(stats []oms.DailyStat) []oms.DailyRevenue {
	if len(stats) < 2 {
		return []oms.DailyRevenue{}
	}
	sorted := make([]oms.DailyStat, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, okA := view.ParseDate(sorted[i].Date)
		b, okB := view.ParseDate(sorted[j].Date)
		if okA != okB {
			return okA
		}
		return okA && a.Before(b)
	})

	out := make([]oms.DailyRevenue, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		delta := sorted[i].TotalSale - sorted[i-1].TotalSale
		if delta < 0 {
			delta = 0
		}
		out = append(out, oms.DailyRevenue{
			Date:   sorted[i].Date,
			Amount: decimal.NewFromInt(delta).Mul(PricePerSale).IntPart(),
		})
	}
	return out
}

// TodayGrowth compares current registry totals with the latest daily stat.
// Without stats the growth is the totals themselves.
func TodayGrowth(stores []oms.Store, stats []oms.DailyStat) oms.Growth {
	listing, sale := totals(stores)
	g := oms.Growth{
		TotalListingNow: listing.IntPart(),
		TotalSaleNow:    sale.IntPart(),
	}
	latest, ok := latestStat(stats)
	if !ok {
		g.Listing = g.TotalListingNow
		g.Sale = g.TotalSaleNow
		return g
	}
	g.Listing = g.TotalListingNow - latest.TotalListing
	g.Sale = g.TotalSaleNow - latest.TotalSale
	return g
}

func latestStat(stats []oms.DailyStat) (oms.DailyStat, bool) {
	if len(stats) == 0 {
		return oms.DailyStat{}, false
	}
	best := stats[len(stats)-1]
	bestAt, bestOK := view.ParseDate(best.Date)
	for _, st := range stats {
		at, ok := view.ParseDate(st.Date)
		if ok && (!bestOK || at.After(bestAt)) {
			best, bestAt, bestOK = st, at, true
		}
	}
	return best, true
}
