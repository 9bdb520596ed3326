package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
)

func TestGetStoresNormalizes(t *testing.T) {
	f := newFakeCaller().reply("getStores", `[
		{"id":"ST-1","name":"Shop A","listing":"1,200","sale":15},
		{"id":"ST-2","name":"Shop B","status":"DIE","region":"US","listing":"n/a"}
	]`)
	stores, err := NewStoreService(f, logging.Discard()).GetStores(context.Background())
	require.NoError(t, err)
	require.Len(t, stores, 2)

	assert.Equal(t, "LIVE", stores[0].Status)
	assert.Equal(t, "1200", stores[0].Listing)
	assert.Equal(t, "15", stores[0].Sale)
	assert.Equal(t, "", stores[0].Region)

	assert.Equal(t, "DIE", stores[1].Status)
	assert.Equal(t, "0", stores[1].Listing)
	assert.Equal(t, "0", stores[1].Sale)
}

func TestNextStoreID(t *testing.T) {
	now := time.UnixMilli(1712345678901)
	assert.Equal(t, "ST-678901", NextStoreID(now))
}

func TestAddStoreDefaults(t *testing.T) {
	f := newFakeCaller()
	svc := NewStoreService(f, logging.Discard())
	svc.now = func() time.Time { return time.UnixMilli(1712345678901) }

	store, err := svc.AddStore(context.Background(), NewStore{Name: " Shop C ", URL: "https://c.example"})
	require.NoError(t, err)
	assert.Equal(t, oms.Store{ID: "ST-678901", Name: "Shop C", URL: "https://c.example", Status: "LIVE", Listing: "0", Sale: "0"}, store)

	c := f.last()
	assert.Equal(t, gateway.POST, c.Method)
	assert.Equal(t, "ST-678901", c.Payload["id"])

	_, err = svc.AddStore(context.Background(), NewStore{})
	assert.Error(t, err)
}

func TestDeleteStoreAndHistory(t *testing.T) {
	f := newFakeCaller().reply("getStoreHistory", `[{"date":"2024-03-01","listing":10,"sale":"2"}]`)
	svc := NewStoreService(f, logging.Discard())

	require.NoError(t, svc.DeleteStore(context.Background(), "ST-1"))
	assert.Equal(t, map[string]any{"id": "ST-1"}, f.last().Payload)

	history, err := svc.GetStoreHistory(context.Background(), "ST-1")
	require.NoError(t, err)
	assert.Equal(t, []oms.StoreHistoryItem{{Date: "2024-03-01", StoreID: "ST-1", Listing: 10, Sale: 2}}, history)
	assert.Equal(t, gateway.POST, f.last().Method)
}

func TestMetrics(t *testing.T) {
	stores := []oms.Store{{Sale: "3"}, {Sale: "7"}, {Sale: "oops"}}
	m := Metrics(stores)
	assert.Equal(t, int64(5000000), m.Revenue)
	assert.Equal(t, int64(1500000), m.NetIncome)
	assert.Equal(t, int64(55000000), m.InventoryValue)
	assert.Zero(t, m.Debt)
}

func TestDailyRevenue(t *testing.T) {
	assert.Empty(t, DailyRevenue([]oms.DailyStat{{Date: "2024-03-01", TotalSale: 4}}))

	stats := []oms.DailyStat{
		{Date: "2024-03-03", TotalSale: 9},
		{Date: "2024-03-01", TotalSale: 4},
		{Date: "2024-03-02", TotalSale: 10},
	}
	got := DailyRevenue(stats)
	assert.Equal(t, []oms.DailyRevenue{
		{Date: "2024-03-02", Amount: 3000000},
		{Date: "2024-03-03", Amount: 0},
	}, got)
	assert.Equal(t, "2024-03-03", stats[0].Date, "input must not be reordered")
}

func TestTodayGrowth(t *testing.T) {
	stores := []oms.Store{{Listing: "100", Sale: "10"}, {Listing: "50", Sale: "5"}}

	none := TodayGrowth(stores, nil)
	assert.Equal(t, oms.Growth{Listing: 150, Sale: 15, TotalListingNow: 150, TotalSaleNow: 15}, none)

	stats := []oms.DailyStat{
		{Date: "2024-03-02", TotalListing: 140, TotalSale: 12},
		{Date: "2024-03-01", TotalListing: 120, TotalSale: 8},
	}
	g := TodayGrowth(stores, stats)
	assert.Equal(t, int64(10), g.Listing)
	assert.Equal(t, int64(3), g.Sale)
}

func TestDashboardLoadsConcurrently(t *testing.T) {
	f := newFakeCaller().
		reply("getStores", `[{"id":"ST-1","listing":100,"sale":10}]`).
		reply("getDailyStats", `[{"date":"2024-03-01","totalListing":90,"totalSale":8},{"date":"2024-03-02","totalListing":95,"totalSale":9}]`)
	stores := NewStoreService(f, logging.Discard())
	d, err := NewStatsService(f, stores, logging.Discard()).Dashboard(context.Background())
	require.NoError(t, err)

	assert.Len(t, d.Stores, 1)
	assert.Len(t, d.Stats, 2)
	assert.Equal(t, int64(5000000), d.Metrics.Revenue)
	assert.Equal(t, []oms.DailyRevenue{{Date: "2024-03-02", Amount: 500000}}, d.DailyRevenue)
	assert.Equal(t, int64(5), d.Growth.Listing)
	assert.Equal(t, int64(1), d.Growth.Sale)
}

func TestDashboardFailsWhenStatsFail(t *testing.T) {
	f := newFakeCaller().reply("getStores", `[]`).fail("getDailyStats", "quota exceeded")
	_, err := NewStatsService(f, NewStoreService(f, nil), nil).Dashboard(context.Background())
	require.Error(t, err)
	assert.Equal(t, "quota exceeded", err.Error())
}

func TestDebugSnapshotPostsEmptyBody(t *testing.T) {
	f := newFakeCaller()
	require.NoError(t, NewStatsService(f, nil, nil).DebugSnapshot(context.Background()))
	assert.Equal(t, gateway.POST, f.last().Method)
	assert.Empty(t, f.last().Payload)
}
