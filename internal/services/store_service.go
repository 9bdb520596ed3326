package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/omsdash/omsctl/internal/gateway"
	"github.com/omsdash/omsctl/internal/logging"
	"github.com/omsdash/omsctl/internal/oms"
)

// NewStore is the input of AddStore.
type NewStore struct {
	Name   string
	URL    string
	Region string
}

// StoreService wraps the store registry.
type StoreService struct {
	caller gateway.Caller
	logger *slog.Logger
	now    func() time.Time
}

func NewStoreService(caller gateway.Caller, logger *slog.Logger) *StoreService {
	return &StoreService{
		caller: caller,
		logger: logging.OrDefault(logger).With("service", "stores"),
		now:    time.Now,
	}
}

// GetStores lists the registry. Listing and sale counters are normalized to
// decimal strings and a missing status means LIVE.
func (s *StoreService) GetStores(ctx context.Context) ([]oms.Store, error) {
	rows, err := decodeRows(s.caller.Call(ctx, "getStores", gateway.GET, nil))
	if err != nil {
		return nil, err
	}
	stores := make([]oms.Store, 0, len(rows))
	for _, r := range rows {
		stores = append(stores, oms.Store{
			ID:      r.text("id"),
			Name:    r.text("name"),
			URL:     r.text("url"),
			Region:  r.text("region"),
			Status:  r.textOr("LIVE", "status"),
			Listing: sheetNumber(r["listing"]),
			Sale:    sheetNumber(r["sale"]),
		})
	}
	return stores, nil
}

// NextStoreID derives a store id from the clock: ST- and the last six
// digits of the unix millisecond timestamp.
func NextStoreID(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}
	return "ST-" + ms
}

// BuildStore is the record AddStore sends for in: a fresh id, LIVE status
// and zero counters.
func BuildStore(in NewStore, now time.Time) oms.Store {
	return oms.Store{
		ID:      NextStoreID(now),
		Name:    strings.TrimSpace(in.Name),
		URL:     strings.TrimSpace(in.URL),
		Region:  strings.TrimSpace(in.Region),
		Status:  "LIVE",
		Listing: "0",
		Sale:    "0",
	}
}

// AddStore registers a store and returns it as sent.
func (s *StoreService) AddStore(ctx context.Context, in NewStore) (oms.Store, error) {
	store := BuildStore(in, s.now())
	if err := s.InsertStore(ctx, store); err != nil {
		return oms.Store{}, err
	}
	return store, nil
}

// InsertStore sends a fully built store record.
func (s *StoreService) InsertStore(ctx context.Context, store oms.Store) error {
	if store.Name == "" {
		return fmt.Errorf("store name is required")
	}
	payload, err := gateway.Fields(store)
	if err != nil {
		return err
	}
	if err := post(ctx, s.caller, "addStore", payload, "failed to add store"); err != nil {
		return err
	}
	s.logger.Info("store added", "id", store.ID, "name", store.Name)
	return nil
}

func (s *StoreService) DeleteStore(ctx context.Context, id string) error {
	if id == "" {
		return ErrNotFound
	}
	return post(ctx, s.caller, "deleteStore", map[string]any{"id": id}, "failed to delete store")
}

// GetStoreHistory returns the daily snapshots of one store.
func (s *StoreService) GetStoreHistory(ctx context.Context, storeID string) ([]oms.StoreHistoryItem, error) {
	res := s.caller.Call(ctx, "getStoreHistory", gateway.POST, map[string]any{"storeId": storeID})
	rows, err := decodeRows(res)
	if err != nil {
		return nil, err
	}
	history := make([]oms.StoreHistoryItem, 0, len(rows))
	for _, r := range rows {
		history = append(history, oms.StoreHistoryItem{
			Date:    r.text("date"),
			StoreID: r.textOr(storeID, "storeId"),
			Listing: r.number("listing").IntPart(),
			Sale:    r.number("sale").IntPart(),
		})
	}
	return history, nil
}
