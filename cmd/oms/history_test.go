package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/omsdash/omsctl/internal/mutation"
	"github.com/omsdash/omsctl/internal/oms"
	"github.com/omsdash/omsctl/internal/services"
)

func TestHistoryClearEmptiesCache(t *testing.T) {
	t.Setenv("OMS_DIR", t.TempDir())
	ctx := context.Background()

	dbCtx, closeDB, err := openCache()
	if err != nil {
		t.Fatalf("openCache: %v", err)
	}
	journal := services.NewMutationJournal(dbCtx)
	if err := journal.Started(ctx, mutation.Entry{
		ID:        "01HZZZZZZZZZZZZZZZZZZZZZZZ",
		Kind:      mutation.KindCreate,
		RecordID:  "ORD-1",
		Scope:     "2024-03",
		Status:    mutation.StatusPending,
		StartedAt: time.Now(),
	}); err != nil {
		t.Fatalf("Started: %v", err)
	}
	snaps := services.NewSnapshotService(dbCtx)
	if err := snaps.Save(ctx, services.SnapshotOrders, "2024-03", "f3", []oms.Order{{ID: "ORD-1"}}, 1); err != nil {
		t.Fatalf("Save: %v", err)
	}
	closeDB()

	cmd := newHistoryCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--clear"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("history --clear: %v", err)
	}
	if !strings.Contains(out.String(), "Cleared") {
		t.Errorf("unexpected output %q", out.String())
	}

	dbCtx, closeDB, err = openCache()
	if err != nil {
		t.Fatalf("openCache: %v", err)
	}
	defer closeDB()

	entries, err := services.NewMutationJournal(dbCtx).Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected empty journal, got %d entries", len(entries))
	}
	list, err := services.NewSnapshotService(dbCtx).List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no snapshots, got %d", len(list))
	}
}
