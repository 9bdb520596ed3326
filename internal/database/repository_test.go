package database

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSnapshotRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	dbCtx := setupTestDB(t)
	repo := NewSnapshotRepository(dbCtx)

	missing, err := repo.Find(ctx, "orders", "2024-03")
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing snapshot, got %+v", missing)
	}

	fetched := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	rec := SnapshotRecord{
		Kind:      "orders",
		ScopeKey:  "2024-03",
		Handle:    "file-123",
		Payload:   []byte(`[{"id":"A"}]`),
		ItemCount: 1,
		FetchedAt: fetched,
	}
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := repo.Find(ctx, "orders", "2024-03")
	if err != nil || got == nil {
		t.Fatalf("Find after save failed: %v", err)
	}
	if got.Handle != "file-123" || string(got.Payload) != `[{"id":"A"}]` || got.ItemCount != 1 {
		t.Fatalf("unexpected snapshot %+v", got)
	}
	if !got.FetchedAt.Equal(fetched) {
		t.Fatalf("expected fetched_at %v, got %v", fetched, got.FetchedAt)
	}

	rec.Payload = []byte(`[]`)
	rec.ItemCount = 0
	rec.Handle = ""
	if err := repo.Save(ctx, rec); err != nil {
		t.Fatalf("second Save returned error: %v", err)
	}
	got, _ = repo.Find(ctx, "orders", "2024-03")
	if string(got.Payload) != `[]` || got.Handle != "" {
		t.Fatalf("expected snapshot to be replaced, got %+v", got)
	}

	if err := repo.Save(ctx, SnapshotRecord{Kind: "stores", Payload: []byte(`[]`), FetchedAt: fetched}); err != nil {
		t.Fatalf("Save stores returned error: %v", err)
	}
	all, err := repo.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll returned error: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(all))
	}

	deleted, err := repo.Delete(ctx, "orders", "2024-03")
	if err != nil || !deleted {
		t.Fatalf("Delete failed: %v deleted=%v", err, deleted)
	}
	deleted, err = repo.Delete(ctx, "orders", "2024-03")
	if err != nil || deleted {
		t.Fatalf("second Delete should report nothing removed: %v deleted=%v", err, deleted)
	}

	if err := repo.Save(ctx, SnapshotRecord{}); err == nil {
		t.Fatalf("expected error for snapshot without kind")
	}
}

func TestMutationRepositoryLifecycle(t *testing.T) {
	ctx := context.Background()
	dbCtx := setupTestDB(t)
	repo := NewMutationRepository(dbCtx)

	base := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	first := MutationRecord{ID: "01A", Kind: "create", RecordID: "A1", ScopeKey: "2024-03", Status: "pending", StartedAt: base}
	second := MutationRecord{ID: "01B", Kind: "edit", RecordID: "A1", ScopeKey: "2024-03", Status: "pending", StartedAt: base.Add(time.Minute)}

	for _, rec := range []MutationRecord{first, second} {
		if err := repo.Insert(ctx, rec); err != nil {
			t.Fatalf("Insert returned error: %v", err)
		}
	}

	if err := repo.Finish(ctx, "01A", "failed", "sheet locked", base.Add(time.Second)); err != nil {
		t.Fatalf("Finish returned error: %v", err)
	}
	if err := repo.Finish(ctx, "missing", "failed", "", base); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	got, err := repo.FindByID(ctx, "01A")
	if err != nil || got == nil {
		t.Fatalf("FindByID failed: %v", err)
	}
	if got.Status != "failed" || got.Error != "sheet locked" || !got.Finished() {
		t.Fatalf("unexpected mutation %+v", got)
	}

	recent, err := repo.ListRecent(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecent returned error: %v", err)
	}
	if len(recent) != 2 || recent[0].ID != "01B" {
		t.Fatalf("expected newest first, got %+v", recent)
	}

	unfinished, err := repo.ListUnfinished(ctx)
	if err != nil {
		t.Fatalf("ListUnfinished returned error: %v", err)
	}
	if len(unfinished) != 1 || unfinished[0].ID != "01B" {
		t.Fatalf("expected only 01B unfinished, got %+v", unfinished)
	}

	byRecord, err := repo.ListByRecord(ctx, "A1")
	if err != nil || len(byRecord) != 2 {
		t.Fatalf("ListByRecord failed: %v (%d rows)", err, len(byRecord))
	}

	pruned, err := repo.Prune(ctx, base.Add(time.Hour))
	if err != nil {
		t.Fatalf("Prune returned error: %v", err)
	}
	if pruned != 1 {
		t.Fatalf("expected only the finished mutation to be pruned, got %d", pruned)
	}

	if err := repo.Insert(ctx, MutationRecord{}); err == nil {
		t.Fatalf("expected error for mutation without id")
	}
}
