package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/omsdash/omsctl/internal/config"
)

const currentVersion = 1

func setupTestDB(t *testing.T) *Context {
	t.Helper()
	tmp := t.TempDir()
	t.Setenv("OMS_DIR", tmp)

	ctx, err := CreateDatabase("")
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}

	t.Cleanup(func() {
		if err := CloseDatabase(ctx); err != nil {
			t.Fatalf("CloseDatabase error: %v", err)
		}
	})

	return ctx
}

func TestDatabaseCreationAndMigration(t *testing.T) {
	ctx := setupTestDB(t)

	dbPath := filepath.Join(config.GetDataDir(), "cache.db")
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file to exist at %s: %v", dbPath, err)
	}

	var version int
	var dirty bool
	if err := ctx.DB.QueryRow("SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty); err != nil {
		t.Fatalf("failed to read schema_migrations: %v", err)
	}

	if version != currentVersion || dirty {
		t.Fatalf("expected clean version %d, got %d (dirty=%v)", currentVersion, version, dirty)
	}

	tables := []string{"snapshots", "mutations"}
	for _, table := range tables {
		if !tableExists(t, ctx.DB, table) {
			t.Fatalf("expected table %s to exist", table)
		}
	}
}

func TestReopenKeepsData(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cache.db")

	first, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("CreateDatabase returned error: %v", err)
	}
	insertSnapshot(t, first.DB, "orders", "2024-03")
	if err := CloseDatabase(first); err != nil {
		t.Fatalf("CloseDatabase error: %v", err)
	}

	second, err := CreateDatabase(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer func() {
		_ = CloseDatabase(second)
	}()
	assertCount(t, second.DB, "snapshots", 1)
}

func TestClearDatabaseRemovesAllRows(t *testing.T) {
	ctx := setupTestDB(t)

	insertSnapshot(t, ctx.DB, "orders", "2024-03")
	insertMutation(t, ctx.DB, "01HZZZZZZZZZZZZZZZZZZZZZZZ", "A1")

	assertCount(t, ctx.DB, "snapshots", 1)
	assertCount(t, ctx.DB, "mutations", 1)

	if err := ClearDatabase(ctx); err != nil {
		t.Fatalf("ClearDatabase returned error: %v", err)
	}

	assertCount(t, ctx.DB, "snapshots", 0)
	assertCount(t, ctx.DB, "mutations", 0)
}

func TestCloseNilContext(t *testing.T) {
	if err := CloseDatabase(nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := ClearDatabase(nil); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func tableExists(t *testing.T, db *sql.DB, table string) bool {
	t.Helper()
	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		t.Fatalf("tableExists query failed for %s: %v", table, err)
	}
	return true
}

func insertSnapshot(t *testing.T, db *sql.DB, kind, scopeKey string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO snapshots(kind, scope_key, payload, fetched_at) VALUES(?, ?, ?, ?)`, kind, scopeKey, []byte("[]"), time.Now().UnixMilli()); err != nil {
		t.Fatalf("insertSnapshot failed: %v", err)
	}
}

func insertMutation(t *testing.T, db *sql.DB, id, recordID string) {
	t.Helper()
	if _, err := db.Exec(`INSERT INTO mutations(id, kind, record_id, status, started_at) VALUES(?, 'create', ?, 'pending', ?)`, id, recordID, time.Now().UnixMilli()); err != nil {
		t.Fatalf("insertMutation failed: %v", err)
	}
}

func assertCount(t *testing.T, db *sql.DB, table string, expected int) {
	t.Helper()
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count); err != nil {
		t.Fatalf("count query failed for %s: %v", table, err)
	}
	if count != expected {
		t.Fatalf("expected %s to have %d rows, got %d", table, expected, count)
	}
}
