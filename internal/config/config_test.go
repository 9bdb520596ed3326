package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetDataDirWithExplicitEnv(t *testing.T) {
	tmpDir := t.TempDir()
	customDir := filepath.Join(tmpDir, "custom")

	t.Setenv("OMS_DIR", customDir)
	t.Setenv("XDG_DATA_HOME", "")

	got := GetDataDir()
	if got != customDir {
		t.Fatalf("expected %q, got %q", customDir, got)
	}
}

func TestGetDataDirFallsBackToXDG(t *testing.T) {
	tmpDir := t.TempDir()
	xdgDir := filepath.Join(tmpDir, "xdg")

	t.Setenv("OMS_DIR", "")
	t.Setenv("XDG_DATA_HOME", xdgDir)

	got := GetDataDir()
	want := filepath.Join(xdgDir, "omsctl")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestDerivedPaths(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("OMS_DIR", tmpDir)

	if got, want := GetDBPath(), filepath.Join(tmpDir, "cache.db"); got != want {
		t.Fatalf("GetDBPath expected %q, got %q", want, got)
	}
	if got, want := GetLockDir(), filepath.Join(tmpDir, "locks"); got != want {
		t.Fatalf("GetLockDir expected %q, got %q", want, got)
	}
	if got, want := GetLogPath(), filepath.Join(tmpDir, "oms.log"); got != want {
		t.Fatalf("GetLogPath expected %q, got %q", want, got)
	}
}

func TestGetConfigPathHonoursOverride(t *testing.T) {
	t.Setenv("OMS_CONFIG", "/etc/oms.yaml")
	if got := GetConfigPath(); got != "/etc/oms.yaml" {
		t.Fatalf("expected override, got %q", got)
	}
}

func TestEncodeLockName(t *testing.T) {
	input := "orders/2024.03_designer queue"
	got := EncodeLockName(input)
	if strings.ContainsAny(got, "/._ ") {
		t.Fatalf("expected encoded name to replace separators but got %q", got)
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("OMS_ENDPOINT", "")
	v, err := New(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Fatalf("expected default refresh interval, got %v", cfg.RefreshInterval)
	}
	if cfg.DefaultUnit != "Printway" {
		t.Fatalf("expected Printway default unit, got %q", cfg.DefaultUnit)
	}
	if cfg.Roles["admin"] != 1 || cfg.Roles["designer online"] != 5 {
		t.Fatalf("unexpected default roles %v", cfg.Roles)
	}
}

func TestWriteDefaultRoundTripsThroughLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "omsctl", "config.yaml")
	cfg := Default()
	cfg.Endpoint = "https://example.test/exec"
	cfg.RefreshInterval = 30 * time.Second
	cfg.Roles = map[string]int{"admin": 1, "packer": 7}

	if err := WriteDefault(path, cfg, false); err != nil {
		t.Fatalf("WriteDefault returned error: %v", err)
	}
	if err := WriteDefault(path, cfg, false); err == nil {
		t.Fatalf("expected second WriteDefault without force to fail")
	}

	v, err := New(path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	loaded, err := Load(v)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Endpoint != cfg.Endpoint {
		t.Fatalf("expected endpoint %q, got %q", cfg.Endpoint, loaded.Endpoint)
	}
	if loaded.RefreshInterval != 30*time.Second {
		t.Fatalf("expected 30s refresh interval, got %v", loaded.RefreshInterval)
	}
	if loaded.Roles["packer"] != 7 {
		t.Fatalf("expected packer rank 7, got %v", loaded.Roles)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("endpoint: https://file.test\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OMS_ENDPOINT", "https://env.test")

	v, err := New(path)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Endpoint != "https://env.test" {
		t.Fatalf("expected env endpoint, got %q", cfg.Endpoint)
	}
}
