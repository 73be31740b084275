package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	cfg := Default()

	if cfg.Layout.GridUnit != 5 {
		t.Errorf("GridUnit = %v, want 5", cfg.Layout.GridUnit)
	}
	if cfg.Layout.Tolerance != 10 {
		t.Errorf("Tolerance = %v, want 10", cfg.Layout.Tolerance)
	}
	if cfg.Walls.Thickness != 1 || cfg.Walls.Material != "stone" {
		t.Errorf("Walls = %+v, want 1ft stone", cfg.Walls)
	}
	if cfg.Store.Backend != "memory" {
		t.Errorf("Backend = %q, want memory", cfg.Store.Backend)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "floorsmith.toml")
	body := `
[layout]
grid_unit = 2.5

[walls]
material = "brick"

[store]
backend = "redis"

[store.redis]
addr = "cache:6379"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, applied, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if applied != path {
		t.Errorf("applied = %q, want %q", applied, path)
	}

	// Overridden fields.
	if cfg.Layout.GridUnit != 2.5 {
		t.Errorf("GridUnit = %v, want 2.5", cfg.Layout.GridUnit)
	}
	if cfg.Walls.Material != "brick" {
		t.Errorf("Material = %q, want brick", cfg.Walls.Material)
	}
	if cfg.Store.Backend != "redis" || cfg.Store.Redis.Addr != "cache:6379" {
		t.Errorf("Store = %+v", cfg.Store)
	}

	// Untouched fields keep their defaults.
	if cfg.Layout.Tolerance != 10 {
		t.Errorf("Tolerance = %v, want default 10", cfg.Layout.Tolerance)
	}
	if cfg.Walls.Thickness != 1 {
		t.Errorf("Thickness = %v, want default 1", cfg.Walls.Thickness)
	}
}

func TestLoadMissingExplicitFails(t *testing.T) {
	if _, _, err := Load(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
		t.Fatal("expected an error for a missing explicit config path")
	}
}

func TestLoadBadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[layout\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := Load(path); err == nil {
		t.Fatal("expected a parse error")
	}
}

func TestWallSettingsBackfill(t *testing.T) {
	cfg := Config{}
	ws := cfg.WallSettings()
	if ws.Thickness != 1 || ws.Material != "stone" {
		t.Errorf("WallSettings() = %+v, want defaults", ws)
	}
}
