// Package config loads floorsmith's project and user configuration.
//
// Configuration is defaults-first: [Default] returns a fully usable config
// and [Load] overlays TOML files on top of it, so a missing or partial file
// never leaves a zero value behind. The search order is an explicit path (the
// --config flag), then ./floorsmith.toml, then
// ~/.config/floorsmith/config.toml; the first file found wins.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/floorsmith/pkg/layout"
	"github.com/matzehuels/floorsmith/pkg/plan"
	"github.com/matzehuels/floorsmith/pkg/plan/doors"
)

// FileName is the project-local config file looked up in the working
// directory.
const FileName = "floorsmith.toml"

// Config is the full floorsmith configuration tree.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Walls  WallsConfig  `toml:"walls"`
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
}

// LayoutConfig tunes the layout and door-sync engines.
type LayoutConfig struct {
	// GridUnit is the snap grid in feet.
	GridUnit float64 `toml:"grid_unit"`

	// Tolerance is the reciprocal-door position tolerance in feet.
	Tolerance float64 `toml:"tolerance"`
}

// WallsConfig sets the global wall defaults applied to new plans.
type WallsConfig struct {
	Thickness float64 `toml:"thickness"`
	Material  string  `toml:"material"`
}

// ServerConfig configures the HTTP host.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// StoreConfig selects and configures the session store backend.
type StoreConfig struct {
	// Backend is one of "memory", "file", "redis", "mongo", "postgres".
	Backend string `toml:"backend"`

	File     FileStoreConfig     `toml:"file"`
	Redis    RedisStoreConfig    `toml:"redis"`
	Mongo    MongoStoreConfig    `toml:"mongo"`
	Postgres PostgresStoreConfig `toml:"postgres"`
}

// FileStoreConfig configures the JSON directory store.
type FileStoreConfig struct {
	Dir string `toml:"dir"`
}

// RedisStoreConfig configures the Redis store.
type RedisStoreConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// MongoStoreConfig configures the MongoDB store.
type MongoStoreConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// PostgresStoreConfig configures the Postgres store.
type PostgresStoreConfig struct {
	DSN string `toml:"dsn"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Layout: LayoutConfig{
			GridUnit:  layout.DefaultGridUnit,
			Tolerance: doors.DefaultTolerance,
		},
		Walls: WallsConfig{
			Thickness: plan.DefaultWallThickness,
			Material:  plan.DefaultWallMaterial,
		},
		Server: ServerConfig{
			Addr: ":8420",
		},
		Store: StoreConfig{
			Backend: "memory",
			File:    FileStoreConfig{Dir: defaultStoreDir()},
			Redis:   RedisStoreConfig{Addr: "localhost:6379"},
			Mongo: MongoStoreConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "floorsmith",
				Collection: "sessions",
			},
			Postgres: PostgresStoreConfig{
				DSN: "postgres://localhost:5432/floorsmith",
			},
		},
	}
}

// Load builds the configuration from defaults plus the first config file
// found. An explicit non-empty path must exist; the well-known locations are
// optional. The path of the applied file is returned ("" when only defaults
// apply).
func Load(explicit string) (Config, string, error) {
	cfg := Default()

	path, required := explicit, explicit != ""
	if path == "" {
		path = firstExisting(searchPaths())
	}
	if path == "" {
		return cfg, "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, "", nil
		}
		return cfg, "", fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, "", fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, path, nil
}

// WallSettings converts the configured wall defaults to the engine shape.
func (c Config) WallSettings() plan.WallSettings {
	ws := plan.WallSettings{Thickness: c.Walls.Thickness, Material: c.Walls.Material}
	if ws.Thickness <= 0 {
		ws.Thickness = plan.DefaultWallThickness
	}
	if ws.Material == "" {
		ws.Material = plan.DefaultWallMaterial
	}
	return ws
}

func searchPaths() []string {
	paths := []string{FileName}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "floorsmith", "config.toml"))
	}
	return paths
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

func defaultStoreDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".floorsmith/sessions"
	}
	return filepath.Join(home, ".floorsmith", "sessions")
}
