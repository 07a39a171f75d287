// Package config loads the host-process configuration (listen address,
// catalog path, cache dir, log level) from YAML/JSON/TOML by extension,
// exactly as the teacher's internal/config/loader.go does for its own
// three-format host config. The model catalog itself is always JSON
// (see internal/catalog), independent of this file's format.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"modelhub/internal/common/fsutil"
)

// Config holds the tunables for the example host binary (cmd/modelhubd).
// Zero values mean "unspecified". Load does not fill defaults; callers apply
// them afterward via ApplyDefaults.
type Config struct {
	Addr        string `json:"addr" yaml:"addr" toml:"addr"`
	CatalogPath string `json:"catalog_path" yaml:"catalog_path" toml:"catalog_path"`
	CacheDir    string `json:"cache_dir" yaml:"cache_dir" toml:"cache_dir"`
	LogLevel    string `json:"log_level" yaml:"log_level" toml:"log_level"`
}

const (
	// DefaultAddr is used when Config.Addr and MODELHUB_ADDR are both unset.
	DefaultAddr = ":8080"
	// DefaultLogLevel is used when Config.LogLevel and MODELHUB_LOG_LEVEL
	// are both unset.
	DefaultLogLevel = "info"
)

// Load reads a configuration file based on its extension. Supports
// .yaml/.yml, .json, .toml.
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, err
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}

// ApplyDefaults fills unset fields from the MODELHUB_* environment
// variables, then from fixed defaults, and expands a leading '~' in any
// path-shaped field so config files and env vars can use "~/..." the way a
// shell would.
func (c Config) ApplyDefaults() Config {
	if c.Addr == "" {
		c.Addr = envOr("MODELHUB_ADDR", DefaultAddr)
	}
	if c.CacheDir == "" {
		c.CacheDir = os.Getenv("MODELHUB_CACHE_DIR")
	}
	if c.LogLevel == "" {
		c.LogLevel = envOr("MODELHUB_LOG_LEVEL", DefaultLogLevel)
	}
	if expanded, err := fsutil.ExpandHome(c.CacheDir); err == nil {
		c.CacheDir = expanded
	}
	if expanded, err := fsutil.ExpandHome(c.CatalogPath); err == nil {
		c.CatalogPath = expanded
	}
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
