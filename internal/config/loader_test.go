package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadYAML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.yaml", "addr: :9999\ncatalog_path: /tmp/catalog.json\ncache_dir: /tmp/cache\nlog_level: debug\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.CatalogPath != "/tmp/catalog.json" || cfg.CacheDir != "/tmp/cache" || cfg.LogLevel != "debug" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.json", `{"addr":":7070","catalog_path":"/c.json","cache_dir":"/cache","log_level":"warn"}`)
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" || cfg.CatalogPath != "/c.json" || cfg.CacheDir != "/cache" || cfg.LogLevel != "warn" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadTOML(t *testing.T) {
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.toml", "addr=\":8081\"\ncatalog_path=\"/x.json\"\ncache_dir=\"/xc\"\nlog_level=\"error\"\n")
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8081" || cfg.CatalogPath != "/x.json" || cfg.CacheDir != "/xc" || cfg.LogLevel != "error" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on empty path")
	}
	d := t.TempDir()
	p := writeTempFile(t, d, "cfg.txt", "not supported")
	if _, err := Load(p); err == nil {
		t.Fatalf("expected unsupported extension error")
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Setenv("MODELHUB_ADDR", "")
	t.Setenv("MODELHUB_LOG_LEVEL", "")
	t.Setenv("MODELHUB_CACHE_DIR", "")

	cfg := Config{}.ApplyDefaults()
	if cfg.Addr != DefaultAddr {
		t.Fatalf("expected default addr %q, got %q", DefaultAddr, cfg.Addr)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Fatalf("expected default log level %q, got %q", DefaultLogLevel, cfg.LogLevel)
	}
}

func TestApplyDefaultsHonorsEnv(t *testing.T) {
	t.Setenv("MODELHUB_ADDR", ":1234")
	t.Setenv("MODELHUB_LOG_LEVEL", "trace")

	cfg := Config{}.ApplyDefaults()
	if cfg.Addr != ":1234" || cfg.LogLevel != "trace" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestApplyDefaultsExpandsHomePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir available: %v", err)
	}

	cfg := Config{CacheDir: "~/models-cache", CatalogPath: "~/catalogs/main.json"}.ApplyDefaults()
	if cfg.CacheDir != filepath.Join(home, "models-cache") {
		t.Fatalf("cache dir not expanded: %q", cfg.CacheDir)
	}
	if cfg.CatalogPath != filepath.Join(home, "catalogs/main.json") {
		t.Fatalf("catalog path not expanded: %q", cfg.CatalogPath)
	}
}
