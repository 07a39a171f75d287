// Package cache resolves where local providers should cache downloaded
// model weights (SPEC_FULL.md's Supplemented Features §1, ported from
// original_source/src/cache.rs).
package cache

import (
	"os"
	"path/filepath"
)

// RootEnv is the environment variable overriding the cache root directory.
const RootEnv = "MODELHUB_CACHE_DIR"

// defaultRoot is used when RootEnv is unset, relative to the working
// directory — mirrors the original's ".uni_cache".
const defaultRoot = ".modelhub_cache"

// SanitizeModelName replaces '/' with "--" and strips any character that is
// not alphanumeric, '-', '_', or '.', so a model ID is always safe to use as
// a directory component.
func SanitizeModelName(modelID string) string {
	replaced := make([]rune, 0, len(modelID))
	for _, r := range modelID {
		if r == '/' {
			replaced = append(replaced, '-', '-')
			continue
		}
		if isAlphanumeric(r) || r == '-' || r == '_' || r == '.' {
			replaced = append(replaced, r)
		}
	}
	return string(replaced)
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') ||
		r > 127 // permissive for non-ASCII letters/digits, matching Rust's char::is_alphanumeric
}

// Root returns the cache root directory, honoring RootEnv.
func Root() string {
	if v := os.Getenv(RootEnv); v != "" {
		return v
	}
	return defaultRoot
}

// ResolveProviderCacheRoot returns the root cache directory for a provider
// (no model sub-directory), e.g. for setting a process-global cache env var
// before the first model load.
func ResolveProviderCacheRoot(providerID string) string {
	return filepath.Join(Root(), providerID)
}

// ResolveCacheDir resolves the cache directory for a provider and model, in
// priority order: an explicit "cache_dir" option, then RootEnv, then the
// default root.
func ResolveCacheDir(providerID, modelID string, options map[string]any) string {
	if dir, ok := options["cache_dir"].(string); ok && dir != "" {
		return dir
	}
	return filepath.Join(Root(), providerID, SanitizeModelName(modelID))
}
