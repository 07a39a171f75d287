package reliability

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultWrapperCacheSize bounds the number of distinct per-alias Wrappers
// kept alive at once. A long-lived host that registers many aliases over
// its lifetime should not grow this cache unboundedly; eviction here only
// drops the small Wrapper struct (retry/breaker config, a timeout), never a
// loaded model instance — instance eviction remains a non-goal.
const DefaultWrapperCacheSize = 4096

// WrapperCache is a bounded, concurrency-safe cache of Wrapper by alias.
type WrapperCache struct {
	mu  sync.Mutex
	lru *lru.Cache[string, *Wrapper]
}

// NewWrapperCache constructs a WrapperCache holding up to size entries.
func NewWrapperCache(size int) *WrapperCache {
	if size <= 0 {
		size = DefaultWrapperCacheSize
	}
	c, err := lru.New[string, *Wrapper](size)
	if err != nil {
		// Only returned for size <= 0, already guarded above.
		panic(err)
	}
	return &WrapperCache{lru: c}
}

// GetOrCreate returns the cached Wrapper for alias, building one via build
// on first use. build runs at most once per alias while mu is held, so two
// concurrent first-uses of the same alias never race to install different
// Wrapper instances.
func (c *WrapperCache) GetOrCreate(alias string, build func() *Wrapper) *Wrapper {
	c.mu.Lock()
	defer c.mu.Unlock()
	if w, ok := c.lru.Get(alias); ok {
		return w
	}
	w := build()
	c.lru.Add(alias, w)
	return w
}
