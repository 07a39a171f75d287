package reliability

import (
	"sync"

	"modelhub/pkg/types"
)

// BreakerCache caches Breaker instances by types.RuntimeKey rather than by
// alias, mirroring the registry's own per-key instance cache: two aliases
// that dedupe to the same loaded instance (§8 scenario 1) share one
// breaker, so one alias's breaker opening protects the shared backend from
// the other alias's continued calls, per §4.5's "per RuntimeKey" scoping.
type BreakerCache struct {
	mu       sync.Mutex
	breakers map[types.RuntimeKey]*Breaker
}

// NewBreakerCache constructs an empty BreakerCache.
func NewBreakerCache() *BreakerCache {
	return &BreakerCache{breakers: make(map[types.RuntimeKey]*Breaker)}
}

// GetOrCreate returns the cached Breaker for key, building one via build on
// first use. build runs at most once per key while mu is held, so two
// concurrent first-uses of the same key never race to install different
// Breaker instances.
func (c *BreakerCache) GetOrCreate(key types.RuntimeKey, build func() *Breaker) *Breaker {
	c.mu.Lock()
	defer c.mu.Unlock()
	if b, ok := c.breakers[key]; ok {
		return b
	}
	b := build()
	c.breakers[key] = b
	return b
}
