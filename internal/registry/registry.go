// Package registry is the deduplicating cache of loaded model instances,
// keyed by types.RuntimeKey, with per-key load coordination so that
// concurrent resolutions of the same key share a single provider.Load call.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelhub/pkg/types"
)

var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the registry.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Instance is a loaded model handle plus the bookkeeping the runtime facade
// needs to build a reliability wrapper around it.
type Instance struct {
	Key        types.RuntimeKey
	ProviderID string
	Handle     types.LoadedModelHandle
	CreatedAt  time.Time
}

// keyLock is a single-token channel semaphore rather than a sync.Mutex:
// acquiring it is a select against ctx.Done(), so a cancelled caller simply
// never takes the token instead of blocking inside a goroutine that would
// go on to acquire (and never release) a sync.Mutex on the caller's behalf.
type keyLock chan struct{}

func newKeyLock() keyLock {
	l := make(keyLock, 1)
	l <- struct{}{}
	return l
}

// Registry caches Instances by RuntimeKey and coordinates concurrent loads.
//
// The instances map favors read-heavy access (RWMutex, shared reads on the
// cache-hit path); a separate map of per-key locks is protected by its own
// short-held mutex so creating or fetching a key's lock never blocks on an
// unrelated key's in-flight load.
type Registry struct {
	mu        sync.RWMutex
	instances map[types.RuntimeKey]*Instance

	locksMu sync.Mutex
	locks   map[types.RuntimeKey]keyLock
}

// New constructs an empty Registry.
func New() *Registry {
	return &Registry{
		instances: make(map[types.RuntimeKey]*Instance),
		locks:     make(map[types.RuntimeKey]keyLock),
	}
}

// Loader loads a model instance for spec. Implemented by
// types.ModelProvider.Load in production; tests may supply a closure.
type Loader func(ctx context.Context, spec *types.AliasSpec) (types.LoadedModelHandle, error)

// Size reports the number of distinct loaded instances currently cached.
// Exposed for tests asserting dedup (§8 scenario 1: two aliases sharing one
// instance means registry size is 1).
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}

// GetOrLoad implements the §4.4 load contract: fast-path cache check, then
// per-key load-lock coordination, then a bounded call to load. A failed or
// timed-out load is never cached; the next caller retries from scratch.
// Cancelling ctx abandons only the calling goroutine's wait — an in-flight
// load started by another caller continues to completion (or its own
// loadTimeout) and its result is still cached, per §5: a load already in
// progress never cancels because other waiters may depend on it.
func (r *Registry) GetOrLoad(ctx context.Context, key types.RuntimeKey, providerID string, loadTimeout time.Duration, load Loader, spec *types.AliasSpec) (*Instance, error) {
	if inst, ok := r.lookup(key); ok {
		return inst, nil
	}

	lock := r.lockFor(key)

	select {
	case <-lock:
	case <-ctx.Done():
		return nil, types.ErrTimeout()
	}

	if inst, ok := r.lookup(key); ok {
		lock <- struct{}{}
		return inst, nil
	}

	type result struct {
		inst *Instance
		err  error
	}
	done := make(chan result, 1)

	// This goroutine owns the key lock until the load finishes, bounded
	// only by loadTimeout against an independent background context --
	// never by ctx, the initiating caller's own context. A caller that
	// abandons its wait below only stops waiting; it never cancels the
	// load, releases the lock, or drops the cache entry on another
	// caller's behalf.
	go func() {
		loadCtx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()

		type loadResult struct {
			handle types.LoadedModelHandle
			err    error
		}
		loaded := make(chan loadResult, 1)
		go func() {
			h, err := load(loadCtx, spec)
			loaded <- loadResult{h, err}
		}()

		var res loadResult
		select {
		case res = <-loaded:
		case <-loadCtx.Done():
			res = loadResult{err: types.ErrTimeout()}
		}

		var inst *Instance
		if res.err == nil {
			inst = &Instance{
				Key:        key,
				ProviderID: providerID,
				Handle:     res.handle,
				CreatedAt:  time.Now(),
			}
			r.mu.Lock()
			r.instances[key] = inst
			r.mu.Unlock()
		}

		// The instance is cached before the key lock is released, so the
		// next waiter to take the lock finds it on its re-check.
		lock <- struct{}{}
		r.locksMu.Lock()
		delete(r.locks, key)
		r.locksMu.Unlock()

		if res.err != nil {
			if zlog != nil {
				zlog.Error().Str("provider", providerID).Err(res.err).Msg("model load failed")
			}
			done <- result{nil, res.err}
			return
		}
		done <- result{inst, nil}
	}()

	select {
	case res := <-done:
		return res.inst, res.err
	case <-ctx.Done():
		return nil, types.ErrTimeout()
	}
}

func (r *Registry) lookup(key types.RuntimeKey) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	inst, ok := r.instances[key]
	return inst, ok
}

// Lookup reports whether key already has a cached Instance, without forcing
// a load. Used by the runtime facade for best-effort AliasState reporting.
func (r *Registry) Lookup(key types.RuntimeKey) (*Instance, bool) {
	return r.lookup(key)
}

func (r *Registry) lockFor(key types.RuntimeKey) keyLock {
	r.locksMu.Lock()
	defer r.locksMu.Unlock()
	l, ok := r.locks[key]
	if !ok {
		l = newKeyLock()
		r.locks[key] = l
	}
	return l
}
