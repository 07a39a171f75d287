// Package runtime is the facade (§4.6): builder, warmup orchestration, and
// typed resolvers over the catalog, provider directory, and registry.
package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelhub/internal/catalog"
	"modelhub/internal/registry"
	"modelhub/internal/reliability"
	"modelhub/pkg/types"
)

var zlog *zerolog.Logger

// SetLogger installs a structured logger used by the runtime facade.
func SetLogger(l zerolog.Logger) { zlog = &l }

// AliasState is the observable (diagnostic-only, best-effort) lifecycle
// state of an alias. See SPEC_FULL.md's Open Question decision: callers
// must not build control flow on it, since a concurrent load can make two
// successive calls disagree.
type AliasState int

const (
	AliasDeclared AliasState = iota
	AliasLoading
	AliasLoaded
	AliasFailed
)

func (s AliasState) String() string {
	switch s {
	case AliasDeclared:
		return "declared"
	case AliasLoading:
		return "loading"
	case AliasLoaded:
		return "loaded"
	case AliasFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Runtime wraps an immutable catalog and provider directory plus the
// mutable registry and per-alias wrapper cache. Obtain one via Builder.
type Runtime struct {
	dir      *catalog.Directory
	cat      *catalog.Catalog
	reg      *registry.Registry
	events   EventPublisher
	wrappers *reliability.WrapperCache
	breakers *reliability.BreakerCache

	loadingMu sync.Mutex
	loading   map[string]bool
	failedMu  sync.Mutex
	failed    map[string]error
}

// ContainsAlias reports whether alias is present in the catalog.
func (r *Runtime) ContainsAlias(alias string) bool { return r.cat.ContainsAlias(alias) }

// AliasSpec returns the catalog entry for alias, if present. Exposed read-only
// for diagnostic surfaces (e.g. an HTTP facade's /aliases endpoint) that need
// to describe an alias without loading it.
func (r *Runtime) AliasSpec(alias string) (*types.AliasSpec, bool) {
	spec, err := r.cat.Resolve(alias)
	if err != nil {
		return nil, false
	}
	return spec, true
}

// Aliases returns every alias currently in the catalog, in no particular
// order.
func (r *Runtime) Aliases() []string {
	specs := r.cat.All()
	out := make([]string, len(specs))
	for i, spec := range specs {
		out[i] = spec.Alias
	}
	return out
}

// Register validates and inserts spec into the live catalog under the same
// rules as build-time insertion (ported from the original's post-build
// register()). It does not load the model.
func (r *Runtime) Register(spec *types.AliasSpec) error {
	return r.cat.Insert(spec, r.dir)
}

// AliasState reports the best-effort, racy lifecycle state of alias.
func (r *Runtime) AliasState(alias string) (AliasState, bool) {
	spec, err := r.cat.Resolve(alias)
	if err != nil {
		return AliasDeclared, false
	}

	r.failedMu.Lock()
	if ferr, ok := r.failed[alias]; ok {
		r.failedMu.Unlock()
		_ = ferr
		return AliasFailed, true
	}
	r.failedMu.Unlock()

	r.loadingMu.Lock()
	if r.loading[alias] {
		r.loadingMu.Unlock()
		return AliasLoading, true
	}
	r.loadingMu.Unlock()

	key := types.KeyOf(spec)
	if _, ok := r.reg.Lookup(key); ok {
		return AliasLoaded, true
	}
	return AliasDeclared, true
}

// Embedding resolves alias, verifies its task is TaskEmbed, loads (if
// necessary), and returns an instrumented EmbeddingModel handle.
func (r *Runtime) Embedding(ctx context.Context, alias string) (types.EmbeddingModel, error) {
	handle, spec, err := r.resolveTyped(ctx, alias, types.TaskEmbed)
	if err != nil {
		return nil, err
	}
	model, ok := handle.(types.EmbeddingModel)
	if !ok {
		return nil, types.ErrCapabilityMismatch("alias %q does not implement EmbeddingModel", alias)
	}
	w := r.wrapperFor(alias, spec)
	return &reliability.InstrumentedEmbeddingModel{Inner: model, W: w}, nil
}

// Reranker resolves alias, verifies its task is TaskRerank, loads (if
// necessary), and returns an instrumented RerankerModel handle.
func (r *Runtime) Reranker(ctx context.Context, alias string) (types.RerankerModel, error) {
	handle, spec, err := r.resolveTyped(ctx, alias, types.TaskRerank)
	if err != nil {
		return nil, err
	}
	model, ok := handle.(types.RerankerModel)
	if !ok {
		return nil, types.ErrCapabilityMismatch("alias %q does not implement RerankerModel", alias)
	}
	w := r.wrapperFor(alias, spec)
	return &reliability.InstrumentedRerankerModel{Inner: model, W: w}, nil
}

// Generator resolves alias, verifies its task is TaskGenerate, loads (if
// necessary), and returns an instrumented GeneratorModel handle.
func (r *Runtime) Generator(ctx context.Context, alias string) (types.GeneratorModel, error) {
	handle, spec, err := r.resolveTyped(ctx, alias, types.TaskGenerate)
	if err != nil {
		return nil, err
	}
	model, ok := handle.(types.GeneratorModel)
	if !ok {
		return nil, types.ErrCapabilityMismatch("alias %q does not implement GeneratorModel", alias)
	}
	w := r.wrapperFor(alias, spec)
	return &reliability.InstrumentedGeneratorModel{Inner: model, W: w}, nil
}

// resolveTyped implements §4.6's typed-resolver contract: catalog lookup,
// task-tag check (before ever touching the registry), load-or-fetch, then
// hands the raw handle back for the caller's downcast.
func (r *Runtime) resolveTyped(ctx context.Context, alias string, want types.Task) (types.LoadedModelHandle, *types.AliasSpec, error) {
	spec, err := r.cat.Resolve(alias)
	if err != nil {
		return nil, nil, err
	}
	if spec.Task != want {
		return nil, nil, types.ErrCapabilityMismatch("alias %q has task %q, expected %q", alias, spec.Task, want)
	}

	handle, err := r.loadAlias(ctx, alias, spec)
	if err != nil {
		return nil, nil, err
	}
	return handle, spec, nil
}

func (r *Runtime) loadAlias(ctx context.Context, alias string, spec *types.AliasSpec) (types.LoadedModelHandle, error) {
	provider, ok := r.dir.Get(spec.ProviderID)
	if !ok {
		return nil, types.ErrProviderNotFound(spec.ProviderID)
	}

	corrID := newCorrelationID()

	r.loadingMu.Lock()
	r.loading[alias] = true
	r.loadingMu.Unlock()
	r.publish(Event{Name: "load_started", Alias: alias, CorrelationID: corrID})
	defer func() {
		r.loadingMu.Lock()
		delete(r.loading, alias)
		r.loadingMu.Unlock()
	}()

	key := types.KeyOf(spec)
	loadTimeout := time.Duration(spec.LoadTimeoutOrDefault()) * time.Second

	start := time.Now()
	inst, err := r.reg.GetOrLoad(ctx, key, spec.ProviderID, loadTimeout, r.loaderFor(provider), spec)
	elapsed := time.Since(start).Seconds()
	reliability.ObserveLoad(spec.ProviderID, spec.Task.String(), elapsed, err == nil)

	if err != nil {
		r.failedMu.Lock()
		r.failed[alias] = err
		r.failedMu.Unlock()
		r.publish(Event{Name: "load_failed", Alias: alias, CorrelationID: corrID, Fields: map[string]any{"error": err.Error()}})
		return nil, err
	}

	r.failedMu.Lock()
	delete(r.failed, alias)
	r.failedMu.Unlock()

	r.publish(Event{Name: "load_succeeded", Alias: alias, CorrelationID: corrID, Fields: map[string]any{"seconds": elapsed}})
	return inst.Handle, nil
}

func (r *Runtime) publish(e Event) {
	if r.events != nil {
		r.events.Publish(e)
	}
}

// loaderFor adapts a ModelProvider.Load into a registry.Loader, additionally
// running the loaded model's Warmup hook (ported from the original's
// post-load warmup step inside resolve_and_load_internal).
func (r *Runtime) loaderFor(provider types.ModelProvider) registry.Loader {
	return func(ctx context.Context, spec *types.AliasSpec) (types.LoadedModelHandle, error) {
		handle, err := provider.Load(ctx, spec)
		if err != nil {
			return nil, err
		}
		if err := warmupHandle(ctx, handle); err != nil {
			return nil, err
		}
		return handle, nil
	}
}

func warmupHandle(ctx context.Context, handle types.LoadedModelHandle) error {
	switch m := handle.(type) {
	case types.EmbeddingModel:
		return m.Warmup(ctx)
	case types.RerankerModel:
		return m.Warmup(ctx)
	case types.GeneratorModel:
		return m.Warmup(ctx)
	default:
		return nil
	}
}

// wrapperFor returns the cached per-alias Wrapper, building one on first use
// (§4.5: "cached per alias on first use"). Its Breaker, if any, is instead
// cached per types.RuntimeKey via breakers, since the breaker protects the
// shared backend an alias's RuntimeKey resolves to, not the alias itself --
// two aliases deduping to the same key must share one breaker.
func (r *Runtime) wrapperFor(alias string, spec *types.AliasSpec) *reliability.Wrapper {
	return r.wrappers.GetOrCreate(alias, func() *reliability.Wrapper {
		var timeout time.Duration
		if spec.Timeout != nil {
			timeout = time.Duration(*spec.Timeout) * time.Second
		}

		var breaker *reliability.Breaker
		if isRemote(spec.ProviderID) {
			key := types.KeyOf(spec)
			breaker = r.breakers.GetOrCreate(key, func() *reliability.Breaker {
				return reliability.NewBreaker(reliability.DefaultBreakerConfig())
			})
		}

		return &reliability.Wrapper{
			Alias:      alias,
			ProviderID: spec.ProviderID,
			Task:       spec.Task,
			Timeout:    timeout,
			Retry:      spec.Retry,
			Breaker:    breaker,
		}
	})
}

// isRemote reports whether providerID's locality prefix is "remote/", the
// only providers the circuit breaker applies to (§4.5).
func isRemote(providerID string) bool {
	return len(providerID) > len("remote/") && providerID[:len("remote/")] == "remote/"
}

// PrefetchReport collects per-alias outcomes from Prefetch/PrefetchAll.
type PrefetchReport struct {
	Errors map[string]error
}

// Failed reports whether any alias failed to load.
func (r *PrefetchReport) Failed() bool { return len(r.Errors) > 0 }

func (r *PrefetchReport) Error() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%d alias(es) failed to prefetch", len(r.Errors))
}

// Prefetch forces a load of each named alias, collecting errors per alias.
func (r *Runtime) Prefetch(ctx context.Context, aliases []string) *PrefetchReport {
	report := &PrefetchReport{Errors: make(map[string]error)}
	for _, alias := range aliases {
		spec, err := r.cat.Resolve(alias)
		if err != nil {
			report.Errors[alias] = err
			continue
		}
		if zlog != nil {
			zlog.Info().Str("alias", alias).Msg("prefetching model")
		}
		if _, err := r.loadAlias(ctx, alias, spec); err != nil {
			report.Errors[alias] = err
		}
	}
	return report
}

// PrefetchAll forces a load of every catalog alias.
func (r *Runtime) PrefetchAll(ctx context.Context) *PrefetchReport {
	specs := r.cat.All()
	aliases := make([]string, len(specs))
	for i, spec := range specs {
		aliases[i] = spec.Alias
	}
	return r.Prefetch(ctx, aliases)
}
