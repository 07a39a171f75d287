package runtime

import (
	"context"
	"fmt"
	"sync"

	"modelhub/internal/catalog"
	"modelhub/internal/registry"
	"modelhub/internal/reliability"
	"modelhub/pkg/types"
)

// Builder assembles a Runtime from a provider directory and a set of alias
// specs, then orchestrates each alias's warmup policy before returning. This
// mirrors the teacher's ManagerConfig/NewWithConfig split: a plain struct of
// tunables plus a constructor that applies defaults and performs the
// one-time setup work a live Manager/Runtime needs before serving calls.
type Builder struct {
	dir    *catalog.Directory
	cat    *catalog.Catalog
	events EventPublisher
	specs  []*types.AliasSpec
	errs   []error
}

// NewBuilder constructs an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		dir:    catalog.NewDirectory(),
		cat:    catalog.New(),
		events: noopPublisher{},
	}
}

// WithProvider registers a provider in the builder's directory.
func (b *Builder) WithProvider(p types.ModelProvider) *Builder {
	b.dir.Register(p)
	return b
}

// WithEvents installs an EventPublisher the built Runtime will notify of
// load lifecycle events. Defaults to a no-op publisher.
func (b *Builder) WithEvents(pub EventPublisher) *Builder {
	if pub != nil {
		b.events = pub
	}
	return b
}

// WithAlias queues spec for insertion; insertion (and its validation) runs
// at Build time once every provider has been registered.
func (b *Builder) WithAlias(spec *types.AliasSpec) *Builder {
	b.specs = append(b.specs, spec)
	return b
}

// WithCatalog queues every spec in specs, in order.
func (b *Builder) WithCatalog(specs []*types.AliasSpec) *Builder {
	b.specs = append(b.specs, specs...)
	return b
}

// CatalogFromJSON parses data as a catalog JSON array (§6.2) and queues
// every resulting spec.
func (b *Builder) CatalogFromJSON(data []byte) *Builder {
	specs, err := catalog.FromJSON(data)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.WithCatalog(specs)
}

// CatalogFromFile reads and queues a catalog JSON file.
func (b *Builder) CatalogFromFile(path string) *Builder {
	specs, err := catalog.FromFile(path)
	if err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	return b.WithCatalog(specs)
}

// Build validates and inserts every queued alias, then runs each alias's
// warmup policy: eager aliases load synchronously (a failure on a Required
// eager alias aborts Build), background aliases are kicked off in their own
// goroutine, lazy aliases (the default) are left untouched until first
// resolution.
func (b *Builder) Build(ctx context.Context) (*Runtime, error) {
	if len(b.errs) > 0 {
		return nil, b.errs[0]
	}

	for _, spec := range b.specs {
		if err := b.cat.Insert(spec, b.dir); err != nil {
			return nil, fmt.Errorf("inserting alias %q: %w", spec.Alias, err)
		}
	}

	for id, provider := range b.dir.All() {
		if err := provider.Warmup(ctx); err != nil {
			return nil, fmt.Errorf("provider %q warmup: %w", id, err)
		}
	}

	rt := &Runtime{
		dir:      b.dir,
		cat:      b.cat,
		reg:      registry.New(),
		events:   b.events,
		wrappers: reliability.NewWrapperCache(reliability.DefaultWrapperCacheSize),
		breakers: reliability.NewBreakerCache(),
		loading:  make(map[string]bool),
		failed:   make(map[string]error),
	}

	var background []*types.AliasSpec
	for _, spec := range b.specs {
		switch spec.WarmupOrDefault() {
		case types.WarmupEager:
			if _, err := rt.loadAlias(ctx, spec.Alias, spec); err != nil {
				if spec.Required {
					return nil, fmt.Errorf("eager warmup of required alias %q: %w", spec.Alias, err)
				}
				if zlog != nil {
					zlog.Warn().Str("alias", spec.Alias).Err(err).Msg("eager warmup failed for non-required alias")
				}
			}
		case types.WarmupBackground:
			background = append(background, spec)
		}
	}

	var wg sync.WaitGroup
	for _, spec := range background {
		wg.Add(1)
		go func(spec *types.AliasSpec) {
			defer wg.Done()
			if _, err := rt.loadAlias(context.WithoutCancel(ctx), spec.Alias, spec); err != nil {
				rt.publish(Event{
					Name:  "alias_warmup_failed",
					Alias: spec.Alias,
					Fields: map[string]any{
						"error": err.Error(),
					},
				})
			}
		}(spec)
	}
	// Build does not wait on background warmups (§4.6): they continue after
	// Build returns, reporting outcomes only through the event publisher.

	return rt, nil
}
