// Package catalog is the alias→AliasSpec mapping (§4.3), plus the
// provider_id→ModelProvider directory insertion validates against.
package catalog

import (
	"encoding/json"
	"os"
	"sync"

	"modelhub/internal/options"
	"modelhub/pkg/types"
)

// Directory maps provider_id to a registered ModelProvider.
type Directory struct {
	mu        sync.RWMutex
	providers map[string]types.ModelProvider
}

// NewDirectory constructs an empty provider Directory.
func NewDirectory() *Directory {
	return &Directory{providers: make(map[string]types.ModelProvider)}
}

// Register adds or replaces the provider under its own ProviderID.
func (d *Directory) Register(p types.ModelProvider) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.providers[p.ProviderID()] = p
}

// Get returns the provider registered under id, if any.
func (d *Directory) Get(id string) (types.ModelProvider, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.providers[id]
	return p, ok
}

// All returns a snapshot copy of the registered providers, keyed by
// provider_id.
func (d *Directory) All() map[string]types.ModelProvider {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]types.ModelProvider, len(d.providers))
	for k, v := range d.providers {
		out[k] = v
	}
	return out
}

// Catalog maps alias to a validated AliasSpec (§3, §4.3). Insertion order is
// not significant; aliases are unique.
type Catalog struct {
	mu      sync.RWMutex
	entries map[string]*types.AliasSpec
}

// New constructs an empty Catalog.
func New() *Catalog {
	return &Catalog{entries: make(map[string]*types.AliasSpec)}
}

// Insert validates spec against dir and, on success, stores it. On any
// violation it returns a Config error describing the first violation
// encountered, and the catalog is left unchanged.
func (c *Catalog) Insert(spec *types.AliasSpec, dir *Directory) error {
	if err := spec.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[spec.Alias]; exists {
		return types.ErrConfig("alias %q already exists", spec.Alias)
	}

	provider, ok := dir.Get(spec.ProviderID)
	if !ok {
		return types.ErrProviderNotFound(spec.ProviderID)
	}
	if !provider.Capabilities().Supports(spec.Task) {
		return types.ErrConfig("provider %q does not support task %q", spec.ProviderID, spec.Task)
	}

	if err := options.Validate(spec.ProviderID, spec.Task, spec.Options); err != nil {
		return err
	}

	c.entries[spec.Alias] = spec
	return nil
}

// Resolve looks up alias, returning a Config error if absent.
func (c *Catalog) Resolve(alias string) (*types.AliasSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.entries[alias]
	if !ok {
		return nil, types.ErrConfig("unknown alias %q", alias)
	}
	return spec, nil
}

// ContainsAlias reports whether alias is present in the catalog.
func (c *Catalog) ContainsAlias(alias string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.entries[alias]
	return ok
}

// All returns a snapshot copy of every AliasSpec currently in the catalog.
func (c *Catalog) All() []*types.AliasSpec {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*types.AliasSpec, 0, len(c.entries))
	for _, spec := range c.entries {
		out = append(out, spec)
	}
	return out
}

// FromJSON parses a JSON array of AliasSpec objects (§6.2). It does not
// validate against a provider Directory; callers insert each returned spec
// via Catalog.Insert (or Builder.CatalogFromJSON) to apply §4.3 validation.
func FromJSON(data []byte) ([]*types.AliasSpec, error) {
	var specs []*types.AliasSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, types.ErrConfig("invalid catalog JSON: %v", err)
	}
	return specs, nil
}

// FromFile reads and parses a catalog JSON file.
func FromFile(path string) ([]*types.AliasSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.ErrConfig("reading catalog file %q: %v", path, err)
	}
	return FromJSON(data)
}
