package types

import "context"

// ProviderCapabilities advertises what a ModelProvider can load.
type ProviderCapabilities struct {
	// SupportedTasks is the set of tasks this provider can handle.
	SupportedTasks []Task
}

// Supports reports whether t is among c.SupportedTasks.
func (c ProviderCapabilities) Supports(t Task) bool {
	for _, s := range c.SupportedTasks {
		if s == t {
			return true
		}
	}
	return false
}

// ProviderHealth is the health status reported by a provider.
type ProviderHealth struct {
	Status ProviderHealthStatus
	Detail string
}

// ProviderHealthStatus is the closed set of provider health states.
type ProviderHealthStatus int

const (
	HealthHealthy ProviderHealthStatus = iota
	HealthDegraded
	HealthUnhealthy
)

func (s ProviderHealthStatus) String() string {
	switch s {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// LoadedModelHandle is a type-erased handle to a loaded model instance. A
// provider's Load returns one wrapping an EmbeddingModel, RerankerModel, or
// GeneratorModel depending on the spec's Task; the registry and runtime
// facade later type-assert it back.
type LoadedModelHandle any

// ModelProvider is a pluggable backend that knows how to load models for one
// or more Task types. Providers are registered with Builder.WithProvider and
// identified by ProviderID (e.g. "local/candle", "remote/openai").
type ModelProvider interface {
	// ProviderID is this provider's unique identifier.
	ProviderID() string

	// Capabilities reports the tasks this provider supports.
	Capabilities() ProviderCapabilities

	// Load loads (or connects to) a model described by spec and returns a
	// type-erased handle. The context bounds the load, typically to
	// spec.LoadTimeoutOrDefault().
	Load(ctx context.Context, spec *AliasSpec) (LoadedModelHandle, error)

	// Health reports the current health of this provider.
	Health(ctx context.Context) ProviderHealth

	// Warmup is an optional one-time provider-wide initialization hook
	// called during runtime build, before any per-alias load. Providers
	// that don't need it should return nil.
	Warmup(ctx context.Context) error
}
