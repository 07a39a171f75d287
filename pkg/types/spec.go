package types

import "strings"

// DefaultLoadTimeoutSeconds is applied when AliasSpec.LoadTimeout is nil.
const DefaultLoadTimeoutSeconds = 600

// RetryConfig configures exponential-backoff retries for transient
// inference failures. A nil *RetryConfig on an AliasSpec means "no retry".
type RetryConfig struct {
	// MaxAttempts is the maximum number of attempts, including the initial
	// call. Must be >= 1.
	MaxAttempts uint32 `json:"max_attempts" yaml:"max_attempts"`
	// InitialBackoffMs is the base delay in milliseconds; doubled on each
	// subsequent attempt. Must be >= 1.
	InitialBackoffMs uint64 `json:"initial_backoff_ms" yaml:"initial_backoff_ms"`
}

// Validate checks the RetryConfig's own bounds (§8: "retry with zero
// fields" must be rejected).
func (r *RetryConfig) Validate() error {
	if r == nil {
		return nil
	}
	if r.MaxAttempts < 1 {
		return ErrConfig("retry.max_attempts must be >= 1")
	}
	if r.InitialBackoffMs < 1 {
		return ErrConfig("retry.initial_backoff_ms must be >= 1")
	}
	return nil
}

// BackoffMs returns the backoff duration, in milliseconds, for the given
// 1-based attempt number: initial_backoff_ms * 2^(attempt-1).
func (r *RetryConfig) BackoffMs(attempt uint32) uint64 {
	if attempt == 0 {
		attempt = 1
	}
	return r.InitialBackoffMs << (attempt - 1)
}

// AliasSpec is the declarative specification that maps a human-readable
// alias to a concrete provider and model (§3).
//
// Timeout and LoadTimeout are pointers so that "unset" (nil) is
// distinguishable from an explicit zero, which Catalog.Insert must reject.
type AliasSpec struct {
	// Alias is of the form "<nonempty>/<nonempty>" and must be globally
	// unique within a catalog.
	Alias string `json:"alias" yaml:"alias"`
	// Task is the inference task this alias targets.
	Task Task `json:"task" yaml:"task"`
	// ProviderID identifies a registered provider, e.g. "local/candle" or
	// "remote/openai".
	ProviderID string `json:"provider_id" yaml:"provider_id"`
	// ModelID is an opaque string interpreted by the provider.
	ModelID string `json:"model_id" yaml:"model_id"`
	// Revision is an optional opaque version string.
	Revision string `json:"revision,omitempty" yaml:"revision,omitempty"`
	// Warmup controls when this alias is loaded. Defaults to WarmupLazy.
	Warmup WarmupPolicy `json:"warmup,omitempty" yaml:"warmup,omitempty"`
	// Required is only meaningful when Warmup == WarmupEager: a failed
	// eager load aborts Build when true.
	Required bool `json:"required,omitempty" yaml:"required,omitempty"`
	// Timeout bounds each individual inference attempt, in seconds. nil
	// means no per-call timeout.
	Timeout *uint64 `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	// LoadTimeout bounds provider.Load + warmup, in seconds. nil means
	// DefaultLoadTimeoutSeconds.
	LoadTimeout *uint64 `json:"load_timeout,omitempty" yaml:"load_timeout,omitempty"`
	// Retry is optional exponential-backoff retry configuration.
	Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
	// Options is a free-form, provider-specific configuration tree. A nil
	// map is distinct from an empty one for key-derivation purposes (§3).
	Options map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// LoadTimeoutOrDefault returns the configured load timeout, or
// DefaultLoadTimeoutSeconds when unset.
func (s *AliasSpec) LoadTimeoutOrDefault() uint64 {
	if s.LoadTimeout == nil {
		return DefaultLoadTimeoutSeconds
	}
	return *s.LoadTimeout
}

// WarmupOrDefault returns the configured warmup policy, defaulting to lazy.
func (s *AliasSpec) WarmupOrDefault() WarmupPolicy { return s.Warmup.Normalized() }

// Validate checks the structural invariants that do not require a provider
// directory or options schema: alias shape, task tag, and numeric bounds.
// Catalog.Insert layers provider/capability/options checks on top of this.
func (s *AliasSpec) Validate() error {
	if s.Alias == "" {
		return ErrConfig("alias cannot be empty")
	}
	slash := strings.IndexByte(s.Alias, '/')
	if slash <= 0 || slash == len(s.Alias)-1 {
		return ErrConfig("alias %q must be in 'task/name' format", s.Alias)
	}
	if !s.Task.Valid() {
		return ErrConfig("alias %q has invalid task %q", s.Alias, s.Task)
	}
	if s.ProviderID == "" {
		return ErrConfig("alias %q has empty provider_id", s.Alias)
	}
	if s.ModelID == "" {
		return ErrConfig("alias %q has empty model_id", s.Alias)
	}
	if !s.Warmup.Valid() {
		return ErrConfig("alias %q has invalid warmup policy %q", s.Alias, s.Warmup)
	}
	if s.Timeout != nil && *s.Timeout == 0 {
		return ErrConfig("alias %q: timeout must be greater than 0", s.Alias)
	}
	if s.LoadTimeout != nil && *s.LoadTimeout == 0 {
		return ErrConfig("alias %q: load_timeout must be greater than 0", s.Alias)
	}
	if err := s.Retry.Validate(); err != nil {
		return err
	}
	return nil
}
