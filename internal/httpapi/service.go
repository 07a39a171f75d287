// Package httpapi is an optional HTTP observability facade a host process
// can mount over an already-built *runtime.Runtime: aliases, best-effort
// lifecycle state, health, and Prometheus metrics. It is not part of the
// runtime core — nothing in internal/runtime or pkg/types depends on it.
package httpapi

import (
	"modelhub/internal/runtime"
)

// AliasSummary is the /aliases response shape for one catalog entry.
type AliasSummary struct {
	Alias      string `json:"alias"`
	Task       string `json:"task"`
	ProviderID string `json:"provider_id"`
	ModelID    string `json:"model_id"`
	State      string `json:"state"`
}

// Service defines the methods the HTTP layer needs from a built Runtime.
// Kept as an interface (rather than taking *runtime.Runtime directly) so
// handlers can be tested against a fake.
type Service interface {
	Aliases() []AliasSummary
	Ready() bool
}

// runtimeService adapts *runtime.Runtime to Service.
type runtimeService struct {
	rt      *runtime.Runtime
	aliases []string
}

// NewService wraps rt. If aliases is nil, every catalog alias is reported;
// otherwise only the given subset is.
func NewService(rt *runtime.Runtime, aliases []string) Service {
	return &runtimeService{rt: rt, aliases: aliases}
}

func (s *runtimeService) Aliases() []AliasSummary {
	aliases := s.aliases
	if aliases == nil {
		aliases = s.rt.Aliases()
	}

	out := make([]AliasSummary, 0, len(aliases))
	for _, alias := range aliases {
		stateStr := "unknown"
		if state, ok := s.rt.AliasState(alias); ok {
			stateStr = state.String()
		}
		summary := AliasSummary{Alias: alias, State: stateStr}
		if spec, ok := s.rt.AliasSpec(alias); ok {
			summary.Task = spec.Task.String()
			summary.ProviderID = spec.ProviderID
			summary.ModelID = spec.ModelID
		}
		out = append(out, summary)
	}
	return out
}

func (s *runtimeService) Ready() bool { return s.rt != nil }
