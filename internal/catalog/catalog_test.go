package catalog

import (
	"context"
	"testing"

	"modelhub/pkg/types"
)

type stubProvider struct {
	id    string
	tasks []types.Task
}

func (s *stubProvider) ProviderID() string { return s.id }
func (s *stubProvider) Capabilities() types.ProviderCapabilities {
	return types.ProviderCapabilities{SupportedTasks: s.tasks}
}
func (s *stubProvider) Load(ctx context.Context, spec *types.AliasSpec) (types.LoadedModelHandle, error) {
	return nil, nil
}
func (s *stubProvider) Health(ctx context.Context) types.ProviderHealth {
	return types.ProviderHealth{Status: types.HealthHealthy}
}
func (s *stubProvider) Warmup(ctx context.Context) error { return nil }

func baseSpec() *types.AliasSpec {
	return &types.AliasSpec{
		Alias:      "embed/default",
		Task:       types.TaskEmbed,
		ProviderID: "local/x",
		ModelID:    "m",
	}
}

func TestInsertRejectsEmptyAlias(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "local/x", tasks: []types.Task{types.TaskEmbed}})
	c := New()
	spec := baseSpec()
	spec.Alias = ""
	if err := c.Insert(spec, dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for empty alias, got %v", err)
	}
}

func TestInsertRejectsAliasWithoutSlash(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "local/x", tasks: []types.Task{types.TaskEmbed}})
	c := New()
	spec := baseSpec()
	spec.Alias = "noSlashHere"
	if err := c.Insert(spec, dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for alias without '/', got %v", err)
	}
}

func TestInsertRejectsDuplicateAlias(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "local/x", tasks: []types.Task{types.TaskEmbed}})
	c := New()
	if err := c.Insert(baseSpec(), dir); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if err := c.Insert(baseSpec(), dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for duplicate alias, got %v", err)
	}
}

func TestInsertRejectsUnknownProvider(t *testing.T) {
	dir := NewDirectory()
	c := New()
	if err := c.Insert(baseSpec(), dir); !types.IsProviderNotFound(err) {
		t.Fatalf("expected ProviderNotFound, got %v", err)
	}
}

func TestInsertRejectsProviderLackingCapability(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "local/x", tasks: []types.Task{types.TaskGenerate}})
	c := New()
	if err := c.Insert(baseSpec(), dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for capability mismatch at insert time, got %v", err)
	}
}

func TestInsertRejectsZeroTimeouts(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "local/x", tasks: []types.Task{types.TaskEmbed}})
	c := New()

	zero := uint64(0)
	spec := baseSpec()
	spec.Timeout = &zero
	if err := c.Insert(spec, dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for zero timeout, got %v", err)
	}

	spec2 := baseSpec()
	spec2.LoadTimeout = &zero
	if err := c.Insert(spec2, dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for zero load_timeout, got %v", err)
	}
}

func TestInsertRejectsRetryWithZeroFields(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "local/x", tasks: []types.Task{types.TaskEmbed}})
	c := New()
	spec := baseSpec()
	spec.Retry = &types.RetryConfig{}
	if err := c.Insert(spec, dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for zero-valued retry config, got %v", err)
	}
}

func TestInsertRejectsUnknownOptionKey(t *testing.T) {
	dir := NewDirectory()
	dir.Register(&stubProvider{id: "remote/openai", tasks: []types.Task{types.TaskEmbed}})
	c := New()
	spec := baseSpec()
	spec.ProviderID = "remote/openai"
	spec.Options = map[string]any{"unknown_key": float64(1)}
	if err := c.Insert(spec, dir); !types.IsConfig(err) {
		t.Fatalf("expected Config error for unknown option key, got %v", err)
	}
}

func TestResolveUnknownAlias(t *testing.T) {
	c := New()
	if _, err := c.Resolve("does/not-exist"); !types.IsConfig(err) {
		t.Fatalf("expected Config error for unknown alias, got %v", err)
	}
}

func TestFromJSONRoundTrip(t *testing.T) {
	specs, err := FromJSON([]byte(`[{"alias":"embed/a","task":"embed","provider_id":"local/x","model_id":"m"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(specs) != 1 || specs[0].Alias != "embed/a" {
		t.Fatalf("unexpected parse result: %+v", specs)
	}
}

func TestFromJSONInvalid(t *testing.T) {
	if _, err := FromJSON([]byte(`not json`)); !types.IsConfig(err) {
		t.Fatalf("expected Config error for invalid JSON, got %v", err)
	}
}
