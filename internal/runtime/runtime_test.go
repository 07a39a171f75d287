package runtime

import (
	"context"
	"testing"

	"modelhub/internal/providertest"
	"modelhub/pkg/types"
)

func buildTestRuntime(t *testing.T, specs ...*types.AliasSpec) (*Runtime, *MemoryPublisher) {
	t.Helper()
	events := NewMemoryPublisher()
	builder := NewBuilder().
		WithProvider(providertest.New("local/x", types.TaskEmbed, types.TaskRerank, types.TaskGenerate)).
		WithEvents(events).
		WithCatalog(specs)
	rt, err := builder.Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return rt, events
}

func TestEmbeddingResolvesAndCachesInstance(t *testing.T) {
	spec := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	rt, _ := buildTestRuntime(t, spec)

	model, err := rt.Embedding(context.Background(), "embed/a")
	if err != nil {
		t.Fatalf("Embedding: %v", err)
	}
	vecs, err := model.Embed(context.Background(), []string{"hello"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 1 {
		t.Fatalf("expected 1 vector, got %d", len(vecs))
	}
}

func TestEmbeddingRejectsWrongTask(t *testing.T) {
	spec := providertest.MakeSpec("generate/a", types.TaskGenerate, "local/x", "m1")
	rt, _ := buildTestRuntime(t, spec)

	if _, err := rt.Embedding(context.Background(), "generate/a"); !types.IsCapabilityMismatch(err) {
		t.Fatalf("expected CapabilityMismatch, got %v", err)
	}
}

func TestUnknownAliasIsConfigError(t *testing.T) {
	rt, _ := buildTestRuntime(t)
	if _, err := rt.Embedding(context.Background(), "embed/missing"); !types.IsConfig(err) {
		t.Fatalf("expected Config error, got %v", err)
	}
}

func TestTwoAliasesSharingModelIDDedupInRegistry(t *testing.T) {
	a := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "shared-model")
	b := providertest.MakeSpec("embed/b", types.TaskEmbed, "local/x", "shared-model")
	rt, _ := buildTestRuntime(t, a, b)

	if _, err := rt.Embedding(context.Background(), "embed/a"); err != nil {
		t.Fatalf("Embedding a: %v", err)
	}
	if _, err := rt.Embedding(context.Background(), "embed/b"); err != nil {
		t.Fatalf("Embedding b: %v", err)
	}
	if got := rt.reg.Size(); got != 1 {
		t.Fatalf("expected a single shared instance, got registry size %d", got)
	}
}

func TestAliasStateTransitionsDeclaredToLoaded(t *testing.T) {
	spec := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	rt, _ := buildTestRuntime(t, spec)

	state, ok := rt.AliasState("embed/a")
	if !ok || state != AliasDeclared {
		t.Fatalf("expected Declared before first use, got %v (ok=%v)", state, ok)
	}

	if _, err := rt.Embedding(context.Background(), "embed/a"); err != nil {
		t.Fatalf("Embedding: %v", err)
	}

	state, ok = rt.AliasState("embed/a")
	if !ok || state != AliasLoaded {
		t.Fatalf("expected Loaded after resolution, got %v (ok=%v)", state, ok)
	}
}

func TestAliasStateUnknownAlias(t *testing.T) {
	rt, _ := buildTestRuntime(t)
	if _, ok := rt.AliasState("embed/missing"); ok {
		t.Fatalf("expected ok=false for an alias outside the catalog")
	}
}

func TestLoadLifecycleEventsArePublished(t *testing.T) {
	spec := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	rt, events := buildTestRuntime(t, spec)

	if _, err := rt.Embedding(context.Background(), "embed/a"); err != nil {
		t.Fatalf("Embedding: %v", err)
	}

	var names []string
	var corrIDs = map[string]bool{}
	for _, e := range events.Events() {
		names = append(names, e.Name)
		corrIDs[e.CorrelationID] = true
	}
	if len(names) != 2 || names[0] != "load_started" || names[1] != "load_succeeded" {
		t.Fatalf("unexpected event sequence: %v", names)
	}
	if len(corrIDs) != 1 {
		t.Fatalf("expected load_started and load_succeeded to share one correlation ID, got %d distinct", len(corrIDs))
	}
}

func TestLoadFailureEventAndAliasFailedState(t *testing.T) {
	failing := providertest.Failing()
	spec := providertest.MakeSpec("embed/bad", types.TaskEmbed, failing.ProviderID(), "m1")

	events := NewMemoryPublisher()
	rt, err := NewBuilder().WithProvider(failing).WithEvents(events).WithAlias(spec).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if _, err := rt.Embedding(context.Background(), "embed/bad"); err == nil {
		t.Fatalf("expected load failure")
	}

	state, ok := rt.AliasState("embed/bad")
	if !ok || state != AliasFailed {
		t.Fatalf("expected Failed state, got %v (ok=%v)", state, ok)
	}

	var sawFailed bool
	for _, e := range events.Events() {
		if e.Name == "load_failed" {
			sawFailed = true
		}
	}
	if !sawFailed {
		t.Fatalf("expected a load_failed event")
	}
}

func TestPrefetchAllLoadsEveryAlias(t *testing.T) {
	a := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	b := providertest.MakeSpec("rerank/b", types.TaskRerank, "local/x", "m2")
	rt, _ := buildTestRuntime(t, a, b)

	report := rt.PrefetchAll(context.Background())
	if report.Failed() {
		t.Fatalf("unexpected prefetch failures: %v", report.Errors)
	}
	if rt.reg.Size() != 2 {
		t.Fatalf("expected 2 loaded instances, got %d", rt.reg.Size())
	}
}

func TestBreakerSharedAcrossAliasesDedupedToSameKey(t *testing.T) {
	provider := providertest.New("remote/x", types.TaskEmbed).WithModelFailCount(100)
	a := providertest.MakeSpec("embed/a", types.TaskEmbed, "remote/x", "shared-model")
	b := providertest.MakeSpec("embed/b", types.TaskEmbed, "remote/x", "shared-model")

	rt, err := NewBuilder().WithProvider(provider).WithCatalog([]*types.AliasSpec{a, b}).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	modelA, err := rt.Embedding(context.Background(), "embed/a")
	if err != nil {
		t.Fatalf("Embedding a: %v", err)
	}

	const threshold = 5
	for i := 0; i < threshold; i++ {
		if _, err := modelA.Embed(context.Background(), []string{"x"}); !types.IsRateLimited(err) {
			t.Fatalf("call %d: expected RateLimited, got %v", i, err)
		}
	}

	modelB, err := rt.Embedding(context.Background(), "embed/b")
	if err != nil {
		t.Fatalf("Embedding b: %v", err)
	}
	if _, err := modelB.Embed(context.Background(), []string{"x"}); !types.IsUnavailable(err) {
		t.Fatalf("expected the breaker opened by alias a's failures to short-circuit alias b, got %v", err)
	}
}

func TestPrefetchReportsPerAliasFailure(t *testing.T) {
	a := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	rt, _ := buildTestRuntime(t, a)

	report := rt.Prefetch(context.Background(), []string{"embed/a", "embed/missing"})
	if !report.Failed() {
		t.Fatalf("expected a failure for the missing alias")
	}
	if _, ok := report.Errors["embed/missing"]; !ok {
		t.Fatalf("expected an error entry for embed/missing")
	}
	if _, ok := report.Errors["embed/a"]; ok {
		t.Fatalf("did not expect an error entry for embed/a")
	}
}
