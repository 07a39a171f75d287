package runtime

import (
	"context"
	"testing"
	"time"

	"modelhub/internal/providertest"
	"modelhub/pkg/types"
)

func TestBuildEagerRequiredFailureAbortsBuild(t *testing.T) {
	failing := providertest.Failing()
	spec := providertest.MakeSpec("embed/bad", types.TaskEmbed, failing.ProviderID(), "m1")
	spec.Warmup = types.WarmupEager
	spec.Required = true

	_, err := NewBuilder().WithProvider(failing).WithAlias(spec).Build(context.Background())
	if err == nil {
		t.Fatalf("expected Build to fail for a required eager alias whose load fails")
	}
}

func TestBuildEagerNonRequiredFailureDoesNotAbort(t *testing.T) {
	failing := providertest.Failing()
	spec := providertest.MakeSpec("embed/bad", types.TaskEmbed, failing.ProviderID(), "m1")
	spec.Warmup = types.WarmupEager
	spec.Required = false

	rt, err := NewBuilder().WithProvider(failing).WithAlias(spec).Build(context.Background())
	if err != nil {
		t.Fatalf("Build should not abort for a non-required eager alias: %v", err)
	}
	state, ok := rt.AliasState("embed/bad")
	if !ok || state != AliasFailed {
		t.Fatalf("expected Failed state, got %v (ok=%v)", state, ok)
	}
}

func TestBuildEagerSuccessLoadsBeforeReturning(t *testing.T) {
	p := providertest.New("local/x", types.TaskEmbed)
	spec := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	spec.Warmup = types.WarmupEager
	spec.Required = true

	rt, err := NewBuilder().WithProvider(p).WithAlias(spec).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rt.reg.Size() != 1 {
		t.Fatalf("expected eager alias to already be loaded, registry size = %d", rt.reg.Size())
	}
}

func TestBuildLazyDoesNotLoadUntilResolved(t *testing.T) {
	p := providertest.New("local/x", types.TaskEmbed)
	spec := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	spec.Warmup = types.WarmupLazy

	rt, err := NewBuilder().WithProvider(p).WithAlias(spec).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if rt.reg.Size() != 0 {
		t.Fatalf("expected lazy alias to remain unloaded after Build, registry size = %d", rt.reg.Size())
	}
}

func TestBuildBackgroundDoesNotBlockAndEventuallyLoads(t *testing.T) {
	p := providertest.New("local/x", types.TaskEmbed).WithLoadDelay(20 * time.Millisecond)
	spec := providertest.MakeSpec("embed/a", types.TaskEmbed, "local/x", "m1")
	spec.Warmup = types.WarmupBackground

	start := time.Now()
	rt, err := NewBuilder().WithProvider(p).WithAlias(spec).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if elapsed := time.Since(start); elapsed >= 20*time.Millisecond {
		t.Fatalf("Build should not block on a background warmup, took %s", elapsed)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if rt.reg.Size() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("background warmup never completed")
}

func TestBuildBackgroundFailurePublishesEvent(t *testing.T) {
	failing := providertest.Failing()
	spec := providertest.MakeSpec("embed/bad", types.TaskEmbed, failing.ProviderID(), "m1")
	spec.Warmup = types.WarmupBackground

	events := NewMemoryPublisher()
	_, err := NewBuilder().WithProvider(failing).WithEvents(events).WithAlias(spec).Build(context.Background())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, e := range events.Events() {
			if e.Name == "alias_warmup_failed" {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected an alias_warmup_failed event")
}

func TestCatalogFromJSONErrorSurfacesAtBuild(t *testing.T) {
	_, err := NewBuilder().CatalogFromJSON([]byte("not json")).Build(context.Background())
	if !types.IsConfig(err) {
		t.Fatalf("expected Config error, got %v", err)
	}
}
