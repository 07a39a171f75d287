package reliability

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"modelhub/pkg/types"
)

func TestBreakerTransitions(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 2, OpenWaitSeconds: 1})
	var ran int32

	// 1. Success — stays Closed.
	if err := b.Call(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 2. Two failures — opens.
	fail := func(ctx context.Context) error { return types.ErrUnavailable() }
	if err := b.Call(context.Background(), fail); err == nil {
		t.Fatalf("expected failure 1")
	}
	if err := b.Call(context.Background(), fail); err == nil {
		t.Fatalf("expected failure 2 (opens breaker)")
	}

	// 3. Open — rejected without running fn.
	err := b.Call(context.Background(), func(ctx context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})
	if !types.IsUnavailable(err) {
		t.Fatalf("expected Unavailable while open, got %v", err)
	}
	if atomic.LoadInt32(&ran) != 0 {
		t.Fatalf("fn must not run while breaker is open")
	}

	// 4. Wait for HalfOpen.
	time.Sleep(1100 * time.Millisecond)

	// 5. HalfOpen probe fails — back to Open.
	if err := b.Call(context.Background(), fail); err == nil {
		t.Fatalf("expected probe failure")
	}
	if err := b.Call(context.Background(), func(ctx context.Context) error { return nil }); !types.IsUnavailable(err) {
		t.Fatalf("expected Unavailable immediately after failed probe, got %v", err)
	}

	// 6. Wait again, succeed the probe — Closed.
	time.Sleep(1100 * time.Millisecond)
	if err := b.Call(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("expected probe success: %v", err)
	}
	if err := b.Call(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("expected closed breaker to pass calls through: %v", err)
	}
}

func TestBreakerHalfOpenAllowsSingleProbe(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, OpenWaitSeconds: 1})

	_ = b.Call(context.Background(), func(ctx context.Context) error { return types.ErrUnavailable() })
	time.Sleep(1100 * time.Millisecond)

	var started, finished int32
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = b.Call(context.Background(), func(ctx context.Context) error {
			atomic.AddInt32(&started, 1)
			time.Sleep(150 * time.Millisecond)
			atomic.AddInt32(&finished, 1)
			return nil
		})
	}()

	time.Sleep(20 * time.Millisecond)
	second := b.Call(context.Background(), func(ctx context.Context) error { return nil })
	if !types.IsUnavailable(second) {
		t.Fatalf("concurrent call during half-open probe must fail fast, got %v", second)
	}

	wg.Wait()
	if atomic.LoadInt32(&started) != 1 || atomic.LoadInt32(&finished) != 1 {
		t.Fatalf("probe must run exactly once to completion")
	}

	if err := b.Call(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("breaker should be closed again: %v", err)
	}
}

func TestBreakerUnauthorizedDoesNotAdvance(t *testing.T) {
	b := NewBreaker(BreakerConfig{FailureThreshold: 1, OpenWaitSeconds: 1})
	for i := 0; i < 10; i++ {
		_ = b.Call(context.Background(), func(ctx context.Context) error { return types.ErrUnauthorized() })
	}
	if err := b.Call(context.Background(), func(ctx context.Context) error { return nil }); err != nil {
		t.Fatalf("Unauthorized must never open the breaker, got %v", err)
	}
}
