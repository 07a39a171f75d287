// Package reliability composes the retry, circuit-breaker, and timeout
// wrappers around a loaded model instance (§4.5), cached per alias.
package reliability

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"modelhub/pkg/types"
)

var zlog *zerolog.Logger

// SetLogger installs a structured logger used for retry/breaker events.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Wrapper holds the per-alias reliability configuration and state shared by
// the three typed instrumented models below. One Wrapper is built per alias
// on first use and reused across every call through that alias.
type Wrapper struct {
	Alias      string
	ProviderID string
	Task       types.Task
	Timeout    time.Duration // zero means no per-call bound
	Retry      *types.RetryConfig
	Breaker    *Breaker // nil for local providers: no circuit breaker
}

// call runs fn through retry → breaker (if present) → timeout, exactly the
// §4.5 composition order: retry is outermost so a retried attempt
// re-consults the breaker on every attempt.
func (w *Wrapper) call(ctx context.Context, fn func(ctx context.Context) error) error {
	start := time.Now()
	maxAttempts := uint32(1)
	if w.Retry != nil {
		maxAttempts = w.Retry.MaxAttempts
	}

	var lastErr error
	for attempt := uint32(1); attempt <= maxAttempts; attempt++ {
		lastErr = w.callOnce(ctx, fn)
		if lastErr == nil {
			break
		}
		if !types.IsRetryable(lastErr) || attempt >= maxAttempts {
			break
		}
		backoff := w.Retry.BackoffMs(attempt)
		if zlog != nil {
			zlog.Warn().Str("alias", w.Alias).Uint32("attempt", attempt).
				Uint64("backoff_ms", backoff).Err(lastErr).Msg("retrying inference call")
		}
		select {
		case <-time.After(time.Duration(backoff) * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	ObserveInference(w.Alias, w.Task.String(), w.ProviderID, time.Since(start).Seconds(), lastErr == nil)
	return lastErr
}

func (w *Wrapper) callOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	bounded := func(ctx context.Context) error {
		if w.Timeout <= 0 {
			return fn(ctx)
		}
		callCtx, cancel := context.WithTimeout(ctx, w.Timeout)
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- fn(callCtx) }()
		select {
		case err := <-done:
			return err
		case <-callCtx.Done():
			return types.ErrTimeout()
		}
	}

	if w.Breaker == nil {
		return bounded(ctx)
	}
	return w.Breaker.Call(ctx, bounded)
}

// InstrumentedEmbeddingModel wraps an EmbeddingModel with the reliability
// chain.
type InstrumentedEmbeddingModel struct {
	Inner types.EmbeddingModel
	W     *Wrapper
}

func (m *InstrumentedEmbeddingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var out [][]float32
	err := m.W.call(ctx, func(ctx context.Context) error {
		res, err := m.Inner.Embed(ctx, texts)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (m *InstrumentedEmbeddingModel) Dimensions() uint32 { return m.Inner.Dimensions() }
func (m *InstrumentedEmbeddingModel) ModelID() string    { return m.Inner.ModelID() }
func (m *InstrumentedEmbeddingModel) Warmup(ctx context.Context) error {
	return m.Inner.Warmup(ctx)
}

// InstrumentedRerankerModel wraps a RerankerModel with the reliability
// chain.
type InstrumentedRerankerModel struct {
	Inner types.RerankerModel
	W     *Wrapper
}

func (m *InstrumentedRerankerModel) Rerank(ctx context.Context, query string, docs []string) ([]types.ScoredDoc, error) {
	var out []types.ScoredDoc
	err := m.W.call(ctx, func(ctx context.Context) error {
		res, err := m.Inner.Rerank(ctx, query, docs)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (m *InstrumentedRerankerModel) Warmup(ctx context.Context) error { return m.Inner.Warmup(ctx) }

// InstrumentedGeneratorModel wraps a GeneratorModel with the reliability
// chain.
type InstrumentedGeneratorModel struct {
	Inner types.GeneratorModel
	W     *Wrapper
}

func (m *InstrumentedGeneratorModel) Generate(ctx context.Context, messages []string, options types.GenerationOptions) (types.GenerationResult, error) {
	var out types.GenerationResult
	err := m.W.call(ctx, func(ctx context.Context) error {
		res, err := m.Inner.Generate(ctx, messages, options)
		if err != nil {
			return err
		}
		out = res
		return nil
	})
	return out, err
}

func (m *InstrumentedGeneratorModel) Warmup(ctx context.Context) error { return m.Inner.Warmup(ctx) }
