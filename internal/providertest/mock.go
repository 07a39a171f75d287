// Package providertest is a configurable, deterministic ModelProvider
// implementation for exercising the registry, reliability, and runtime
// packages without a real inference backend. It is an ordinary importable
// package — like net/http/httptest — rather than a test-only build.
package providertest

import (
	"context"
	"sync/atomic"
	"time"

	"modelhub/pkg/types"
)

// EmbeddingModel is a configurable mock types.EmbeddingModel.
type EmbeddingModel struct {
	dimensions  uint32
	modelID     string
	failAlways  bool
	failCount   int32
	delay       time.Duration
	calls       int32
	warmupCalls *int32
}

// NewEmbeddingModel constructs a mock embedding model with the given
// dimensionality and model ID.
func NewEmbeddingModel(dimensions uint32, modelID string) *EmbeddingModel {
	var warmup int32
	return &EmbeddingModel{dimensions: dimensions, modelID: modelID, warmupCalls: &warmup}
}

func (m *EmbeddingModel) WithFailAlways(fail bool) *EmbeddingModel { m.failAlways = fail; return m }
func (m *EmbeddingModel) WithFailCount(n int32) *EmbeddingModel    { m.failCount = n; return m }
func (m *EmbeddingModel) WithDelay(d time.Duration) *EmbeddingModel { m.delay = d; return m }
func (m *EmbeddingModel) WithWarmupTracker(tracker *int32) *EmbeddingModel {
	m.warmupCalls = tracker
	return m
}

func (m *EmbeddingModel) CallCount() int32   { return atomic.LoadInt32(&m.calls) }
func (m *EmbeddingModel) WarmupCount() int32 { return atomic.LoadInt32(m.warmupCalls) }

func (m *EmbeddingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	atomic.AddInt32(&m.calls, 1)

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if m.failAlways {
		return nil, types.ErrInferenceError("mock embedding failure")
	}

	if atomic.LoadInt32(&m.failCount) > 0 {
		atomic.AddInt32(&m.failCount, -1)
		return nil, types.ErrRateLimited()
	}

	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, m.dimensions)
		for j := range vec {
			vec[j] = 0.1
		}
		out[i] = vec
	}
	return out, nil
}

func (m *EmbeddingModel) Dimensions() uint32 { return m.dimensions }
func (m *EmbeddingModel) ModelID() string    { return m.modelID }
func (m *EmbeddingModel) Warmup(ctx context.Context) error {
	atomic.AddInt32(m.warmupCalls, 1)
	return nil
}

// RerankerModel is a configurable mock types.RerankerModel.
type RerankerModel struct {
	failAlways  bool
	calls       int32
	warmupCalls int32
}

func NewRerankerModel() *RerankerModel { return &RerankerModel{} }

func (m *RerankerModel) WithFailAlways(fail bool) *RerankerModel { m.failAlways = fail; return m }
func (m *RerankerModel) CallCount() int32                        { return atomic.LoadInt32(&m.calls) }
func (m *RerankerModel) WarmupCount() int32                      { return atomic.LoadInt32(&m.warmupCalls) }

func (m *RerankerModel) Rerank(ctx context.Context, query string, docs []string) ([]types.ScoredDoc, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.failAlways {
		return nil, types.ErrInferenceError("mock reranker failure")
	}
	out := make([]types.ScoredDoc, len(docs))
	for i, text := range docs {
		t := text
		out[i] = types.ScoredDoc{Index: i, Score: 1.0 / float32(i+1), Text: &t}
	}
	return out, nil
}

func (m *RerankerModel) Warmup(ctx context.Context) error {
	atomic.AddInt32(&m.warmupCalls, 1)
	return nil
}

// GeneratorModel is a configurable mock types.GeneratorModel.
type GeneratorModel struct {
	responseText string
	failAlways   bool
	calls        int32
	warmupCalls  int32
}

func NewGeneratorModel(responseText string) *GeneratorModel {
	return &GeneratorModel{responseText: responseText}
}

func (m *GeneratorModel) WithFailAlways(fail bool) *GeneratorModel { m.failAlways = fail; return m }
func (m *GeneratorModel) CallCount() int32                         { return atomic.LoadInt32(&m.calls) }
func (m *GeneratorModel) WarmupCount() int32                       { return atomic.LoadInt32(&m.warmupCalls) }

func (m *GeneratorModel) Generate(ctx context.Context, messages []string, options types.GenerationOptions) (types.GenerationResult, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.failAlways {
		return types.GenerationResult{}, types.ErrInferenceError("mock generator failure")
	}
	prompt := wordCount(messages)
	completion := wordCountStr(m.responseText)
	return types.GenerationResult{
		Text: m.responseText,
		Usage: &types.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

func (m *GeneratorModel) Warmup(ctx context.Context) error {
	atomic.AddInt32(&m.warmupCalls, 1)
	return nil
}

func wordCount(lines []string) int {
	total := 0
	for _, l := range lines {
		total += wordCountStr(l)
	}
	return total
}

func wordCountStr(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' {
			inWord = false
			continue
		}
		if !inWord {
			count++
			inWord = true
		}
	}
	return count
}

// Provider is a configurable mock types.ModelProvider.
type Provider struct {
	id              string
	tasks           []types.Task
	health          types.ProviderHealth
	loadCount       int32
	warmupCount     int32
	loadDelay       time.Duration
	modelDelay      time.Duration
	modelFailCount  int32
	failOnLoad      bool
	modelWarmupHook *int32
}

// New constructs a Provider with the given ID and supported tasks.
func New(id string, tasks ...types.Task) *Provider {
	return &Provider{id: id, tasks: tasks, health: types.ProviderHealth{Status: types.HealthHealthy}}
}

// EmbedOnly returns a provider supporting only TaskEmbed, identified
// "mock/embed".
func EmbedOnly() *Provider { return New("mock/embed", types.TaskEmbed) }

// GenerateOnly returns a provider supporting only TaskGenerate, identified
// "mock/generate".
func GenerateOnly() *Provider { return New("mock/generate", types.TaskGenerate) }

// RerankOnly returns a provider supporting only TaskRerank, identified
// "mock/rerank".
func RerankOnly() *Provider { return New("mock/rerank", types.TaskRerank) }

// Failing returns a provider whose Load always fails, identified
// "mock/failing".
func Failing() *Provider {
	p := New("mock/failing", types.TaskEmbed)
	p.failOnLoad = true
	return p
}

func (p *Provider) WithHealth(h types.ProviderHealth) *Provider   { p.health = h; return p }
func (p *Provider) WithLoadDelay(d time.Duration) *Provider       { p.loadDelay = d; return p }
func (p *Provider) WithModelDelay(d time.Duration) *Provider      { p.modelDelay = d; return p }
func (p *Provider) WithModelFailCount(n int32) *Provider          { p.modelFailCount = n; return p }
func (p *Provider) WithModelWarmupTracker(tracker *int32) *Provider {
	p.modelWarmupHook = tracker
	return p
}

func (p *Provider) LoadCount() int32   { return atomic.LoadInt32(&p.loadCount) }
func (p *Provider) WarmupCount() int32 { return atomic.LoadInt32(&p.warmupCount) }

func (p *Provider) ProviderID() string { return p.id }

func (p *Provider) Capabilities() types.ProviderCapabilities {
	return types.ProviderCapabilities{SupportedTasks: p.tasks}
}

func (p *Provider) Load(ctx context.Context, spec *types.AliasSpec) (types.LoadedModelHandle, error) {
	atomic.AddInt32(&p.loadCount, 1)

	if p.loadDelay > 0 {
		select {
		case <-time.After(p.loadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if p.failOnLoad {
		return nil, types.ErrLoad("mock load failure")
	}

	if !p.Capabilities().Supports(spec.Task) {
		return nil, types.ErrCapabilityMismatch("mock provider %q does not support task %q", p.id, spec.Task)
	}

	switch spec.Task {
	case types.TaskEmbed:
		m := NewEmbeddingModel(384, spec.ModelID)
		if p.modelDelay > 0 {
			m.WithDelay(p.modelDelay)
		}
		if p.modelFailCount > 0 {
			m.WithFailCount(p.modelFailCount)
		}
		if p.modelWarmupHook != nil {
			m.WithWarmupTracker(p.modelWarmupHook)
		}
		return types.LoadedModelHandle(m), nil
	case types.TaskRerank:
		return types.LoadedModelHandle(NewRerankerModel()), nil
	case types.TaskGenerate:
		return types.LoadedModelHandle(NewGeneratorModel("mock response")), nil
	default:
		return nil, types.ErrCapabilityMismatch("unknown task %q", spec.Task)
	}
}

func (p *Provider) Health(ctx context.Context) types.ProviderHealth { return p.health }

func (p *Provider) Warmup(ctx context.Context) error {
	atomic.AddInt32(&p.warmupCount, 1)
	return nil
}

// MakeSpec builds a minimal AliasSpec for tests.
func MakeSpec(alias string, task types.Task, providerID, modelID string) *types.AliasSpec {
	return &types.AliasSpec{
		Alias:      alias,
		Task:       task,
		ProviderID: providerID,
		ModelID:    modelID,
		Warmup:     types.WarmupLazy,
	}
}
