// Package localecho is an illustrative, always-buildable local provider: a
// deterministic hashing "embedder", a token-overlap reranker, and a canned
// text generator. It exists so this module compiles, tests, and runs
// end-to-end without a real inference engine (SPEC_FULL.md's Supplemented
// Features §5) — it is not a stand-in for candle/fastembed/mistral.rs.
package localecho

import (
	"context"
	"hash/fnv"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"modelhub/internal/cache"
	"modelhub/pkg/types"
)

// ProviderID is the fixed identifier this provider registers under.
const ProviderID = "local/echo"

var zlog *zerolog.Logger

// SetLogger installs a structured logger for this provider.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Provider implements types.ModelProvider for all three task kinds using
// only in-process arithmetic, no external weights.
type Provider struct {
	warmedUp bool
}

// New constructs a localecho Provider.
func New() *Provider { return &Provider{} }

func (p *Provider) ProviderID() string { return ProviderID }

func (p *Provider) Capabilities() types.ProviderCapabilities {
	return types.ProviderCapabilities{SupportedTasks: []types.Task{types.TaskEmbed, types.TaskRerank, types.TaskGenerate}}
}

func (p *Provider) Warmup(ctx context.Context) error {
	p.warmedUp = true
	return nil
}

func (p *Provider) Health(ctx context.Context) types.ProviderHealth {
	return types.ProviderHealth{Status: types.HealthHealthy}
}

func (p *Provider) Load(ctx context.Context, spec *types.AliasSpec) (types.LoadedModelHandle, error) {
	dir := cache.ResolveCacheDir(ProviderID, spec.ModelID, spec.Options)
	if zlog != nil {
		zlog.Debug().Str("model_id", spec.ModelID).Str("cache_dir", dir).Msg("localecho load")
	}

	switch spec.Task {
	case types.TaskEmbed:
		dims := uint32(32)
		if v, ok := spec.Options["embedding_dimensions"]; ok {
			if f, ok := v.(float64); ok && f > 0 {
				dims = uint32(f)
			}
		}
		return &embeddingModel{modelID: spec.ModelID, dims: dims}, nil
	case types.TaskRerank:
		return &rerankerModel{}, nil
	case types.TaskGenerate:
		return &generatorModel{modelID: spec.ModelID}, nil
	default:
		return nil, types.ErrCapabilityMismatch("localecho: unsupported task %q", spec.Task)
	}
}

// embeddingModel hashes each input text deterministically into a unit-ish
// pseudo-vector. Not a real embedding space; useful only for exercising the
// runtime's dedup/reliability/typed-resolver plumbing end to end.
type embeddingModel struct {
	modelID string
	dims    uint32
}

func (m *embeddingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = hashVector(text, m.dims)
	}
	return out, nil
}

func (m *embeddingModel) Dimensions() uint32 { return m.dims }
func (m *embeddingModel) ModelID() string    { return m.modelID }
func (m *embeddingModel) Warmup(ctx context.Context) error { return nil }

func hashVector(text string, dims uint32) []float32 {
	vec := make([]float32, dims)
	for i := range vec {
		h := fnv.New32a()
		h.Write([]byte(text))
		h.Write([]byte{byte(i), byte(i >> 8)})
		vec[i] = float32(h.Sum32()%1000) / 1000.0
	}
	return vec
}

// rerankerModel scores documents by token overlap with the query —
// deterministic and cheap, not a learned relevance model.
type rerankerModel struct{}

func (m *rerankerModel) Rerank(ctx context.Context, query string, docs []string) ([]types.ScoredDoc, error) {
	queryTokens := tokenSet(query)
	out := make([]types.ScoredDoc, len(docs))
	for i, doc := range docs {
		score := overlapScore(queryTokens, tokenSet(doc))
		text := doc
		out[i] = types.ScoredDoc{Index: i, Score: score, Text: &text}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	return out, nil
}

func (m *rerankerModel) Warmup(ctx context.Context) error { return nil }

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(s)) {
		set[tok] = struct{}{}
	}
	return set
}

func overlapScore(a, b map[string]struct{}) float32 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var shared int
	for tok := range a {
		if _, ok := b[tok]; ok {
			shared++
		}
	}
	return float32(shared) / float32(len(a))
}

// generatorModel echoes the last message with a fixed prefix — a canned,
// deterministic stand-in for a real text generator.
type generatorModel struct {
	modelID string
}

func (m *generatorModel) Generate(ctx context.Context, messages []string, options types.GenerationOptions) (types.GenerationResult, error) {
	last := ""
	if len(messages) > 0 {
		last = messages[len(messages)-1]
	}
	text := "echo(" + m.modelID + "): " + last
	if options.MaxTokens != nil {
		words := strings.Fields(text)
		if len(words) > *options.MaxTokens {
			text = strings.Join(words[:*options.MaxTokens], " ")
		}
	}
	prompt := len(strings.Fields(strings.Join(messages, " ")))
	completion := len(strings.Fields(text))
	return types.GenerationResult{
		Text: text,
		Usage: &types.TokenUsage{
			PromptTokens:     prompt,
			CompletionTokens: completion,
			TotalTokens:      prompt + completion,
		},
	}, nil
}

func (m *generatorModel) Warmup(ctx context.Context) error { return nil }
