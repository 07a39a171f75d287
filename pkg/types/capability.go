package types

import "context"

// EmbeddingModel produces dense vector embeddings from text.
type EmbeddingModel interface {
	// Embed embeds a batch of texts into dense vectors, one []float32 per
	// input, each with Dimensions() elements.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the size of the vectors this model produces.
	Dimensions() uint32

	// ModelID is the underlying model identifier (e.g. a HuggingFace repo
	// ID or API model name).
	ModelID() string

	// Warmup is an optional hook, e.g. to load weights on first access.
	Warmup(ctx context.Context) error
}

// ScoredDoc is a single scored document returned by a RerankerModel.
type ScoredDoc struct {
	// Index is the zero-based index into the original docs slice passed to
	// RerankerModel.Rerank.
	Index int
	// Score is the relevance score assigned by the reranker; higher is
	// more relevant.
	Score float32
	// Text is the document text, if the provider echoes it back.
	Text *string
}

// RerankerModel re-scores documents against a query for relevance ranking.
type RerankerModel interface {
	// Rerank scores docs against query, typically sorted by descending
	// score.
	Rerank(ctx context.Context, query string, docs []string) ([]ScoredDoc, error)

	// Warmup is an optional hook.
	Warmup(ctx context.Context) error
}

// GenerationOptions are sampling and length parameters for text generation.
// Nil fields mean "use the provider's default".
type GenerationOptions struct {
	MaxTokens   *int
	Temperature *float32
	TopP        *float32
}

// TokenUsage is token counts for a generation request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerationResult is the output of a text generation call.
type GenerationResult struct {
	Text  string
	Usage *TokenUsage
}

// GeneratorModel generates text from a conversational message history.
// Messages is a flat slice where even-indexed entries (0, 2, 4, ...) are
// user turns and odd-indexed entries are assistant turns.
type GeneratorModel interface {
	Generate(ctx context.Context, messages []string, options GenerationOptions) (GenerationResult, error)

	// Warmup is an optional hook.
	Warmup(ctx context.Context) error
}
