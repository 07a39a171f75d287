// Package httpdemo is an illustrative remote provider: it POSTs a JSON
// request body to any HTTP endpoint returning a single JSON document and
// classifies non-2xx responses through the exact §4.5 status mapping
// (SPEC_FULL.md's Supplemented Features §5). It is not a real vendor SDK —
// point it at any HTTP JSON echo/test server to exercise the reliability
// wrappers end to end.
package httpdemo

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"modelhub/pkg/types"
)

// ProviderID is the fixed identifier this provider registers under.
const ProviderID = "remote/httpdemo"

var zlog *zerolog.Logger

// SetLogger installs a structured logger for this provider.
func SetLogger(l zerolog.Logger) { zlog = &l }

// Provider implements types.ModelProvider by delegating every call to a
// single configured HTTP endpoint.
type Provider struct {
	client *http.Client
}

// New constructs an httpdemo Provider with a connection-pooled HTTP client.
// Every request still carries its own context deadline; Timeout is
// intentionally 0 here, matching the teacher's llamaServerAdapter.
func New() *Provider {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Provider{client: &http.Client{Transport: tr, Timeout: 0}}
}

func (p *Provider) ProviderID() string { return ProviderID }

func (p *Provider) Capabilities() types.ProviderCapabilities {
	return types.ProviderCapabilities{SupportedTasks: []types.Task{types.TaskEmbed, types.TaskGenerate}}
}

func (p *Provider) Warmup(ctx context.Context) error { return nil }

func (p *Provider) Health(ctx context.Context) types.ProviderHealth {
	return types.ProviderHealth{Status: types.HealthHealthy, Detail: "no standing connection; checked per-call"}
}

func (p *Provider) Load(ctx context.Context, spec *types.AliasSpec) (types.LoadedModelHandle, error) {
	endpoint, _ := spec.Options["endpoint"].(string)
	if endpoint == "" {
		return nil, types.ErrConfig("httpdemo: alias %q missing required option %q", spec.Alias, "endpoint")
	}
	apiKeyEnv, _ := spec.Options["api_key_env"].(string)

	switch spec.Task {
	case types.TaskEmbed:
		return &embeddingModel{p: p, endpoint: endpoint, apiKeyEnv: apiKeyEnv, modelID: spec.ModelID}, nil
	case types.TaskGenerate:
		return &generatorModel{p: p, endpoint: endpoint, apiKeyEnv: apiKeyEnv, modelID: spec.ModelID}, nil
	default:
		return nil, types.ErrCapabilityMismatch("httpdemo: unsupported task %q", spec.Task)
	}
}

// doJSON POSTs body as JSON to endpoint, classifying any non-2xx response
// through types.ClassifyHTTPStatus and decoding a 2xx body into out.
func (p *Provider) doJSON(ctx context.Context, endpoint, apiKeyEnv string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return types.ErrInferenceError("httpdemo: encoding request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return types.ErrInferenceError("httpdemo: building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKeyEnv != "" {
		if key := os.Getenv(apiKeyEnv); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		if zlog != nil {
			zlog.Warn().Str("endpoint", endpoint).Err(err).Msg("httpdemo request failed")
		}
		return types.ErrUnavailable()
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.ErrApiError("httpdemo: reading response: %v", err)
	}

	if err := types.ClassifyHTTPStatus(resp.StatusCode, string(respBody)); err != nil {
		return err
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return types.ErrApiError("httpdemo: decoding response: %v", err)
		}
	}
	return nil
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// embeddingModel's Dimensions is unknown until the endpoint has answered at
// least once — this illustrative provider doesn't have a static model card
// to read it from, so it reports 0 until the first successful Embed call.
type embeddingModel struct {
	p         *Provider
	endpoint  string
	apiKeyEnv string
	modelID   string

	mu   sync.RWMutex
	dims uint32
}

func (m *embeddingModel) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	var resp embedResponse
	if err := m.p.doJSON(ctx, m.endpoint, m.apiKeyEnv, embedRequest{Model: m.modelID, Input: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, types.ErrApiError("httpdemo: expected %d embeddings, got %d", len(texts), len(resp.Embeddings))
	}
	if len(resp.Embeddings) > 0 {
		m.mu.Lock()
		m.dims = uint32(len(resp.Embeddings[0]))
		m.mu.Unlock()
	}
	return resp.Embeddings, nil
}

func (m *embeddingModel) Dimensions() uint32 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dims
}

func (m *embeddingModel) ModelID() string                  { return m.modelID }
func (m *embeddingModel) Warmup(ctx context.Context) error { return nil }

type generateRequest struct {
	Model       string   `json:"model"`
	Messages    []string `json:"messages"`
	MaxTokens   *int     `json:"max_tokens,omitempty"`
	Temperature *float32 `json:"temperature,omitempty"`
	TopP        *float32 `json:"top_p,omitempty"`
}

type generateResponse struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

type generatorModel struct {
	p         *Provider
	endpoint  string
	apiKeyEnv string
	modelID   string
}

func (m *generatorModel) Generate(ctx context.Context, messages []string, options types.GenerationOptions) (types.GenerationResult, error) {
	req := generateRequest{
		Model:       m.modelID,
		Messages:    messages,
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
		TopP:        options.TopP,
	}
	var resp generateResponse
	if err := m.p.doJSON(ctx, m.endpoint, m.apiKeyEnv, req, &resp); err != nil {
		return types.GenerationResult{}, err
	}
	return types.GenerationResult{
		Text: resp.Text,
		Usage: &types.TokenUsage{
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			TotalTokens:      resp.PromptTokens + resp.CompletionTokens,
		},
	}, nil
}

func (m *generatorModel) Warmup(ctx context.Context) error { return nil }
