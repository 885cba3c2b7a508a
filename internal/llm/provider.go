package llm

import (
	"context"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed by core logic to call a chat
// model. It mirrors the CreateChatCompletion method used throughout the
// engine so any OpenAI-compatible or local backend can be adapted, and is
// the concrete shape behind the ChatModel capability described by spec.md
// §4.1/§9 (Complete(messages, tools) -> message-with-optional-tool-calls).
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// ModelLister is an optional capability that allows listing available
// models. Providers that do not support this can omit it; callers use a
// type assertion to detect availability.
type ModelLister interface {
	ListModels(ctx context.Context) (openai.ModelsList, error)
}

// OpenAIProvider adapts *openai.Client to the Client/ModelLister interfaces.
type OpenAIProvider struct {
	Inner *openai.Client
	Model string
}

// New builds an OpenAIProvider pointed at an OpenAI-compatible endpoint,
// bounding the whole round trip by apiTimeout (spec.md §4.1's
// connect=10s/total=configurable split) with a dedicated client.
func New(baseURL, apiKey, model string, apiTimeout time.Duration) *OpenAIProvider {
	return NewWithHTTPClient(baseURL, apiKey, model, &http.Client{Timeout: apiTimeout})
}

// NewWithHTTPClient builds an OpenAIProvider against a caller-supplied HTTP
// client, letting the caller share a single connection pool/DNS cache
// (spec.md §4.1/§5's shared-transport invariant) across the LLM, web search,
// and page fetch capability adapters while each keeps its own timeout.
func NewWithHTTPClient(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = httpClient
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg), Model: model}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if request.Model == "" {
		request.Model = p.Model
	}
	return p.Inner.CreateChatCompletion(ctx, request)
}

func (p *OpenAIProvider) ListModels(ctx context.Context) (openai.ModelsList, error) {
	return p.Inner.ListModels(ctx)
}
