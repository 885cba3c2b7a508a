package llm

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
)

// ChatModel is the capability interface used by the clarifier, planner and
// worker components. It deliberately exposes the raw go-openai request/
// response types rather than a narrower domain type: every caller needs
// tool-calling, so there is no simpler shape that would not just be
// reinvented at the call sites.
type ChatModel interface {
	Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// chatModelFunc adapts a Client to ChatModel.
type chatModelFunc struct {
	client Client
}

// AsChatModel wraps any Client (OpenAIProvider, a test fake, ...) as a
// ChatModel.
func AsChatModel(c Client) ChatModel {
	return chatModelFunc{client: c}
}

func (f chatModelFunc) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return f.client.CreateChatCompletion(ctx, req)
}
