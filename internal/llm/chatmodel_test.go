package llm

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeClient struct {
	gotRequest openai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.gotRequest = request
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: "ok"}}},
	}, nil
}

func TestAsChatModelDelegatesToClient(t *testing.T) {
	fc := &fakeClient{}
	model := AsChatModel(fc)

	resp, err := model.Complete(context.Background(), openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(resp.Choices) != 1 || resp.Choices[0].Message.Content != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(fc.gotRequest.Messages) != 1 {
		t.Fatalf("expected the request to be forwarded unchanged")
	}
}
