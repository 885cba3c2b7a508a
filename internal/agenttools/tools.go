// Package agenttools provides a stable-name tool registry and a
// tool-calling orchestration loop, adapted from the teacher's
// internal/llmtools for a single domain tool (enhanced_research).
package agenttools

import (
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

// ToolSpec captures a single callable tool/function exposed to the model.
type ToolSpec struct {
	Name        string
	Description string
	JSONSchema  json.RawMessage
}

// ToolCall is a simplified representation of a tool call returned by the
// model. Arguments holds the raw JSON argument object for the call.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// EncodeTools converts ToolSpec entries into OpenAI-compatible tools.
func EncodeTools(specs []ToolSpec) []openai.Tool {
	out := make([]openai.Tool, 0, len(specs))
	for _, s := range specs {
		out = append(out, openai.Tool{
			Type: "function",
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  s.JSONSchema,
			},
		})
	}
	return out
}

// ParseToolCalls extracts function tool calls from a chat completion
// response.
func ParseToolCalls(resp openai.ChatCompletionResponse) []ToolCall {
	if len(resp.Choices) == 0 {
		return nil
	}
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(msg.ToolCalls))
	for _, tc := range msg.ToolCalls {
		if tc.Type != "function" {
			continue
		}
		out = append(out, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: json.RawMessage(tc.Function.Arguments),
		})
	}
	return out
}

// FinalText returns the assistant's plain-text content when the response
// carries no tool calls, the signal the agent loop treats as "the model
// finalized its answer". This replaces the teacher's ParseHarmony, which
// parsed a richer multi-channel transcript format not needed here: this
// engine's worker uses a single tool, so plain content-or-tool-calls is
// sufficient.
func FinalText(resp openai.ChatCompletionResponse) (string, bool) {
	if len(resp.Choices) == 0 {
		return "", false
	}
	msg := resp.Choices[0].Message
	if len(msg.ToolCalls) > 0 {
		return "", false
	}
	return msg.Content, true
}
