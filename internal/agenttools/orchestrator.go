package agenttools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/budget"
	"clarifyagent/internal/llm"
)

// Orchestrator drives a single tool-calling agent turn: the model either
// calls a registered tool or emits final text. It bounds the number of
// turns that call tools and the per-tool-call time, and prunes the message window so
// the request fits the model's context budget. The worker (C4) layers the
// soft-exit/hard-timeout deadlines and subtask semantics on top of this.
type Orchestrator struct {
	Model          llm.ChatModel
	Registry       *Registry
	ModelName      string
	MaxToolCalls   int
	PerToolTimeout time.Duration
}

// Result is what a single Run produces.
type Result struct {
	FinalText     string
	ToolCallCount int
	// LastToolData holds the data payload of the most recent successful
	// tool call, so a single-tool caller (the research worker) can read
	// structured results without re-parsing the transcript.
	LastToolData json.RawMessage
}

// Run executes the loop until the model finalizes, runs out of tool
// calls, or ctx is canceled (by the caller's soft-exit/hard-timeout
// deadline). It never panics and never returns a raw provider error for a
// tool failure — tool failures are folded into the transcript as an
// envelope so the model can react to them.
func (o *Orchestrator) Run(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userPrompt},
	}
	specs := o.Registry.Specs()
	tools := EncodeTools(specs)

	maxCalls := o.MaxToolCalls
	if maxCalls <= 0 {
		maxCalls = 8
	}

	var result Result
	for calls := 0; calls <= maxCalls; calls++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		messages = budgetMessages(messages, o.ModelName)

		req := openai.ChatCompletionRequest{
			Model:    o.ModelName,
			Messages: messages,
			Tools:    tools,
		}
		resp, err := o.Model.Complete(ctx, req)
		if err != nil {
			return result, err
		}

		if text, ok := FinalText(resp); ok {
			result.FinalText = text
			return result, nil
		}

		toolCalls := ParseToolCalls(resp)
		if len(toolCalls) == 0 {
			// No tool calls and no content: treat as finalized-empty
			// rather than looping forever.
			return result, nil
		}
		if calls == maxCalls {
			log.Warn().Int("max_tool_calls", maxCalls).Msg("agenttools: max tool calls reached without finalization")
			return result, nil
		}

		assistantMsg := resp.Choices[0].Message
		messages = append(messages, assistantMsg)

		for _, tc := range toolCalls {
			result.ToolCallCount++
			out := o.invoke(ctx, tc)
			if data, ok := successData(out); ok {
				result.LastToolData = data
			}
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    string(out),
				ToolCallID: tc.ID,
			})
		}
	}
	return result, nil
}

// timeoutPlaceholder is the synthetic tool result substituted when a tool
// call exceeds its hard deadline, matching spec.md §4.4's wire shape.
func timeoutPlaceholder() json.RawMessage {
	b, _ := json.Marshal(struct {
		Findings   []string          `json:"findings"`
		Sources    []json.RawMessage `json:"sources"`
		Confidence float64           `json:"confidence"`
		ShouldStop bool              `json:"should_stop"`
	}{
		Findings:   []string{"timeout"},
		Sources:    []json.RawMessage{},
		Confidence: 0.3,
		ShouldStop: true,
	})
	return b
}

// successData extracts the Data field from a successful envelope, if any.
func successData(envelope json.RawMessage) (json.RawMessage, bool) {
	var e Envelope
	if err := json.Unmarshal(envelope, &e); err != nil {
		return nil, false
	}
	if !e.OK || len(e.Data) == 0 {
		return nil, false
	}
	return e.Data, true
}

func (o *Orchestrator) invoke(ctx context.Context, tc ToolCall) json.RawMessage {
	def, ok := o.Registry.Get(tc.Name)
	if !ok {
		return unknownToolEnvelope(tc.Name)
	}
	callCtx := ctx
	var cancel context.CancelFunc
	if o.PerToolTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, o.PerToolTimeout)
		defer cancel()
	}
	data, err := def.Handler(callCtx, tc.Arguments)
	if err != nil {
		if classifyToolError(err) == ErrTimeout {
			// Tool-level hard deadline exceeded: return a synthetic
			// low-confidence result rather than propagating the error,
			// so the agent loop can still decide to stop (spec.md §4.4).
			log.Warn().Str("tool", tc.Name).Msg("agenttools: tool call hit its hard deadline")
			return successEnvelope(tc.Name, timeoutPlaceholder())
		}
		log.Warn().Str("tool", tc.Name).Err(err).Msg("agenttools: tool call failed")
		return failureEnvelope(tc.Name, err)
	}
	return successEnvelope(tc.Name, scrubJSON(data))
}

// budgetMessages replaces the content of the oldest not-yet-trimmed
// tool-result messages with a short omission marker until the estimated
// prompt plus 1024 reserved output tokens fits the model's context window;
// when no tool message is left to trim it returns the messages as they
// are. Grounded on the teacher's
// budgetMessagesForRequest/compressOlderToolMessages pattern.
func budgetMessages(messages []openai.ChatCompletionMessage, modelName string) []openai.ChatCompletionMessage {
	for {
		total := 0
		for _, m := range messages {
			total += budget.EstimateTokens(m.Content)
		}
		if budget.FitsInContext(modelName, 1024, total) {
			return messages
		}
		idx := oldestTrimmableToolMessage(messages)
		if idx < 0 {
			return messages
		}
		messages[idx].Content = "[older tool result omitted to fit context]"
	}
}

// oldestTrimmableToolMessage finds the earliest tool message that has not
// already been truncated, so repeated calls converge instead of trimming
// the same message forever.
func oldestTrimmableToolMessage(messages []openai.ChatCompletionMessage) int {
	const marker = "[older tool result omitted to fit context]"
	for i, m := range messages {
		if m.Role == openai.ChatMessageRoleTool && m.Content != marker {
			return i
		}
	}
	return -1
}
