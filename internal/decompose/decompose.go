// Package decompose implements the planner (C6): given a goal and a
// research focus list, produce one Subtask per independently
// researchable line of inquiry, preferring an LLM-authored plan and
// falling back to a deterministic one-subtask-per-focus split
// (spec.md §4.6).
package decompose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/llm"
	"clarifyagent/internal/session"
)

const plannerSystemPrompt = `You decompose a research goal into independent subtasks. Reply with ONLY a JSON array, no prose, where each element has the shape:
{"focus": "<short label>", "queries": ["<search query>", ...], "parallel": true}

Each element must have a non-empty focus and at least one query. Prefer one subtask per distinct angle of research; split a focus into multiple queries when it benefits from more than one search.`

// Decompose asks the model for a subtask plan and falls back to one
// subtask per focus entry when the model's reply fails validation or is
// empty, or when model is nil (dry-run/offline mode).
func Decompose(ctx context.Context, model llm.ChatModel, modelName string, goal string, focus []string) []session.Subtask {
	if model != nil {
		if subtasks, ok := tryLLMDecompose(ctx, model, modelName, goal, focus); ok {
			return subtasks
		}
	}
	return fallbackDecompose(goal, focus)
}

func tryLLMDecompose(ctx context.Context, model llm.ChatModel, modelName, goal string, focus []string) ([]session.Subtask, bool) {
	userPrompt := fmt.Sprintf("Goal: %s\nResearch focus areas:\n- %s", goal, strings.Join(focus, "\n- "))

	resp, err := model.Complete(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: plannerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return nil, false
	}

	var raw []struct {
		Focus    string   `json:"focus"`
		Queries  []string `json:"queries"`
		Parallel bool     `json:"parallel"`
	}
	content := extractJSONArray(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, false
	}
	if len(raw) == 0 {
		return nil, false
	}

	subtasks := make([]session.Subtask, 0, len(raw))
	for i, r := range raw {
		if strings.TrimSpace(r.Focus) == "" || len(r.Queries) == 0 {
			return nil, false // validation failure: whole plan is rejected, not repaired
		}
		subtasks = append(subtasks, session.Subtask{
			ID:       i,
			Focus:    r.Focus,
			Queries:  r.Queries,
			Parallel: r.Parallel,
		})
	}
	return subtasks, true
}

// fallbackDecompose builds one subtask per research focus entry with a
// single query "{goal} {focus}", per spec.md §4.6.
func fallbackDecompose(goal string, focus []string) []session.Subtask {
	subtasks := make([]session.Subtask, 0, len(focus))
	for i, f := range focus {
		subtasks = append(subtasks, session.Subtask{
			ID:       i,
			Focus:    f,
			Queries:  []string{strings.TrimSpace(goal + " " + f)},
			Parallel: true,
		})
	}
	return subtasks
}

// extractJSONArray trims any leading/trailing prose around a JSON array,
// in case the model wraps its reply in a code fence or commentary
// despite being asked not to.
func extractJSONArray(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
