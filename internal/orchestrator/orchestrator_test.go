package orchestrator

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/agenttools"
	"clarifyagent/internal/search"
	"clarifyagent/internal/session"
)

// fakeModel drives both the clarifier assessment and the per-worker
// agent loop with two fixed replies, chosen by whether a system prompt is
// the research worker's prompt, so clarifier calls and worker calls differ.
type fakeModel struct {
	clarifierJSON string
	workerFinal   string
}

func (f *fakeModel) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	for _, m := range req.Messages {
		if m.Role == openai.ChatMessageRoleSystem {
			if containsResearchWorkerPrompt(m.Content) {
				return openai.ChatCompletionResponse{
					Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.workerFinal}}},
				}, nil
			}
		}
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.clarifierJSON}}},
	}, nil
}

func containsResearchWorkerPrompt(s string) bool {
	return len(s) > 0 && s[:min(len(s), 20)] == "You are a research w"
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func userMsg(s string) session.Message { return session.Message{Role: session.RoleUser, Content: s} }

func TestRunNeedClarificationReturnsPlanWithoutResearch(t *testing.T) {
	model := &fakeModel{clarifierJSON: `{"what":0.2,"action":0.2,"constraint":0.2,"context":0.2,"output":0.2,"goal":"","research_focus":[]}`}
	o := New(Config{Model: model, ModelName: "test-model"})

	var stages []string
	got := o.Run(context.Background(), []session.Message{userMsg("help")}, session.TaskDraft{}, func(stage, msg string, detail any) {
		stages = append(stages, stage)
	})

	if got.Plan.NextAction != session.ActionNeedClarification {
		t.Fatalf("NextAction = %v, want NEED_CLARIFICATION", got.Plan.NextAction)
	}
	if got.Result != nil {
		t.Fatalf("expected no research result, got %+v", got.Result)
	}
	if len(stages) == 0 || stages[0] != StagePlanning {
		t.Fatalf("expected planning as first stage, got %v", stages)
	}
}

func TestRunStartResearchProducesReport(t *testing.T) {
	model := &fakeModel{
		clarifierJSON: `{"what":0.95,"action":0.9,"constraint":0.9,"context":0.9,"output":0.9,"goal":"EV market","research_focus":["pricing","adoption","policy"]}`,
		workerFinal:   "summary of findings for this focus area",
	}
	registry := agenttools.NewRegistry()
	o := New(Config{Model: model, ModelName: "test-model", Registry: registry, MaxParallel: 2})

	got := o.Run(context.Background(), []session.Message{userMsg("EV market research")}, session.TaskDraft{}, nil)

	if got.Plan.NextAction != session.ActionStartResearch {
		t.Fatalf("NextAction = %v, want START_RESEARCH", got.Plan.NextAction)
	}
	if got.Err != nil {
		t.Fatalf("unexpected error: %v", got.Err)
	}
	if got.Result == nil {
		t.Fatal("expected a research result")
	}
	if got.Result.Goal != "EV market" {
		t.Fatalf("Goal = %q", got.Result.Goal)
	}
}

func TestDropNilOrFailedFiltersNilPositions(t *testing.T) {
	a := &session.SubtaskResult{Focus: "a", Confidence: 0.4}
	results := []*session.SubtaskResult{a, nil}
	live := dropNilOrFailed(results)
	if len(live) != 1 || live[0].Focus != "a" {
		t.Fatalf("live = %+v", live)
	}
}

func TestVerifyTopicAndReassessAppendsEvidenceMessage(t *testing.T) {
	o := &Orchestrator{cfg: Config{Searcher: &fakeSearcher{hits: []search.Result{{Title: "T", Snippet: "S", URL: "https://example.com"}}}}}
	plan := session.Plan{SearchQuery: "some topic"}
	messages := o.verifyTopicAndReassess(context.Background(), []session.Message{userMsg("is X a thing")}, plan, noopProgress)
	if len(messages) != 2 {
		t.Fatalf("expected evidence message appended, got %d messages", len(messages))
	}
}

type fakeSearcher struct{ hits []search.Result }

func (f *fakeSearcher) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return f.hits, nil
}
func (f *fakeSearcher) Name() string { return "fake" }
