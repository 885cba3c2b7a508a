package clarifier

import (
	"context"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/search"
	"clarifyagent/internal/session"
)

type fakeModel struct {
	content string
	err     error
}

func (f *fakeModel) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func userMsg(s string) session.Message { return session.Message{Role: session.RoleUser, Content: s} }

func TestAssessPrivateInfoForcesOpenEndedClarification(t *testing.T) {
	got := Assess(context.Background(), nil, "m", nil, []session.Message{userMsg("evaluate our new product")}, session.TaskDraft{})
	if got.NextAction != session.ActionNeedClarification {
		t.Fatalf("NextAction = %v, want NEED_CLARIFICATION", got.NextAction)
	}
	if got.Clarification == nil || !got.Clarification.OpenEnded {
		t.Fatalf("expected an open-ended clarification, got %+v", got.Clarification)
	}
}

func TestAssessPrivateInfoSkippedOnceProjectInfoSupplied(t *testing.T) {
	model := &fakeModel{content: `{"what":0.9,"action":0.9,"constraint":0.8,"context":0.9,"output":0.8,"goal":"evaluate our smart speaker","research_focus":["market size","competitors","pricing"]}`}
	draft := session.TaskDraft{ProjectInfo: "a smart speaker for home users"}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("evaluate our product")}, draft)
	if got.NextAction == session.ActionNeedClarification && got.Clarification != nil && got.Clarification.MissingInfo == "project_details" {
		t.Fatalf("should not re-ask for project details once supplied, got %+v", got)
	}
}

func TestAssessHighConfidenceWithEnoughFocusStartsResearch(t *testing.T) {
	model := &fakeModel{content: `{"what":0.95,"action":0.9,"constraint":0.9,"context":0.9,"output":0.9,"goal":"Tesla 2024 sales","research_focus":["regional sales","model breakdown","yoy growth"]}`}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("Tesla 2024 sales analysis")}, session.TaskDraft{})
	if got.NextAction != session.ActionStartResearch {
		t.Fatalf("NextAction = %v, want START_RESEARCH", got.NextAction)
	}
}

func TestAssessLowConfidenceForcesClarification(t *testing.T) {
	model := &fakeModel{content: `{"what":0.3,"action":0.3,"constraint":0.3,"context":0.3,"output":0.3,"goal":"","research_focus":[]}`}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("help me research the market")}, session.TaskDraft{})
	if got.NextAction != session.ActionNeedClarification {
		t.Fatalf("NextAction = %v, want NEED_CLARIFICATION", got.NextAction)
	}
}

func TestAssessMidConfidenceYieldsConfirmPlan(t *testing.T) {
	model := &fakeModel{content: `{"what":0.7,"action":0.7,"constraint":0.6,"context":0.6,"output":0.6,"goal":"EV market overview","research_focus":["adoption","policy"]}`}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("EV market overview")}, session.TaskDraft{})
	if got.NextAction != session.ActionConfirmPlan {
		t.Fatalf("NextAction = %v, want CONFIRM_PLAN", got.NextAction)
	}
}

func TestAssessModelErrorFallsBackGracefully(t *testing.T) {
	model := &fakeModel{err: context.DeadlineExceeded}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("Tesla sales")}, session.TaskDraft{})
	if got.NextAction != session.ActionNeedClarification {
		t.Fatalf("NextAction = %v, want NEED_CLARIFICATION on model failure", got.NextAction)
	}
}

type fakeSearchProvider struct {
	hits []search.Result
}

func (f *fakeSearchProvider) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return f.hits, nil
}
func (f *fakeSearchProvider) Name() string { return "fake" }

func TestAssessNilSearcherDoesNotPanic(t *testing.T) {
	model := &fakeModel{content: `{"what":0.9,"action":0.9,"constraint":0.9,"context":0.9,"output":0.9,"goal":"g","research_focus":["a","b","c"]}`}
	_ = Assess(context.Background(), model, "m", nil, []session.Message{userMsg("something specific and long enough")}, session.TaskDraft{})
}

func TestAssessPrivateInfoDetectsFullwidthForm(t *testing.T) {
	// "ｍｙ" is the fullwidth rendering of "my"; width.Fold should
	// normalize it before the regex runs.
	got := Assess(context.Background(), nil, "m", nil, []session.Message{userMsg("evaluate ｍｙ new product")}, session.TaskDraft{})
	if got.NextAction != session.ActionNeedClarification {
		t.Fatalf("NextAction = %v, want NEED_CLARIFICATION for fullwidth private-info phrasing", got.NextAction)
	}
}

func TestAssessWithSearcherDoesNotFailWhenDraftIsEmpty(t *testing.T) {
	model := &fakeModel{content: `{"what":0.9,"action":0.9,"constraint":0.9,"context":0.9,"output":0.9,"goal":"g","research_focus":["a","b","c"]}`}
	searcher := &fakeSearchProvider{hits: []search.Result{{Title: "T", URL: "https://example.com", Snippet: "s"}}}
	got := Assess(context.Background(), model, "m", searcher, []session.Message{userMsg("a sufficiently long research request")}, session.TaskDraft{})
	if got.NextAction != session.ActionStartResearch {
		t.Fatalf("NextAction = %v, want START_RESEARCH", got.NextAction)
	}
}

func TestAssessUnknownTermYieldsVerifyTopicWithSearchQuery(t *testing.T) {
	model := &fakeModel{content: `{"next_action":"VERIFY_TOPIC","unknown_topic":"STATUS6","search_query":"STATUS6 gene protein function","why":"unfamiliar term","confidence":0.3}`}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("research STATUS6 mechanism")}, session.TaskDraft{})
	if got.NextAction != session.ActionVerifyTopic {
		t.Fatalf("NextAction = %v, want VERIFY_TOPIC", got.NextAction)
	}
	if got.UnknownTopic != "STATUS6" {
		t.Fatalf("UnknownTopic = %q, want STATUS6", got.UnknownTopic)
	}
	if got.SearchQuery != "STATUS6 gene protein function" {
		t.Fatalf("SearchQuery = %q, want model-supplied query", got.SearchQuery)
	}
}

func TestAssessUnknownTermFallsBackToBuiltSearchQuery(t *testing.T) {
	model := &fakeModel{content: `{"next_action":"VERIFY_TOPIC","unknown_topic":"XYZ123","why":"unfamiliar term","confidence":0.3}`}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("research XYZ123")}, session.TaskDraft{})
	if got.NextAction != session.ActionVerifyTopic {
		t.Fatalf("NextAction = %v, want VERIFY_TOPIC", got.NextAction)
	}
	if got.SearchQuery != "XYZ123 overview" {
		t.Fatalf("SearchQuery = %q, want built fallback query", got.SearchQuery)
	}
}

func TestAssessUnknownTermSurvivesHardBoundaries(t *testing.T) {
	// Confidence 0.3 is below hardMinConfidence; applyHardBoundaries must
	// not override VERIFY_TOPIC back to NEED_CLARIFICATION.
	model := &fakeModel{content: `{"next_action":"VERIFY_TOPIC","unknown_topic":"ABCD1","search_query":"ABCD1 overview","confidence":0.3}`}
	got := Assess(context.Background(), model, "m", nil, []session.Message{userMsg("research ABCD1")}, session.TaskDraft{})
	if got.NextAction != session.ActionVerifyTopic {
		t.Fatalf("NextAction = %v, want VERIFY_TOPIC to survive hard boundaries", got.NextAction)
	}
}
