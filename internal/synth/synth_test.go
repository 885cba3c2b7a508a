package synth

import (
	"context"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/session"
)

type fakeModel struct {
	content string
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeModel) Complete(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func sampleResults() []session.SubtaskResult {
	return []session.SubtaskResult{
		{
			SubtaskID:  0,
			Focus:      "pricing",
			Findings:   []string{"prices rose 4% in 2026"},
			Confidence: 0.8,
			Sources: []session.Source{
				{Title: "Example", URL: "https://example.com/pricing", Snippet: "pricing data"},
			},
		},
	}
}

func TestSynthesizeStripsCitationToUnknownURL(t *testing.T) {
	model := &fakeModel{content: "# Goal\n\n1. Pricing\n\nPrices rose [[Example](https://example.com/pricing)] and also [[Fabricated](https://not-a-real-source.test)].\n"}
	s := &Synthesizer{Model: model}
	got, err := s.Synthesize(context.Background(), "Goal", []string{"pricing"}, sampleResults())
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if strings.Contains(got.Synthesis, "not-a-real-source.test") {
		t.Fatalf("fabricated citation survived: %s", got.Synthesis)
	}
	if !strings.Contains(got.Synthesis, "[[Example](https://example.com/pricing)]") {
		t.Fatalf("known citation was stripped: %s", got.Synthesis)
	}
	if len(got.Citations) != 1 || got.Citations[0] != "https://example.com/pricing" {
		t.Fatalf("Citations = %+v", got.Citations)
	}
}

func TestSynthesizeNoModelReturnsError(t *testing.T) {
	s := &Synthesizer{}
	_, err := s.Synthesize(context.Background(), "g", nil, nil)
	if err == nil {
		t.Fatal("expected an error with no model configured")
	}
}

func TestSynthesizeModelErrorPropagates(t *testing.T) {
	s := &Synthesizer{Model: &fakeModel{err: context.DeadlineExceeded}}
	_, err := s.Synthesize(context.Background(), "g", []string{"a"}, sampleResults())
	if err == nil {
		t.Fatal("expected model error to propagate")
	}
}

func TestBuildPayloadRespectsRetryCapsUnderLargeInput(t *testing.T) {
	var results []session.SubtaskResult
	for i := 0; i < 3; i++ {
		findings := make([]string, 20)
		for j := range findings {
			findings[j] = strings.Repeat("x", 300)
		}
		results = append(results, session.SubtaskResult{Focus: "focus", Findings: findings})
	}
	full := buildPayload("g", []string{"focus"}, results, defaultCaps)
	capped := buildPayload("g", []string{"focus"}, results, retryCaps)
	if len(capped) >= len(full) {
		t.Fatalf("retryCaps payload (%d) should be smaller than defaultCaps payload (%d)", len(capped), len(full))
	}
}

func TestHasComparativeTableDetectsPipeRows(t *testing.T) {
	md := "# Goal\n\n| A | B | C |\n|---|---|---|\n| 1 | 2 | 3 |\n"
	if !hasComparativeTable(md) {
		t.Fatal("expected a table to be detected")
	}
	if hasComparativeTable("# Goal\n\nno tables here\n") {
		t.Fatal("did not expect a table to be detected")
	}
}
