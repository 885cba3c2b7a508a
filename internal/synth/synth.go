// Package synth implements the synthesizer (C8): merges every worker's
// SubtaskResult into a single cited Markdown report, enforcing the
// truncation policy, inline citation format, and citation-membership
// check from spec.md §4.8.
package synth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/llm"
	"clarifyagent/internal/session"
)

// Synthesizer calls the model to produce the Markdown report.
type Synthesizer struct {
	Model   llm.ChatModel
	Verbose bool
}

// caps bounds how much of each SubtaskResult is serialized into the
// prompt. retryCaps are used once if the full-cap payload is too large.
type caps struct {
	maxFindings   int
	maxSources    int
	maxSnippetLen int
}

var (
	defaultCaps = caps{maxFindings: 10, maxSources: 5, maxSnippetLen: 200}
	retryCaps   = caps{maxFindings: 3, maxSources: 2, maxSnippetLen: 200}
	maxPayloadChars = 20000
)

// Synthesize produces the final Markdown report for a completed
// research turn. It never invents a citation URL: any [[site](url)]
// the model emits whose url is not among the input sources' URLs is
// stripped to plain text after generation (spec.md §4.8).
func (s *Synthesizer) Synthesize(ctx context.Context, goal string, focus []string, results []session.SubtaskResult) (session.ResearchResult, error) {
	if s.Model == nil {
		return session.ResearchResult{}, errors.New("synth: no model configured")
	}

	payload := buildPayload(goal, focus, results, defaultCaps)
	if len(payload) > maxPayloadChars {
		payload = buildPayload(goal, focus, results, retryCaps)
	}

	resp, err := s.Model.Complete(ctx, openai.ChatCompletionRequest{
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: payload},
		},
		Temperature: 0.2,
	})
	if err != nil {
		return session.ResearchResult{}, fmt.Errorf("synth: model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return session.ResearchResult{}, errors.New("synth: no choices from model")
	}

	report := strings.TrimSpace(resp.Choices[0].Message.Content)
	allowedURLs := collectURLs(results)
	report, citations := stripUnknownCitations(report, allowedURLs)

	return session.ResearchResult{
		Goal:          goal,
		ResearchFocus: focus,
		Findings:      resultsByFocus(results),
		Synthesis:     report,
		Citations:     citations,
	}, nil
}

func resultsByFocus(results []session.SubtaskResult) map[string]session.SubtaskResult {
	out := make(map[string]session.SubtaskResult, len(results))
	for _, r := range results {
		out[r.Focus] = r
	}
	return out
}

func systemPrompt() string {
	return `You are a research report writer. Write a single cohesive Markdown document that:
- begins with "# {goal}" as the first line (substitute the actual goal)
- contains 4 to 6 numbered chapters covering the research focus areas
- cites facts inline using the exact form [[site name](url)], where url MUST be one of the source URLs given to you — never invent a URL
- includes a table wherever you compare 3 or more entities across 2 or more attributes
- ends with a short "Limitations" note naming any focus area with weak evidence

Do not output anything other than the Markdown document.`
}

func buildPayload(goal string, focus []string, results []session.SubtaskResult, c caps) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Goal: %s\n", goal)
	fmt.Fprintf(&b, "Research focus areas: %s\n\n", strings.Join(focus, ", "))

	for _, r := range results {
		fmt.Fprintf(&b, "## %s (confidence %.2f)\n", r.Focus, r.Confidence)

		findings := r.Findings
		if len(findings) > c.maxFindings {
			findings = findings[:c.maxFindings]
		}
		for _, f := range findings {
			b.WriteString("- ")
			b.WriteString(truncate(f, c.maxSnippetLen))
			b.WriteString("\n")
		}

		sources := r.Sources
		if len(sources) > c.maxSources {
			sources = sources[:c.maxSources]
		}
		b.WriteString("Sources:\n")
		for _, src := range sources {
			fmt.Fprintf(&b, "- %s: %s — %s\n", src.Title, src.URL, truncate(src.Snippet, c.maxSnippetLen))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func collectURLs(results []session.SubtaskResult) map[string]bool {
	urls := make(map[string]bool)
	for _, r := range results {
		for _, src := range r.Sources {
			urls[src.URL] = true
		}
	}
	return urls
}

// citationRe matches [[text](url)] style inline citations.
var citationRe = regexp.MustCompile(`\[\[([^\]]+)\]\(([^)]+)\)\]`)

// stripUnknownCitations scans the report for citations whose URL is not
// in allowedURLs and rewrites them to plain text, returning the cleaned
// report and the list of URLs that survived the check.
func stripUnknownCitations(report string, allowedURLs map[string]bool) (string, []string) {
	seen := make(map[string]bool)
	var citations []string
	cleaned := citationRe.ReplaceAllStringFunc(report, func(match string) string {
		sub := citationRe.FindStringSubmatch(match)
		text, url := sub[1], sub[2]
		if !allowedURLs[url] {
			return text
		}
		if !seen[url] {
			seen[url] = true
			citations = append(citations, url)
		}
		return match
	})
	return cleaned, citations
}

// hasComparativeTable is a lightweight heuristic used by tests and
// callers that want to sanity-check a report includes at least one
// Markdown table (spec.md §4.8's comparative-content requirement). It
// is advisory only: the synthesizer does not block on its result.
func hasComparativeTable(markdown string) bool {
	lines := strings.Split(markdown, "\n")
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if strings.HasPrefix(l, "|") && strings.Count(l, "|") >= 3 {
			return true
		}
	}
	return false
}
