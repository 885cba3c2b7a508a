package agenttools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"clarifyagent/internal/confidence"
	"clarifyagent/internal/extract"
	"clarifyagent/internal/fetch"
	"clarifyagent/internal/scenario"
	"clarifyagent/internal/search"
	"clarifyagent/internal/urlrules"
)

// ResearchDeps bundles the capabilities the enhanced_research tool
// composes: WebSearch (C1), deep fetch (C1 PageFetcher + extract), the
// scenario planner (C2), and the confidence scorer (C3).
type ResearchDeps struct {
	SearchProvider        search.Provider
	FetchClient           *fetch.Client
	Extractor             extract.Extractor
	MaxConcurrentRequests int
	MaxContentChars       int
	ModelScorer           confidence.ModelScorer
	LLMConfidenceWeight   float64
}

// enhancedResearchArgs is the tool's (query, max_results) argument shape.
type enhancedResearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

// enhancedResearchResult is the structured payload the tool returns to
// the model, matching spec.md §4.4 step 3: findings/sources plus an
// explicit stop signal and action hint.
type enhancedResearchResult struct {
	Findings   []string `json:"findings"`
	Sources    []source `json:"sources"`
	Confidence float64  `json:"confidence"`
	ShouldStop bool     `json:"should_stop"`
	ActionHint string   `json:"action_hint"`
	JinaFailed bool     `json:"jina_failed,omitempty"`
}

type source struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Snippet    string `json:"snippet"`
	SourceType string `json:"source_type"`
}

// NewResearchRegistry registers the single enhanced_research tool the
// worker's agent loop calls. Replaces the teacher's four-tool minimal
// surface (web_search/fetch_url/extract_main_text/load_cached_excerpt)
// with one composite tool matching this engine's domain.
func NewResearchRegistry(deps ResearchDeps) (*Registry, error) {
	if deps.SearchProvider == nil {
		return nil, fmt.Errorf("NewResearchRegistry: SearchProvider is nil")
	}
	if deps.FetchClient == nil {
		return nil, fmt.Errorf("NewResearchRegistry: FetchClient is nil")
	}
	maxConcurrent := deps.MaxConcurrentRequests
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	maxContentChars := deps.MaxContentChars
	if maxContentChars <= 0 {
		maxContentChars = 3000
	}
	if deps.Extractor == nil {
		deps.Extractor = extract.HeuristicExtractor{}
	}

	r := NewRegistry()
	schema := json.RawMessage(`{
		"type":"object",
		"properties":{
			"query":{"type":"string"},
			"max_results":{"type":"integer","minimum":5,"maximum":25}
		},
		"required":["query"]
	}`)

	err := r.Register(ToolDefinition{
		StableName:  "enhanced_research",
		SemVer:      "v1.0.0",
		Description: "Search the web, deep-fetch the most valuable hits, and return findings with sources and a confidence score",
		JSONSchema:  schema,
		Capabilities: []string{"search", "fetch", "extract"},
		Handler: func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
			var in enhancedResearchArgs
			if err := json.Unmarshal(args, &in); err != nil {
				return nil, fmt.Errorf("invalid args: %w", err)
			}
			in.Query = strings.TrimSpace(in.Query)
			if in.Query == "" {
				return nil, fmt.Errorf("missing query")
			}
			if in.MaxResults < 5 {
				in.MaxResults = 5
			}
			if in.MaxResults > 25 {
				in.MaxResults = 25
			}

			out, err := runEnhancedResearch(ctx, deps, maxConcurrent, maxContentChars, in)
			if err != nil {
				return nil, err
			}
			return json.Marshal(out)
		},
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func runEnhancedResearch(ctx context.Context, deps ResearchDeps, maxConcurrent, maxContentChars int, in enhancedResearchArgs) (enhancedResearchResult, error) {
	hits, err := deps.SearchProvider.Search(ctx, in.Query, in.MaxResults)
	if err != nil {
		return enhancedResearchResult{}, fmt.Errorf("web search: %w", err)
	}

	sc := scenario.Classify(in.Query)
	candidates := scenario.Plan(sc, hits, in.MaxResults)

	var targets []scenario.Candidate
	for _, c := range candidates {
		if c.DeepFetch {
			targets = append(targets, c)
		}
	}

	deepSources, attempted, succeeded := deepFetch(ctx, deps.FetchClient, deps.Extractor, targets, maxConcurrent, maxContentChars)

	searchSources := make([]source, 0, len(hits))
	for _, h := range hits {
		if !urlrules.IsValidURL(h.URL) {
			continue
		}
		searchSources = append(searchSources, source{
			Title:      h.Title,
			URL:        urlrules.Clean(h.URL),
			Snippet:    h.Snippet,
			SourceType: "search_result",
		})
	}

	merged := mergeSources(deepSources, searchSources)

	findings := extractFindings(deepSources, searchSources)

	confInput := confidence.Input{
		Scenario:           sc,
		TotalSources:       len(merged),
		DeepFetchAttempted: attempted,
		DeepFetchSucceeded: succeeded,
	}
	score := confidence.Final(ctx, confInput, in.Query, findings, deps.ModelScorer, deps.LLMConfidenceWeight)

	actionHint := "continue_research"
	if score >= 0.7 {
		actionHint = "sufficient_evidence"
	}

	return enhancedResearchResult{
		Findings:   findings,
		Sources:    merged,
		Confidence: score,
		ShouldStop: score >= 0.7,
		ActionHint: actionHint,
		JinaFailed: confidence.JinaFailed(confInput),
	}, nil
}

// deepFetch fetches each candidate's URL concurrently, bounded by a
// semaphore sized min(maxConcurrent, len(targets)), per spec.md §4.4/§5.
func deepFetch(ctx context.Context, client *fetch.Client, extractor extract.Extractor, targets []scenario.Candidate, maxConcurrent, maxContentChars int) (sources []source, attempted, succeeded int) {
	if len(targets) == 0 {
		return nil, 0, 0
	}
	size := maxConcurrent
	if len(targets) < size {
		size = len(targets)
	}
	if size < 1 {
		size = 1
	}
	sem := semaphore.NewWeighted(int64(size))

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, target := range targets {
		target := target
		if !urlrules.IsValidURL(target.Hit.URL) {
			continue
		}
		wg.Add(1)
		mu.Lock()
		attempted++
		mu.Unlock()
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			defer sem.Release(1)

			body, contentType, err := client.Get(ctx, target.Hit.URL)
			if err != nil {
				return // FetchError: ignore this URL, continue (spec.md §7)
			}
			if !strings.Contains(contentType, "text/html") && !strings.Contains(contentType, "xhtml") {
				return
			}
			doc := extractor.Extract(body)
			text := doc.Text
			if len(text) > maxContentChars {
				text = text[:maxContentChars]
			}
			mu.Lock()
			sources = append(sources, source{
				Title:      doc.Title,
				URL:        urlrules.Clean(target.Hit.URL),
				Snippet:    text,
				SourceType: "detailed_content",
			})
			succeeded++
			mu.Unlock()
		}()
	}
	wg.Wait()
	return sources, attempted, succeeded
}

// mergeSources combines deep-fetch sources and search-result sources,
// deep-fetch first, deduplicated by URL (spec.md §4.4 step 3).
func mergeSources(deep, search []source) []source {
	seen := make(map[string]bool, len(deep)+len(search))
	out := make([]source, 0, len(deep)+len(search))
	for _, s := range deep {
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	for _, s := range search {
		if seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}

// extractFindings turns the non-empty snippets of deep-fetched sources,
// then of search sources, into findings text, capped at 5 entries / 300
// chars each (spec.md §4.4 step 6).
func extractFindings(deep, search []source) []string {
	const maxFindings = 5
	const maxChars = 300
	var findings []string
	for _, s := range append(append([]source{}, deep...), search...) {
		text := strings.TrimSpace(s.Snippet)
		if text == "" {
			continue
		}
		if len(text) > maxChars {
			text = text[:maxChars]
		}
		findings = append(findings, text)
		if len(findings) >= maxFindings {
			break
		}
	}
	return findings
}
