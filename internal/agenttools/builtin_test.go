package agenttools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"clarifyagent/internal/fetch"
	"clarifyagent/internal/search"
)

type fakeSearchProvider struct {
	hits []search.Result
	err  error
}

func (f *fakeSearchProvider) Search(ctx context.Context, query string, limit int) ([]search.Result, error) {
	return f.hits, f.err
}
func (f *fakeSearchProvider) Name() string { return "fake" }

func TestRunEnhancedResearchMergesDeepFetchAndSearchSources(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Deep Page</title></head><body><main><p>detailed market data</p></main></body></html>"))
	}))
	defer srv.Close()

	deps := ResearchDeps{
		SearchProvider: &fakeSearchProvider{hits: []search.Result{
			{Title: "Deep", URL: srv.URL, Snippet: "short snippet"},
			{Title: "Shallow", URL: "https://example.com/shallow", Snippet: "another snippet"},
		}},
		FetchClient: &fetch.Client{HTTPClient: srv.Client()},
	}

	out, err := runEnhancedResearch(context.Background(), deps, 4, 3000, enhancedResearchArgs{Query: "EV market size", MaxResults: 10})
	if err != nil {
		t.Fatalf("runEnhancedResearch: %v", err)
	}
	if len(out.Sources) == 0 {
		t.Fatal("expected at least one merged source")
	}
	if len(out.Findings) == 0 {
		t.Fatal("expected at least one finding")
	}
	if out.Confidence < 0 || out.Confidence > 1 {
		t.Fatalf("Confidence out of range: %v", out.Confidence)
	}
}

func TestRunEnhancedResearchPropagatesSearchError(t *testing.T) {
	deps := ResearchDeps{
		SearchProvider: &fakeSearchProvider{err: errTestSearch},
		FetchClient:    &fetch.Client{},
	}
	_, err := runEnhancedResearch(context.Background(), deps, 4, 3000, enhancedResearchArgs{Query: "q", MaxResults: 5})
	if err == nil {
		t.Fatal("expected an error when the search provider fails")
	}
}

func TestMergeSourcesDedupesByURLPreferringDeepFetch(t *testing.T) {
	deep := []source{{URL: "https://a.test", Title: "deep"}}
	shallow := []source{{URL: "https://a.test", Title: "shallow"}, {URL: "https://b.test", Title: "b"}}
	merged := mergeSources(deep, shallow)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Title != "deep" {
		t.Fatalf("expected deep-fetch source to win dedup, got %+v", merged[0])
	}
}

func TestExtractFindingsCapsCountAndLength(t *testing.T) {
	var deep []source
	for i := 0; i < 10; i++ {
		deep = append(deep, source{Snippet: string(make([]byte, 400))})
	}
	findings := extractFindings(deep, nil)
	if len(findings) != 5 {
		t.Fatalf("len(findings) = %d, want 5", len(findings))
	}
	for _, f := range findings {
		if len(f) > 300 {
			t.Fatalf("finding exceeds 300 chars: %d", len(f))
		}
	}
}

var errTestSearch = &searchError{"boom"}

type searchError struct{ msg string }

func (e *searchError) Error() string { return e.msg }
