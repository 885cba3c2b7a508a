package scenario

import (
	"testing"

	"clarifyagent/internal/search"
)

func TestClassifyPicksHighestScoringScenario(t *testing.T) {
	got := Classify("what is the total addressable market size and CAGR forecast")
	if got != MarketAnalysis {
		t.Fatalf("Classify = %v, want %v", got, MarketAnalysis)
	}
}

func TestClassifyDefaultsToAcademicResearchOnNoMatch(t *testing.T) {
	got := Classify("tell me something")
	if got != AcademicResearch {
		t.Fatalf("Classify = %v, want %v", got, AcademicResearch)
	}
}

func TestClassifyTiesBreakTowardEarlierEnumEntry(t *testing.T) {
	// "reaction" (Retrosynthesis) and "pipeline" (PipelineEvaluation) each
	// match exactly one keyword; Retrosynthesis is declared first.
	got := Classify("reaction pipeline")
	if got != Retrosynthesis {
		t.Fatalf("Classify = %v, want %v (earlier enum entry on tie)", got, Retrosynthesis)
	}
}

func TestWeightFallsBackToDefaultForUnknownScenario(t *testing.T) {
	if w := Weight(Scenario("unknown")); w != defaultScenarioWeight {
		t.Fatalf("Weight = %v, want default %v", w, defaultScenarioWeight)
	}
	if w := Weight(RegulatoryReview); w != 0.9 {
		t.Fatalf("Weight(RegulatoryReview) = %v, want 0.9", w)
	}
}

func TestPlanPromotesHighValueDomainAndCapsByTier(t *testing.T) {
	hits := make([]search.Result, 0, 10)
	for i := 0; i < 10; i++ {
		hits = append(hits, search.Result{
			URL:     "https://example.com/article",
			Snippet: "a snippet under the 300-character short-snippet threshold, so every hit is promoted and the tier cap decides how many keep deep fetch",
		})
	}
	hits[0].URL = "https://doi.org/10.1000/example"

	candidates := Plan(AcademicResearch, hits, 8)

	if !candidates[0].DeepFetch || candidates[0].Priority != 5 {
		t.Fatalf("expected doi.org hit to be top-priority deep fetch, got %+v", candidates[0])
	}

	kept := 0
	for _, c := range candidates {
		if c.DeepFetch {
			kept++
		}
	}
	if kept > 3 {
		t.Fatalf("expected at most 3 deep-fetch candidates for requestedNumResults=8, got %d", kept)
	}
}

func TestPlanPromotesShortSnippets(t *testing.T) {
	hits := []search.Result{
		{URL: "https://random.example/a", Snippet: "short"},
	}
	candidates := Plan(MarketAnalysis, hits, 8)
	if !candidates[0].DeepFetch {
		t.Fatalf("expected short-snippet hit to be promoted for deep fetch, got %+v", candidates[0])
	}
}
