package scenario

import (
	"sort"
	"strings"

	"clarifyagent/internal/search"
)

// Candidate is a single search hit under consideration for deep fetch.
type Candidate struct {
	Hit      search.Result
	Rank     int // 0-based position in the original search results
	DeepFetch bool
	Priority int // 1..5, meaningful only when DeepFetch is true
	Reason   string
}

// highValueDomains maps a domain fragment to a priority contribution; these
// apply regardless of scenario (publisher/registry/regulator sources are
// always worth a closer look).
var highValueDomains = map[string]int{
	"doi.org":                    5,
	"pubmed.ncbi.nlm.nih.gov":    5,
	"pmc.ncbi.nlm.nih.gov":       5,
	"clinicaltrials.gov":         5,
	"fda.gov":                    4,
	"ema.europa.eu":              4,
	"arxiv.org":                  4,
	"nature.com":                 4,
	"sciencedirect.com":          3,
	"who.int":                    3,
}

// scenarioDomainHints gives scenario-specific bonus domains/keywords, on
// top of the universal highValueDomains table.
var scenarioDomainHints = map[Scenario][]string{
	MarketAnalysis:          {"statista.com", "marketresearch", "bloomberg.com"},
	RegulatoryReview:        {"fda.gov", "ema.europa.eu", "gov"},
	CompetitiveIntelligence: {"crunchbase.com", "patents.google.com"},
}

// Plan ranks candidate hits for deep fetch, honoring the scenario's
// domain/keyword rules, the short-snippet promotion rule, and the
// result-count tier cap (spec.md §4.2).
func Plan(s Scenario, hits []search.Result, requestedNumResults int) []Candidate {
	candidates := make([]Candidate, 0, len(hits))
	for i, h := range hits {
		c := Candidate{Hit: h, Rank: i}
		c.Priority, c.Reason = priorityFor(s, h)
		if c.Priority > 0 {
			c.DeepFetch = true
		}
		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].Rank < candidates[j].Rank
	})

	cap := capForTier(requestedNumResults)
	kept := 0
	for i := range candidates {
		if !candidates[i].DeepFetch {
			continue
		}
		if kept >= cap {
			candidates[i].DeepFetch = false
			continue
		}
		kept++
	}
	return candidates
}

// priorityFor returns (priority in [1,5], reason) for a single hit, or
// (0, "") when the hit does not merit deep fetch.
func priorityFor(s Scenario, h search.Result) (int, string) {
	host := strings.ToLower(h.URL)

	for domain, p := range highValueDomains {
		if strings.Contains(host, domain) {
			return p, "high-value domain: " + domain
		}
	}
	for _, hint := range scenarioDomainHints[s] {
		if strings.Contains(host, hint) {
			return 3, "scenario domain hint: " + hint
		}
	}
	for _, kw := range scenarioKeywords[s] {
		if strings.Contains(strings.ToLower(h.Snippet), kw) {
			return 2, "scenario keyword: " + kw
		}
	}
	if len(strings.TrimSpace(h.Snippet)) < 300 {
		return 2, "short snippet promoted for deep fetch"
	}
	return 0, ""
}

// capForTier returns how many deep_fetch targets are allowed given the
// caller's requested result count (spec.md §4.2's tiering).
func capForTier(requestedNumResults int) int {
	switch {
	case requestedNumResults <= 8:
		return 3
	case requestedNumResults <= 15:
		return 3
	default:
		return 5
	}
}
