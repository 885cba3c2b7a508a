// Package scenario implements the C2 scenario classifier and research
// planner: classifying a query into a small closed set of domains, then
// deciding which search hits deserve a deep fetch.
package scenario

import "strings"

// Scenario is one of the closed set of research domains the planner
// reasons about. Order matters: Classify's tie-break prefers the
// earlier-declared scenario, matching spec.md §4.2's "deterministic
// tie-break by enum order".
type Scenario string

const (
	Retrosynthesis        Scenario = "retrosynthesis"
	PipelineEvaluation     Scenario = "pipeline_evaluation"
	ClinicalPipeline       Scenario = "clinical_pipeline"
	MarketAnalysis         Scenario = "market_analysis"
	RegulatoryReview       Scenario = "regulatory_review"
	AcademicResearch       Scenario = "academic_research"
	CompetitiveIntelligence Scenario = "competitive_intelligence"
)

// orderedScenarios fixes the enum order used for classification tie-breaks
// and for iterating scenarioKeywords deterministically.
var orderedScenarios = []Scenario{
	Retrosynthesis,
	PipelineEvaluation,
	ClinicalPipeline,
	MarketAnalysis,
	RegulatoryReview,
	AcademicResearch,
	CompetitiveIntelligence,
}

// scenarioKeywords are fixed keyword lists scored by substring match
// against the lowercased query. The highest-scoring scenario wins;
// Classify never returns a tie, breaking toward the earlier enum entry.
var scenarioKeywords = map[Scenario][]string{
	Retrosynthesis: {
		"synthesis route", "retrosynthesis", "synthetic route", "reaction",
		"precursor", "yield", "catalyst", "reagent", "synthesize",
	},
	PipelineEvaluation: {
		"pipeline", "assay", "screening", "hit-to-lead", "lead optimization",
		"target validation", "structure-activity", "sar",
	},
	ClinicalPipeline: {
		"clinical trial", "phase i", "phase ii", "phase iii", "clinicaltrials",
		"endpoint", "efficacy", "adverse event", "patient cohort",
	},
	MarketAnalysis: {
		"market size", "market share", "revenue", "forecast", "tam", "cagr",
		"competitive landscape", "pricing",
	},
	RegulatoryReview: {
		"fda", "ema", "regulatory", "approval", "label", "guidance document",
		"compliance", "submission",
	},
	AcademicResearch: {
		"literature review", "peer-reviewed", "citation", "hypothesis",
		"methodology", "academic", "journal", "preprint",
	},
	CompetitiveIntelligence: {
		"competitor", "competitive intelligence", "benchmark", "market position",
		"patent landscape", "rival",
	},
}

// scenarioWeights are the per-scenario confidence weights C3 multiplies
// into the rule score (spec.md §4.3), in [0.7, 0.9] with 0.75 as the
// default for any scenario not listed here.
var scenarioWeights = map[Scenario]float64{
	Retrosynthesis:          0.8,
	PipelineEvaluation:      0.75,
	ClinicalPipeline:        0.85,
	MarketAnalysis:          0.7,
	RegulatoryReview:        0.9,
	AcademicResearch:        0.75,
	CompetitiveIntelligence: 0.75,
}

const defaultScenarioWeight = 0.75

// Weight returns the scenario's confidence-scoring weight.
func Weight(s Scenario) float64 {
	if w, ok := scenarioWeights[s]; ok {
		return w
	}
	return defaultScenarioWeight
}

// Classify counts keyword matches for each scenario against the lowercased
// query and returns the highest-scoring one. A query matching nothing
// defaults to AcademicResearch, the closest fit for an open-ended request.
func Classify(query string) Scenario {
	q := strings.ToLower(query)
	best := AcademicResearch
	bestScore := -1
	for _, s := range orderedScenarios {
		score := 0
		for _, kw := range scenarioKeywords[s] {
			if strings.Contains(q, kw) {
				score++
			}
		}
		if score > bestScore {
			bestScore = score
			best = s
		}
	}
	if bestScore <= 0 {
		return AcademicResearch
	}
	return best
}
