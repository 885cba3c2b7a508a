// Package confidence implements the C3 confidence scorer: a rule-based
// score augmented by an optional model-based score.
package confidence

import (
	"context"
	"math"

	"clarifyagent/internal/scenario"
)

// Input bundles the signals the rule-based score depends on.
type Input struct {
	Scenario           scenario.Scenario
	TotalSources       int
	DeepFetchAttempted int
	DeepFetchSucceeded int
}

// RuleScore computes spec.md §4.3's formula:
//
//	min(((0.5 + min(0.1*sources, 0.3) + min(0.15*deep, 0.3)) * scenario_weight), 0.95)
//
// Deep-fetch success is additive only: a 0% success rate does not subtract
// from the score, it just contributes nothing. Callers should still
// annotate the result with JinaFailed when DeepFetchAttempted > 0 and
// DeepFetchSucceeded == 0, per the spec's "jina_failed: true" policy.
func RuleScore(in Input) float64 {
	sourcesTerm := math.Min(0.1*float64(in.TotalSources), 0.3)
	deepTerm := math.Min(0.15*float64(in.DeepFetchSucceeded), 0.3)
	base := (0.5 + sourcesTerm + deepTerm) * scenario.Weight(in.Scenario)
	return math.Min(base, 0.95)
}

// JinaFailed reports whether deep fetch was attempted but never succeeded,
// matching the original's jina_failed annotation. It does not affect the
// returned score; it is informational only.
func JinaFailed(in Input) bool {
	return in.DeepFetchAttempted > 0 && in.DeepFetchSucceeded == 0
}

// ModelScorer produces a model-based overall_confidence in [0,1], e.g. by
// prompting a ChatModel with the query and collected findings. Callers
// wire a concrete implementation; ChatModelScorer in this package's
// modelscore.go implements it on top of an llm.ChatModel.
type ModelScorer interface {
	Score(ctx context.Context, query string, findings []string) (float64, error)
}

// Final blends rule and model scores: rule*(1-w) + model*w, clamping w to
// [0,1]. If scorer is nil or Score returns an error, the rule score is
// used unchanged — the model pass never turns a usable result into a
// failure.
func Final(ctx context.Context, in Input, query string, findings []string, scorer ModelScorer, weight float64) float64 {
	rule := RuleScore(in)
	if scorer == nil {
		return rule
	}
	if weight < 0 {
		weight = 0
	}
	if weight > 1 {
		weight = 1
	}
	model, err := scorer.Score(ctx, query, findings)
	if err != nil {
		return rule
	}
	return rule*(1-weight) + model*weight
}
