// Package orchestrator implements the top-level driver (C9): for a
// single conversational turn it runs the clarifier, and on
// START_RESEARCH decomposes the goal, executes the worker pool, and
// synthesizes a report, reporting progress throughout (spec.md §4.9).
package orchestrator

import (
	"context"
	"errors"

	"clarifyagent/internal/agenttools"
	"clarifyagent/internal/app"
	"clarifyagent/internal/clarifier"
	"clarifyagent/internal/decompose"
	"clarifyagent/internal/llm"
	"clarifyagent/internal/pool"
	"clarifyagent/internal/search"
	"clarifyagent/internal/session"
	"clarifyagent/internal/synth"
	"clarifyagent/internal/worker"
)

// Stage names for the progress callback (spec.md §4.9).
const (
	StagePlanning     = "planning"
	StageSearching    = "searching"
	StageSynthesizing = "synthesizing"
	StageComplete     = "complete"
	StageError        = "error"
)

// Progress is invoked in causal order as a turn advances. detail is
// free-form and may be nil.
type Progress func(stage, message string, detail any)

// noopProgress is used when the caller passes nil.
func noopProgress(string, string, any) {}

// Config bundles the collaborators a turn needs. ModelName selects the
// chat model the clarifier and planner use; the research pool's model
// is supplied indirectly via NewWorker.
type Config struct {
	Model        llm.ChatModel
	ModelName    string
	Searcher     search.Provider
	Registry     *agenttools.Registry
	MaxParallel  int
	WorkerConfig worker.Config
}

// Orchestrator drives one turn end to end.
type Orchestrator struct {
	cfg         Config
	pool        *pool.Pool
	synthesizer *synth.Synthesizer
}

// New builds an Orchestrator, constructing its worker pool from cfg.
func New(cfg Config) *Orchestrator {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}
	newWorker := func() pool.Runner {
		return &worker.Worker{Model: cfg.Model, Registry: cfg.Registry, Config: cfg.WorkerConfig}
	}
	return &Orchestrator{
		cfg:         cfg,
		pool:        pool.New(newWorker, maxParallel),
		synthesizer: &synth.Synthesizer{Model: cfg.Model},
	}
}

// Outcome is what a turn produces: a Plan always, and a ResearchResult
// only when the turn reached START_RESEARCH and produced a report.
type Outcome struct {
	Plan   session.Plan
	Result *session.ResearchResult
	Err    error
}

// Run implements the literal control flow of spec.md §4.9.
func (o *Orchestrator) Run(ctx context.Context, messages []session.Message, draft session.TaskDraft, progress Progress) Outcome {
	if progress == nil {
		progress = noopProgress
	}

	progress(StagePlanning, "assessing request", nil)
	plan := clarifier.Assess(ctx, o.cfg.Model, o.cfg.ModelName, o.cfg.Searcher, messages, draft)

	switch plan.NextAction {
	case session.ActionNeedClarification, session.ActionConfirmPlan, session.ActionCannotDo:
		return Outcome{Plan: plan}

	case session.ActionVerifyTopic:
		messages = o.verifyTopicAndReassess(ctx, messages, plan, progress)
		plan = clarifier.Assess(ctx, o.cfg.Model, o.cfg.ModelName, o.cfg.Searcher, messages, draft)
		if plan.NextAction != session.ActionStartResearch {
			return Outcome{Plan: plan}
		}
		fallthrough

	case session.ActionStartResearch:
		return o.runResearch(ctx, plan, progress)
	}

	return Outcome{Plan: plan}
}

// verifyTopicAndReassess performs the single WebSearch.Query the spec
// calls for and appends its result into messages as system evidence, so
// the re-run Clarifier can see it.
func (o *Orchestrator) verifyTopicAndReassess(ctx context.Context, messages []session.Message, plan session.Plan, progress Progress) []session.Message {
	progress(StageSearching, "verifying topic", plan.SearchQuery)
	if o.cfg.Searcher == nil || plan.SearchQuery == "" {
		return messages
	}
	hits, err := o.cfg.Searcher.Search(ctx, plan.SearchQuery, 3)
	if err != nil || len(hits) == 0 {
		return append(messages, session.Message{
			Role:    session.RoleAssistant,
			Content: "Verification search for \"" + plan.SearchQuery + "\" returned no evidence.",
		})
	}
	evidence := "Verification search for \"" + plan.SearchQuery + "\":"
	for _, h := range hits {
		evidence += "\n- " + h.Title + ": " + h.Snippet
	}
	return append(messages, session.Message{Role: session.RoleAssistant, Content: evidence})
}

func (o *Orchestrator) runResearch(ctx context.Context, plan session.Plan, progress Progress) Outcome {
	subtasks := decompose.Decompose(ctx, o.cfg.Model, o.cfg.ModelName, plan.Task.Goal, plan.Task.ResearchFocus)
	if len(subtasks) == 0 {
		subtasks = fallbackOnePerFocus(plan.Task)
	}

	progress(StageSearching, "researching subtasks", len(subtasks))
	results := o.pool.ExecuteParallel(ctx, subtasks)

	live := dropNilOrFailed(results)
	if len(live) == 0 {
		progress(StageError, "all research subtasks failed", nil)
		return Outcome{Plan: plan, Err: errors.New("orchestrator: all subtasks failed or were dropped")}
	}

	progress(StageSynthesizing, "writing report", nil)
	report, err := o.synthesizer.Synthesize(ctx, plan.Task.Goal, plan.Task.ResearchFocus, live)
	if err != nil {
		progress(StageError, "synthesis failed", err.Error())
		return Outcome{Plan: plan, Err: err}
	}
	report.Synthesis = app.PostprocessReport(report.Synthesis, o.cfg.ModelName, "", report.Citations)

	progress(StageComplete, "done", nil)
	return Outcome{Plan: plan, Result: &report}
}

// fallbackOnePerFocus mirrors decompose's own fallback, used when the
// planner itself returns an empty plan (e.g. an empty focus list).
func fallbackOnePerFocus(task session.Task) []session.Subtask {
	subtasks := make([]session.Subtask, 0, len(task.ResearchFocus))
	for i, f := range task.ResearchFocus {
		subtasks = append(subtasks, session.Subtask{ID: i, Focus: f, Queries: []string{task.Goal + " " + f}, Parallel: true})
	}
	return subtasks
}

// dropNilOrFailed removes positions the pool could not execute at all
// (spec.md §4.9's "drop nil / error entries" — the pool only leaves a
// nil when its context was cancelled before a worker could start).
func dropNilOrFailed(results []*session.SubtaskResult) []session.SubtaskResult {
	live := make([]session.SubtaskResult, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		live = append(live, *r)
	}
	return live
}
