// Package worker implements the research worker (C4): a single
// tool-using agent loop bounded by a turn cap and three nested
// deadlines, that always produces a well-formed session.SubtaskResult
// and never propagates a failure to its caller (spec.md §4.4).
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"clarifyagent/internal/agenttools"
	"clarifyagent/internal/llm"
	"clarifyagent/internal/session"
)

// Config bounds a worker's agent loop. Zero durations fall back to the
// defaults below; a negative MaxAgentTurns falls back to 2, while 0 means
// Run attempts no research.
type Config struct {
	ModelName       string
	MaxAgentTurns   int           // default 2
	ToolTimeout     time.Duration // default 20s
	SoftExitTimeout time.Duration // default 90s
	HardTimeout     time.Duration // default 180s
}

func (c Config) withDefaults() Config {
	if c.MaxAgentTurns < 0 {
		c.MaxAgentTurns = 2
	}
	if c.ToolTimeout <= 0 {
		c.ToolTimeout = 20 * time.Second
	}
	if c.SoftExitTimeout <= 0 {
		c.SoftExitTimeout = 90 * time.Second
	}
	if c.HardTimeout <= 0 {
		c.HardTimeout = 180 * time.Second
	}
	return c
}

// Worker owns one reusable tool-calling agent. Workers are allocated
// lazily by the pool (C5) and reused across subtasks — Run carries no
// state between invocations beyond what Config specifies.
type Worker struct {
	Model    llm.ChatModel
	Registry *agenttools.Registry
	Config   Config
}

// systemPrompt is shown once per subtask. The "HARD LIMIT" wording is
// advisory — MAX_AGENT_TURNS is the mechanism that actually enforces
// the turn cap, this text only steers the model toward finishing early.
const systemPrompt = `You are a research worker. You have one tool, enhanced_research, that searches the web and deep-fetches the most valuable pages for a query.

Call enhanced_research with focused queries. HARD LIMIT: 3 searches. Stop calling the tool and write a short plain-text summary of what you found as soon as should_stop is true in a tool result, or once you have enough evidence to answer the focus area.`

// Run executes subtask's agent loop to completion, to a soft exit, to a
// hard timeout, or to the turn cap — whichever comes first — and always
// returns a SubtaskResult with Confidence in [0.0, 0.5] on any failure
// path, per spec.md §4.4's failure semantics.
func (w *Worker) Run(ctx context.Context, subtask session.Subtask) session.SubtaskResult {
	cfg := w.Config.withDefaults()

	if cfg.MaxAgentTurns == 0 {
		return maxTurnsPlaceholder(subtask)
	}

	hardCtx, hardCancel := context.WithTimeout(ctx, cfg.HardTimeout)
	defer hardCancel()

	softCtx, softCancel := context.WithTimeout(hardCtx, cfg.SoftExitTimeout)
	defer softCancel()

	orch := &agenttools.Orchestrator{
		Model:          w.Model,
		Registry:       w.Registry,
		ModelName:      cfg.ModelName,
		MaxToolCalls:   cfg.MaxAgentTurns,
		PerToolTimeout: cfg.ToolTimeout,
	}

	userPrompt := buildUserPrompt(subtask)

	type runOutcome struct {
		result agenttools.Result
		err    error
	}
	done := make(chan runOutcome, 1)
	go func() {
		res, err := orch.Run(softCtx, systemPrompt, userPrompt)
		done <- runOutcome{res, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return fromOrchestratorError(subtask, out.err, hardCtx, softCtx)
		}
		return fromOrchestratorResult(subtask, out.result)
	case <-softCtx.Done():
		<-done // let the goroutine exit; its result is discarded
		if hardCtx.Err() != nil {
			return hardTimeoutPlaceholder(subtask)
		}
		return softExitPlaceholder(subtask)
	}
}

func buildUserPrompt(subtask session.Subtask) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research focus: %s\n", subtask.Focus)
	if len(subtask.Queries) > 0 {
		b.WriteString("Suggested queries:\n")
		for _, q := range subtask.Queries {
			fmt.Fprintf(&b, "- %s\n", q)
		}
	}
	return b.String()
}

// fromOrchestratorResult builds a SubtaskResult from the tool's last
// structured data when present, falling back to a low-confidence
// result built from the model's final text when the model finalized
// without ever calling the tool.
func fromOrchestratorResult(subtask session.Subtask, res agenttools.Result) session.SubtaskResult {
	if len(res.LastToolData) > 0 {
		var data struct {
			Findings []string `json:"findings"`
			Sources  []struct {
				Title      string `json:"title"`
				URL        string `json:"url"`
				Snippet    string `json:"snippet"`
				SourceType string `json:"source_type"`
			} `json:"sources"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal(res.LastToolData, &data); err == nil {
			sources := make([]session.Source, 0, len(data.Sources))
			for _, s := range data.Sources {
				sources = append(sources, session.Source{
					Title:      s.Title,
					URL:        s.URL,
					Snippet:    s.Snippet,
					SourceType: session.SourceType(s.SourceType),
				})
			}
			return session.SubtaskResult{
				SubtaskID:  subtask.ID,
				Focus:      subtask.Focus,
				Findings:   data.Findings,
				Sources:    sources,
				Confidence: clampConfidence(data.Confidence),
			}
		}
	}

	if strings.TrimSpace(res.FinalText) != "" {
		return session.SubtaskResult{
			SubtaskID:  subtask.ID,
			Focus:      subtask.Focus,
			Findings:   []string{res.FinalText},
			Confidence: 0.4,
		}
	}

	return session.SubtaskResult{
		SubtaskID:  subtask.ID,
		Focus:      subtask.Focus,
		Findings:   []string{"no research tool results were produced"},
		Confidence: 0.0,
	}
}

func fromOrchestratorError(subtask session.Subtask, err error, hardCtx, softCtx context.Context) session.SubtaskResult {
	log.Warn().Int("subtask", subtask.ID).Err(err).Msg("worker: agent run failed")
	switch {
	case hardCtx.Err() != nil:
		return hardTimeoutPlaceholder(subtask)
	case softCtx.Err() != nil:
		return softExitPlaceholder(subtask)
	default:
		return session.SubtaskResult{
			SubtaskID:  subtask.ID,
			Focus:      subtask.Focus,
			Findings:   []string{"research worker error: " + err.Error()},
			Confidence: 0.3,
		}
	}
}

func softExitPlaceholder(subtask session.Subtask) session.SubtaskResult {
	return session.SubtaskResult{
		SubtaskID:  subtask.ID,
		Focus:      subtask.Focus,
		Findings:   []string{"research exceeded the soft time budget; returning partial confidence"},
		Confidence: 0.5,
	}
}

func hardTimeoutPlaceholder(subtask session.Subtask) session.SubtaskResult {
	return session.SubtaskResult{
		SubtaskID:  subtask.ID,
		Focus:      subtask.Focus,
		Findings:   []string{"timeout"},
		Confidence: 0.3,
	}
}

// maxTurnsPlaceholder is returned immediately, with no agent loop ever
// started, when MaxAgentTurns is explicitly 0 (spec.md §8).
func maxTurnsPlaceholder(subtask session.Subtask) session.SubtaskResult {
	return session.SubtaskResult{
		SubtaskID:  subtask.ID,
		Focus:      subtask.Focus,
		Findings:   []string{"max agent turns is 0; no research was attempted"},
		Confidence: 0.0,
	}
}

// clampConfidence bounds a tool-reported confidence to the range the
// engine guarantees callers (spec.md §8: 0 <= r.confidence <= 0.95),
// since a blended score (rule-based confidence plus an LLM opinion) can
// otherwise land above the rule-based ceiling.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 0.95 {
		return 0.95
	}
	return c
}
