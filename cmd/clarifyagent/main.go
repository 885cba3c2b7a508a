package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"clarifyagent/internal/agenttools"
	"clarifyagent/internal/app"
	"clarifyagent/internal/confidence"
	"clarifyagent/internal/fetch"
	"clarifyagent/internal/llm"
	"clarifyagent/internal/orchestrator"
	"clarifyagent/internal/search"
	"clarifyagent/internal/session"
	"clarifyagent/internal/worker"
)

// main drives a single conversational turn from the command line. The
// engine itself has no presentation layer (HTTP/SSE serving is out of
// scope); this binary is the minimal harness that exercises it.
func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		message    string
		configPath string
		verbose    bool
	)
	flag.StringVar(&message, "message", "", "User message for this turn; reads stdin if empty")
	flag.StringVar(&configPath, "config", "", "Optional YAML/JSON config file path")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Defaults()
	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config file")
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)
	for _, w := range cfg.Clamp() {
		log.Warn().Msg(w)
	}

	if message == "" {
		message = readStdin()
	}
	if strings.TrimSpace(message) == "" {
		log.Fatal().Msg("no message supplied: pass -message or pipe one on stdin")
	}

	// Every capability adapter shares one connection pool/DNS cache
	// (spec.md §4.1/§5); only each adapter's own request timeout differs.
	model := llm.AsChatModel(llm.NewWithHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, app.NewSharedHTTPClient(cfg, cfg.APITimeout)))
	searcher := &search.SearxNG{
		BaseURL:    cfg.SearchBaseURL,
		APIKey:     cfg.SearchAPIKey,
		HTTPClient: app.NewSharedHTTPClient(cfg, 10*time.Second),
	}

	var scorer confidence.ModelScorer
	if cfg.EnableLLMConfidence {
		scorer = confidence.ChatModelScorer{Model: model, ModelName: cfg.LLMModel}
	}

	registry, err := agenttools.NewResearchRegistry(agenttools.ResearchDeps{
		SearchProvider: searcher,
		FetchClient: &fetch.Client{
			HTTPClient:        app.NewSharedHTTPClient(cfg, cfg.PageFetchTimeout),
			UserAgent:         "clarifyagent/1.0",
			MaxAttempts:       cfg.PageFetchRetries + 1,
			PerRequestTimeout: cfg.PageFetchTimeout,
			SkipDomains:       cfg.PageFetchSkipDomains,
		},
		MaxConcurrentRequests: cfg.MaxConcurrentRequests,
		MaxContentChars:       cfg.MaxContentChars,
		ModelScorer:           scorer,
		LLMConfidenceWeight:   cfg.LLMConfidenceWeight,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build research tool registry")
	}

	orch := orchestrator.New(orchestrator.Config{
		Model:       model,
		ModelName:   cfg.LLMModel,
		Searcher:    searcher,
		Registry:    registry,
		MaxParallel: cfg.MaxParallelSubagents,
		WorkerConfig: worker.Config{
			ModelName:       cfg.LLMModel,
			MaxAgentTurns:   cfg.MaxAgentTurns,
			ToolTimeout:     20 * time.Second,
			SoftExitTimeout: cfg.SoftExitTimeout,
			HardTimeout:     cfg.AgentExecutionTimeout,
		},
	})

	store := session.NewMemoryStore()
	sessionID := session.NewID()
	state := &session.State{ID: sessionID, Mode: session.ModeResearch}
	state.Messages = append(state.Messages, session.Message{Role: session.RoleUser, Content: message})

	ctx := context.Background()
	outcome := orch.Run(ctx, state.Messages, state.Draft, func(stage, msg string, detail any) {
		if detail != nil {
			log.Info().Str("stage", stage).Interface("detail", detail).Msg(msg)
		} else {
			log.Info().Str("stage", stage).Msg(msg)
		}
	})

	state.PendingPlan = &outcome.Plan
	if outcome.Result != nil {
		state.LastResult = outcome.Result
	}
	store.Put(sessionID, state)

	if outcome.Err != nil {
		log.Error().Err(outcome.Err).Msg("turn ended with an error")
		printPlan(outcome.Plan)
		os.Exit(1)
	}

	printPlan(outcome.Plan)
	if outcome.Result != nil {
		fmt.Println()
		fmt.Println(outcome.Result.Synthesis)
		if cfg.EnablePDF && cfg.OutputPDFPath != "" {
			if err := app.ExportPDF(outcome.Result.Synthesis, cfg.OutputPDFPath); err != nil {
				log.Error().Err(err).Msg("pdf export failed")
			}
		}
	}
}

func printPlan(plan session.Plan) {
	fmt.Fprintf(os.Stderr, "next_action=%s confidence=%.2f\n", plan.NextAction, plan.Confidence)
	if plan.Clarification != nil {
		fmt.Fprintf(os.Stderr, "clarification: %s\n", plan.Clarification.Question)
	}
	if plan.ConfirmPrompt != "" {
		fmt.Fprintf(os.Stderr, "confirm: %s\n", plan.ConfirmPrompt)
	}
}

func readStdin() string {
	stat, err := os.Stdin.Stat()
	if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
		return ""
	}
	var b strings.Builder
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
