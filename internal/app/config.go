package app

import "time"

// Config holds runtime configuration for the clarify/research engine. Every
// field corresponds to a setting in the external interfaces table: flags are
// the highest precedence source, then ApplyEnvOverrides, then ApplyFileConfig
// (fields still at their compiled-in default), then the defaults set by
// Defaults.
type Config struct {
	// LLM capability
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Web search capability
	SearchBaseURL string
	SearchAPIKey  string

	// Page fetch capability
	PageFetchBaseURL     string
	PageFetchAPIKey      string
	PageFetchTimeout     time.Duration
	PageFetchRetries     int
	PageFetchSkipDomains []string

	// Concurrency and deadlines (spec.md §6)
	MaxParallelSubagents  int
	MaxConcurrentRequests int
	MaxAgentTurns         int
	AgentExecutionTimeout time.Duration
	SoftExitTimeout       time.Duration
	APITimeout            time.Duration

	// Result shaping
	MaxSearchResults int
	MaxContentChars  int

	// Confidence scoring
	EnableLLMConfidence bool
	LLMConfidenceWeight float64

	// Ambient
	Verbose   bool
	DryRun    bool
	SSLVerify bool

	// Optional PDF export of the synthesized report (domain-stack addition,
	// mirrors the teacher's own optional PDF output).
	EnablePDF     bool
	OutputPDFPath string
}

// Defaults returns the compiled-in configuration baseline. File config and
// env overrides are layered on top by ApplyFileConfig/ApplyEnvOverrides;
// flags, applied by the caller, take final precedence.
func Defaults() Config {
	return Config{
		PageFetchTimeout:      3 * time.Second,
		PageFetchRetries:      0,
		MaxParallelSubagents:  3,
		MaxConcurrentRequests: 4,
		MaxAgentTurns:         2,
		AgentExecutionTimeout: 180 * time.Second,
		SoftExitTimeout:       90 * time.Second,
		APITimeout:            30 * time.Second,
		MaxSearchResults:      10,
		MaxContentChars:       8000,
		EnableLLMConfidence:   false,
		LLMConfidenceWeight:   0.3,
		SSLVerify:             true,
	}
}

// Clamp enforces the bounds the engine depends on for correctness (never
// zero workers, never a weight outside [0,1]). Out-of-range values are
// clamped with a warning returned to the caller to log, mirroring how the
// teacher clamps PerDomainCap/MaxSources against their own defaults.
func (c *Config) Clamp() (warnings []string) {
	if c.MaxParallelSubagents < 1 {
		warnings = append(warnings, "MAX_PARALLEL_SUBAGENTS < 1, clamped to 1")
		c.MaxParallelSubagents = 1
	}
	if c.MaxConcurrentRequests < 1 {
		warnings = append(warnings, "MAX_CONCURRENT_REQUESTS < 1, clamped to 1")
		c.MaxConcurrentRequests = 1
	}
	if c.MaxAgentTurns < 0 {
		warnings = append(warnings, "MAX_AGENT_TURNS < 0, clamped to 0")
		c.MaxAgentTurns = 0
	}
	if c.LLMConfidenceWeight < 0 {
		warnings = append(warnings, "LLM_CONFIDENCE_WEIGHT < 0, clamped to 0")
		c.LLMConfidenceWeight = 0
	}
	if c.LLMConfidenceWeight > 1 {
		warnings = append(warnings, "LLM_CONFIDENCE_WEIGHT > 1, clamped to 1")
		c.LLMConfidenceWeight = 1
	}
	return warnings
}
