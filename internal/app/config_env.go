package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values (e.g. already set from Defaults or flags) take
// precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = os.Getenv("SEARCH_BASE_URL")
	}
	if cfg.SearchAPIKey == "" {
		cfg.SearchAPIKey = os.Getenv("SEARCH_API_KEY")
	}
	if cfg.PageFetchBaseURL == "" {
		cfg.PageFetchBaseURL = os.Getenv("PAGE_FETCH_BASE_URL")
	}
	if cfg.PageFetchAPIKey == "" {
		cfg.PageFetchAPIKey = os.Getenv("PAGE_FETCH_API_KEY")
	}

	setDuration(&cfg.PageFetchTimeout, "PAGE_FETCH_TIMEOUT")
	setInt(&cfg.PageFetchRetries, "PAGE_FETCH_RETRIES")
	if len(cfg.PageFetchSkipDomains) == 0 {
		if v := strings.TrimSpace(os.Getenv("PAGE_FETCH_SKIP_DOMAINS")); v != "" {
			cfg.PageFetchSkipDomains = splitAndTrim(v)
		}
	}

	setInt(&cfg.MaxParallelSubagents, "MAX_PARALLEL_SUBAGENTS")
	setInt(&cfg.MaxConcurrentRequests, "MAX_CONCURRENT_REQUESTS")
	setIntAllowingZero(&cfg.MaxAgentTurns, "MAX_AGENT_TURNS", Defaults().MaxAgentTurns)
	setDuration(&cfg.AgentExecutionTimeout, "AGENT_EXECUTION_TIMEOUT")
	setDuration(&cfg.SoftExitTimeout, "SOFT_EXIT_TIMEOUT")
	setDuration(&cfg.APITimeout, "API_TIMEOUT")

	setInt(&cfg.MaxSearchResults, "MAX_SEARCH_RESULTS")
	setInt(&cfg.MaxContentChars, "MAX_CONTENT_CHARS")

	setFloat(&cfg.LLMConfidenceWeight, "LLM_CONFIDENCE_WEIGHT")

	setBoolIfUnset(&cfg.EnableLLMConfidence, "ENABLE_LLM_CONFIDENCE")
	setBoolIfUnset(&cfg.DryRun, "DRY_RUN")
	setBoolIfUnset(&cfg.Verbose, "VERBOSE")
	setBoolIfUnset(&cfg.EnablePDF, "ENABLE_PDF")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment
// variables when the corresponding env var is set, regardless of the
// current value. Used so env takes precedence over file config while flags
// (applied by the caller afterward) remain the final word.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("SEARCH_BASE_URL"); v != "" {
		cfg.SearchBaseURL = v
	}
	if v := os.Getenv("SEARCH_API_KEY"); v != "" {
		cfg.SearchAPIKey = v
	}
	if v := os.Getenv("PAGE_FETCH_BASE_URL"); v != "" {
		cfg.PageFetchBaseURL = v
	}
	if v := os.Getenv("PAGE_FETCH_API_KEY"); v != "" {
		cfg.PageFetchAPIKey = v
	}
	forceDuration(&cfg.PageFetchTimeout, "PAGE_FETCH_TIMEOUT")
	forceInt(&cfg.PageFetchRetries, "PAGE_FETCH_RETRIES")
	if v := strings.TrimSpace(os.Getenv("PAGE_FETCH_SKIP_DOMAINS")); v != "" {
		cfg.PageFetchSkipDomains = splitAndTrim(v)
	}

	forceInt(&cfg.MaxParallelSubagents, "MAX_PARALLEL_SUBAGENTS")
	forceInt(&cfg.MaxConcurrentRequests, "MAX_CONCURRENT_REQUESTS")
	forceInt(&cfg.MaxAgentTurns, "MAX_AGENT_TURNS")
	forceDuration(&cfg.AgentExecutionTimeout, "AGENT_EXECUTION_TIMEOUT")
	forceDuration(&cfg.SoftExitTimeout, "SOFT_EXIT_TIMEOUT")
	forceDuration(&cfg.APITimeout, "API_TIMEOUT")

	forceInt(&cfg.MaxSearchResults, "MAX_SEARCH_RESULTS")
	forceInt(&cfg.MaxContentChars, "MAX_CONTENT_CHARS")

	forceFloat(&cfg.LLMConfidenceWeight, "LLM_CONFIDENCE_WEIGHT")

	forceBool(&cfg.EnableLLMConfidence, "ENABLE_LLM_CONFIDENCE")
	forceBool(&cfg.DryRun, "DRY_RUN")
	forceBool(&cfg.Verbose, "VERBOSE")
	forceBool(&cfg.EnablePDF, "ENABLE_PDF")
	forceBool(&cfg.SSLVerify, "SSL_VERIFY")
}

func splitAndTrim(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setInt(dst *int, envKey string) {
	if *dst != 0 {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(envKey))); err == nil {
		*dst = n
	}
}

// setIntAllowingZero is setInt's counterpart for fields where 0 is a
// meaningful, explicit value (MAX_AGENT_TURNS, spec.md §8) rather than
// "unset" — it fills from env only while dst still holds the compiled-in
// default, but (unlike setInt) an env value of "0" is honored.
func setIntAllowingZero(dst *int, envKey string, compiledDefault int) {
	if *dst != compiledDefault {
		return
	}
	if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(envKey))); err == nil {
		*dst = n
	}
}

func forceInt(dst *int, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat(dst *float64, envKey string) {
	if *dst != 0 {
		return
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(envKey)), 64); err == nil {
		*dst = f
	}
}

func forceFloat(dst *float64, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setDuration(dst *time.Duration, envKey string) {
	if *dst != 0 {
		return
	}
	if d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(envKey))); err == nil {
		*dst = d
	}
}

func forceDuration(dst *time.Duration, envKey string) {
	if v := strings.TrimSpace(os.Getenv(envKey)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setBoolIfUnset(dst *bool, envKey string) {
	if *dst {
		return
	}
	if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
		if s == "1" || s == "true" || s == "yes" || s == "on" {
			*dst = true
		}
	}
}

func forceBool(dst *bool, envKey string) {
	if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
		switch s {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
}
