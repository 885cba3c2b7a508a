package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections improve readability and map naturally to flags/env.
type FileConfig struct {
	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Search struct {
		BaseURL string `yaml:"base" json:"base"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"search" json:"search"`

	PageFetch struct {
		BaseURL     string        `yaml:"base" json:"base"`
		APIKey      string        `yaml:"key" json:"key"`
		Timeout     time.Duration `yaml:"timeout" json:"timeout"`
		Retries     int           `yaml:"retries" json:"retries"`
		SkipDomains []string      `yaml:"skipDomains" json:"skipDomains"`
	} `yaml:"pageFetch" json:"pageFetch"`

	Concurrency struct {
		MaxParallelSubagents  int           `yaml:"maxParallelSubagents" json:"maxParallelSubagents"`
		MaxConcurrentRequests int           `yaml:"maxConcurrentRequests" json:"maxConcurrentRequests"`
		MaxAgentTurns         *int          `yaml:"maxAgentTurns" json:"maxAgentTurns"` // pointer: 0 is a meaningful value, distinct from unset
		AgentExecutionTimeout time.Duration `yaml:"agentExecutionTimeout" json:"agentExecutionTimeout"`
		SoftExitTimeout       time.Duration `yaml:"softExitTimeout" json:"softExitTimeout"`
		APITimeout            time.Duration `yaml:"apiTimeout" json:"apiTimeout"`
	} `yaml:"concurrency" json:"concurrency"`

	Results struct {
		MaxSearchResults int `yaml:"maxSearchResults" json:"maxSearchResults"`
		MaxContentChars  int `yaml:"maxContentChars" json:"maxContentChars"`
	} `yaml:"results" json:"results"`

	Confidence struct {
		EnableLLM *bool   `yaml:"enableLLM" json:"enableLLM"`
		LLMWeight float64 `yaml:"llmWeight" json:"llmWeight"`
	} `yaml:"confidence" json:"confidence"`

	EnablePDF     bool   `yaml:"enablePDF" json:"enablePDF"`
	OutputPDFPath string `yaml:"outputPDFPath" json:"outputPDFPath"`

	Verbose bool `yaml:"verbose" json:"verbose"`
	DryRun  bool `yaml:"dryRun" json:"dryRun"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently at the compiled-in default. The caller applies
// ApplyEnvOverrides afterwards, so a value set in the environment replaces
// whatever the file supplied.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	d := Defaults()

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.SearchBaseURL == "" && fc.Search.BaseURL != "" {
		cfg.SearchBaseURL = fc.Search.BaseURL
	}
	if cfg.SearchAPIKey == "" && fc.Search.APIKey != "" {
		cfg.SearchAPIKey = fc.Search.APIKey
	}
	if cfg.PageFetchBaseURL == "" && fc.PageFetch.BaseURL != "" {
		cfg.PageFetchBaseURL = fc.PageFetch.BaseURL
	}
	if cfg.PageFetchAPIKey == "" && fc.PageFetch.APIKey != "" {
		cfg.PageFetchAPIKey = fc.PageFetch.APIKey
	}
	if cfg.PageFetchTimeout == d.PageFetchTimeout && fc.PageFetch.Timeout > 0 {
		cfg.PageFetchTimeout = fc.PageFetch.Timeout
	}
	if cfg.PageFetchRetries == d.PageFetchRetries && fc.PageFetch.Retries > 0 {
		cfg.PageFetchRetries = fc.PageFetch.Retries
	}
	if len(cfg.PageFetchSkipDomains) == 0 && len(fc.PageFetch.SkipDomains) > 0 {
		cfg.PageFetchSkipDomains = append([]string{}, fc.PageFetch.SkipDomains...)
	}

	if cfg.MaxParallelSubagents == d.MaxParallelSubagents && fc.Concurrency.MaxParallelSubagents > 0 {
		cfg.MaxParallelSubagents = fc.Concurrency.MaxParallelSubagents
	}
	if cfg.MaxConcurrentRequests == d.MaxConcurrentRequests && fc.Concurrency.MaxConcurrentRequests > 0 {
		cfg.MaxConcurrentRequests = fc.Concurrency.MaxConcurrentRequests
	}
	if cfg.MaxAgentTurns == d.MaxAgentTurns && fc.Concurrency.MaxAgentTurns != nil {
		cfg.MaxAgentTurns = *fc.Concurrency.MaxAgentTurns
	}
	if cfg.AgentExecutionTimeout == d.AgentExecutionTimeout && fc.Concurrency.AgentExecutionTimeout > 0 {
		cfg.AgentExecutionTimeout = fc.Concurrency.AgentExecutionTimeout
	}
	if cfg.SoftExitTimeout == d.SoftExitTimeout && fc.Concurrency.SoftExitTimeout > 0 {
		cfg.SoftExitTimeout = fc.Concurrency.SoftExitTimeout
	}
	if cfg.APITimeout == d.APITimeout && fc.Concurrency.APITimeout > 0 {
		cfg.APITimeout = fc.Concurrency.APITimeout
	}

	if cfg.MaxSearchResults == d.MaxSearchResults && fc.Results.MaxSearchResults > 0 {
		cfg.MaxSearchResults = fc.Results.MaxSearchResults
	}
	if cfg.MaxContentChars == d.MaxContentChars && fc.Results.MaxContentChars > 0 {
		cfg.MaxContentChars = fc.Results.MaxContentChars
	}

	if fc.Confidence.EnableLLM != nil {
		cfg.EnableLLMConfidence = *fc.Confidence.EnableLLM
	}
	if cfg.LLMConfidenceWeight == d.LLMConfidenceWeight && fc.Confidence.LLMWeight > 0 {
		cfg.LLMConfidenceWeight = fc.Confidence.LLMWeight
	}

	if !cfg.EnablePDF && fc.EnablePDF {
		cfg.EnablePDF = true
	}
	if cfg.OutputPDFPath == "" && fc.OutputPDFPath != "" {
		cfg.OutputPDFPath = fc.OutputPDFPath
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// In dry-run mode the LLM model may be omitted (no capability calls occur).
func ValidateConfig(cfg Config) error {
	if !cfg.DryRun && strings.TrimSpace(cfg.LLMModel) == "" {
		return errors.New("config: llm model is required (or set LLM_MODEL)")
	}
	if cfg.MaxParallelSubagents < 0 || cfg.MaxConcurrentRequests < 0 || cfg.MaxAgentTurns < 0 {
		return errors.New("config: negative concurrency limits are not allowed")
	}
	if cfg.MaxSearchResults < 0 || cfg.MaxContentChars < 0 {
		return errors.New("config: negative result limits are not allowed")
	}
	return nil
}
