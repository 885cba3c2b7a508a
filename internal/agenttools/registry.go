package agenttools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ToolHandler executes a tool using raw JSON arguments and returns a raw
// JSON result or an error. Errors must be actionable and safe to surface
// back into a transcript.
type ToolHandler func(ctx context.Context, args json.RawMessage) (json.RawMessage, error)

// ToolDefinition describes a callable tool with stable identity.
// StableName must be lowercase snake_case and never change across
// versions. Capabilities list high-level behaviors for audit/logging.
type ToolDefinition struct {
	StableName   string
	SemVer       string
	Description  string
	JSONSchema   json.RawMessage
	Capabilities []string
	Handler      ToolHandler
}

// ToolMeta is a minimal, serializable view for logs.
type ToolMeta struct {
	StableName   string   `json:"stable_name"`
	SemVer       string   `json:"semver"`
	Capabilities []string `json:"capabilities"`
}

// Registry holds the set of available tools keyed by stable name.
type Registry struct {
	nameToDef map[string]ToolDefinition
}

func NewRegistry() *Registry {
	return &Registry{nameToDef: make(map[string]ToolDefinition)}
}

var (
	nameRe   = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)
	semverRe = regexp.MustCompile(`^v?(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
)

// Register adds or replaces a tool definition by stable name after
// validation of the stable name, semver, and that the schema is a JSON
// object.
func (r *Registry) Register(def ToolDefinition) error {
	if def.StableName == "" || !nameRe.MatchString(def.StableName) {
		return fmt.Errorf("invalid stable name %q: must be lowercase snake_case starting with a letter", def.StableName)
	}
	if def.SemVer == "" || !semverRe.MatchString(def.SemVer) {
		return fmt.Errorf("invalid semver %q: must follow semantic versioning", def.SemVer)
	}
	if len(def.JSONSchema) == 0 || !isJSONObject(def.JSONSchema) {
		return errors.New("json schema must be a non-empty JSON object")
	}
	if def.Handler == nil {
		return errors.New("handler must not be nil")
	}
	cleaned := make([]string, 0, len(def.Capabilities))
	for _, c := range def.Capabilities {
		if c = strings.TrimSpace(c); c != "" {
			cleaned = append(cleaned, c)
		}
	}
	def.Capabilities = cleaned
	if r.nameToDef == nil {
		r.nameToDef = make(map[string]ToolDefinition)
	}
	r.nameToDef[def.StableName] = def
	return nil
}

// Specs returns OpenAI-compatible tool specs, sorted by stable name for
// reproducibility.
func (r *Registry) Specs() []ToolSpec {
	names := r.sortedNames()
	specs := make([]ToolSpec, 0, len(names))
	for _, name := range names {
		def := r.nameToDef[name]
		description := def.Description
		if def.SemVer != "" {
			description = fmt.Sprintf("%s (version %s)", description, def.SemVer)
		}
		specs = append(specs, ToolSpec{Name: def.StableName, Description: description, JSONSchema: def.JSONSchema})
	}
	return specs
}

// Get returns a tool definition by stable name if present.
func (r *Registry) Get(stableName string) (ToolDefinition, bool) {
	def, ok := r.nameToDef[stableName]
	return def, ok
}

// Catalog returns a deterministic, sorted slice of ToolMeta.
func (r *Registry) Catalog() []ToolMeta {
	names := r.sortedNames()
	out := make([]ToolMeta, 0, len(names))
	for _, name := range names {
		def := r.nameToDef[name]
		out = append(out, ToolMeta{StableName: def.StableName, SemVer: def.SemVer, Capabilities: append([]string(nil), def.Capabilities...)})
	}
	return out
}

func (r *Registry) sortedNames() []string {
	names := make([]string, 0, len(r.nameToDef))
	for name := range r.nameToDef {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func isJSONObject(raw json.RawMessage) bool {
	var any interface{}
	if err := json.Unmarshal(raw, &any); err != nil {
		return false
	}
	_, ok := any.(map[string]interface{})
	return ok
}
