// Package clarifier implements the clarifier (C7): a five-dimension
// sufficiency assessment over the conversation, a decision table that
// maps the assessment to a NextAction, and the post-processing
// overrides and hard boundaries spec.md §4.7 layers on top of it.
package clarifier

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/text/width"

	"clarifyagent/internal/llm"
	"clarifyagent/internal/search"
	"clarifyagent/internal/session"
)

const (
	proceedThreshold    = 0.75
	confirmThreshold    = proceedThreshold - 0.15 // 0.60
	hardMinConfidence   = 0.6
	hardStartConfidence = 0.85
	hardStartMinFocus   = 3
)

// privateInfoRe matches first-person possessives and deictic references
// that signal the user is talking about their own, unnamed project
// rather than a publicly searchable entity (spec.md §4.7).
var privateInfoRe = regexp.MustCompile(`(?i)\b(my|our)\b|我们的|我的|this project`)

const clarifierSystemPrompt = `You assess whether a research request has enough information to proceed. Score five dimensions in [0,1]:
- what: is the subject of research named and specific?
- action: is the requested action (compare, evaluate, summarize, etc.) clear?
- constraint: are scope/timeframe/geography constraints clear enough to bound the research?
- context: does prior conversation already supply missing details?
- output: is the desired output format or depth clear?

Reply with ONLY JSON:
{"what":0.0,"action":0.0,"constraint":0.0,"context":0.0,"output":0.0,"goal":"...","research_focus":["..."],"why":"...","assumptions":["..."]}

research_focus should list the independently researchable angles implied by the request; provide at least 3 when the topic is clear.

If the request names a specific gene, protein, drug, product, acronym, or other
technical term you do not recognize or cannot confirm exists, do not guess or
hallucinate about it. Instead reply with ONLY this alternate JSON shape:
{"next_action":"VERIFY_TOPIC","unknown_topic":"...","search_query":"...","why":"...","confidence":0.0}
unknown_topic is the exact unfamiliar term; search_query is what you'd search
to verify it.`

// Dimensions is the five-dimension assessment the model produces.
type Dimensions struct {
	What       float64
	Action     float64
	Constraint float64
	Context    float64
	Output     float64
}

// lowest returns the name and value of the lowest-scoring dimension.
func (d Dimensions) lowest() (string, float64) {
	name, val := "what", d.What
	for _, c := range []struct {
		name string
		val  float64
	}{{"action", d.Action}, {"constraint", d.Constraint}, {"context", d.Context}, {"output", d.Output}} {
		if c.val < val {
			name, val = c.name, c.val
		}
	}
	return name, val
}

// average is this implementation's chosen combination of the five
// dimensions into the single confidence scalar the decision table and
// overrides compare against thresholds. spec.md does not fix a formula
// for this; a plain mean weights every dimension equally, matching the
// additive-but-bounded style of the original's own assessment scoring.
func (d Dimensions) average() float64 {
	return (d.What + d.Action + d.Constraint + d.Context + d.Output) / 5
}

// Assess runs the five-dimension assessment and the full decision
// pipeline: private-info heuristic, decision table, post-processing
// overrides, and the two hard boundaries, in that order. It never
// returns an error; any model or parsing failure degrades to a
// low-confidence NEED_CLARIFICATION plan so the conversation can still
// proceed. When the model instead replies with an unknown-term shape
// (it does not recognize a named term in the request), Assess returns
// a VERIFY_TOPIC plan instead of scoring the five dimensions.
func Assess(ctx context.Context, model llm.ChatModel, modelName string, searcher search.Provider, messages []session.Message, draft session.TaskDraft) session.Plan {
	userInput := lastUserMessage(messages)

	if plan, ok := privateInfoOverride(userInput, draft); ok {
		return plan
	}

	searchContext := maybeLightSearch(ctx, searcher, userInput, draft)

	dims, assessed, err := assessDimensions(ctx, model, modelName, messages, draft, searchContext)
	if err != nil {
		return fallbackPlan(userInput)
	}

	if assessed.NextAction == string(session.ActionVerifyTopic) && assessed.UnknownTopic != "" {
		return applyHardBoundaries(verifyTopicPlan(assessed))
	}

	plan := decide(dims, assessed)
	plan = applyHardBoundaries(plan)
	return plan
}

// maybeLightSearch runs a single bounded web search for the user input
// plus " overview" ahead of the model call when the trimmed input is at
// least 10 characters and the draft does not already have both a goal and
// a research focus, so the clarifier can ground its assessment in a
// handful of real search snippets. Any
// failure here is silent: the clarifier proceeds without the extra
// context rather than blocking on search.
func maybeLightSearch(ctx context.Context, searcher search.Provider, userInput string, draft session.TaskDraft) string {
	const lightSearchResults = 3
	if searcher == nil || strings.TrimSpace(userInput) == "" {
		return ""
	}
	if draft.Goal != "" && len(draft.ResearchFocus) > 0 {
		return "" // already has a grounded draft, no need to probe
	}
	if len(strings.TrimSpace(userInput)) < 10 {
		return ""
	}
	hits, err := searcher.Search(ctx, userInput+" overview", lightSearchResults)
	if err != nil || len(hits) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Background search snippets:\n")
	for _, h := range hits {
		fmt.Fprintf(&b, "- %s: %s\n", h.Title, h.Snippet)
	}
	return b.String()
}

type assessedTask struct {
	Goal          string
	ResearchFocus []string
	Why           string
	Assumptions   []string

	// VERIFY_TOPIC fields: set only when the model replies with the
	// alternate unknown-term JSON shape instead of the five-dimension one.
	NextAction   string
	UnknownTopic string
	SearchQuery  string
	Confidence   float64
}

func assessDimensions(ctx context.Context, model llm.ChatModel, modelName string, messages []session.Message, draft session.TaskDraft, searchContext string) (Dimensions, assessedTask, error) {
	if model == nil {
		return Dimensions{}, assessedTask{}, fmt.Errorf("clarifier: no model configured")
	}

	userPrompt := buildUserPrompt(messages, draft, searchContext)
	resp, err := model.Complete(ctx, openai.ChatCompletionRequest{
		Model: modelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: clarifierSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil || len(resp.Choices) == 0 {
		return Dimensions{}, assessedTask{}, fmt.Errorf("clarifier: model call failed: %w", err)
	}

	var raw struct {
		What          float64  `json:"what"`
		Action        float64  `json:"action"`
		Constraint    float64  `json:"constraint"`
		Context       float64  `json:"context"`
		Output        float64  `json:"output"`
		Goal          string   `json:"goal"`
		ResearchFocus []string `json:"research_focus"`
		Why           string   `json:"why"`
		Assumptions   []string `json:"assumptions"`
		NextAction    string   `json:"next_action"`
		UnknownTopic  string   `json:"unknown_topic"`
		SearchQuery   string   `json:"search_query"`
		Confidence    float64  `json:"confidence"`
	}
	content := extractJSONObject(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Dimensions{}, assessedTask{}, fmt.Errorf("clarifier: invalid JSON reply: %w", err)
	}

	return Dimensions{
			What:       clamp01(raw.What),
			Action:     clamp01(raw.Action),
			Constraint: clamp01(raw.Constraint),
			Context:    clamp01(raw.Context),
			Output:     clamp01(raw.Output),
		}, assessedTask{
			Goal:          raw.Goal,
			ResearchFocus: raw.ResearchFocus,
			Why:           raw.Why,
			Assumptions:   raw.Assumptions,
			NextAction:    raw.NextAction,
			UnknownTopic:  raw.UnknownTopic,
			SearchQuery:   raw.SearchQuery,
			Confidence:    clamp01(raw.Confidence),
		}, nil
}

// verifyTopicPlan builds the VERIFY_TOPIC plan the model requested when it
// replied with the alternate unknown-term JSON shape instead of scoring the
// five dimensions. Grounded on the original's prompts.py VERIFY_TOPIC block:
// the model names the unfamiliar term and a search query to verify it, and
// the orchestrator (not the clarifier) performs that search.
func verifyTopicPlan(t assessedTask) session.Plan {
	query := strings.TrimSpace(t.SearchQuery)
	if query == "" {
		query = buildSearchQuery(t.UnknownTopic)
	}
	conf := t.Confidence
	if conf <= 0 {
		conf = 0.3
	}
	return session.Plan{
		NextAction:   session.ActionVerifyTopic,
		Task:         session.Task{Goal: t.Goal},
		Confidence:   conf,
		Assumptions:  t.Assumptions,
		UnknownTopic: t.UnknownTopic,
		SearchQuery:  query,
	}
}

// buildSearchQuery constructs a lightweight verification query from a bare
// unknown-topic term, for the (rare) case the model names the term but
// leaves search_query empty. Grounded on the original's build_search_query
// fallback branch, generalized away from its drug-research wording.
func buildSearchQuery(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	return topic + " overview"
}

// decide applies spec.md §4.7's decision table, then its
// post-processing overrides.
func decide(d Dimensions, t assessedTask) session.Plan {
	conf := d.average()
	task := session.Task{Goal: t.Goal, ResearchFocus: t.ResearchFocus}

	var action session.NextAction
	var targetDim string
	switch {
	case d.What < 0.4:
		action, targetDim = session.ActionNeedClarification, "what"
	case d.Action < 0.4:
		action, targetDim = session.ActionNeedClarification, "action"
	case conf >= proceedThreshold:
		action = session.ActionStartResearch // PROCEED
	case conf >= confirmThreshold:
		action = session.ActionConfirmPlan // CONFIRM
	default:
		action = session.ActionNeedClarification
		targetDim, _ = d.lowest()
	}

	// Post-processing overrides (spec.md §4.7): PROCEED (confidence ≥
	// 0.75) always becomes CONFIRM_PLAN so the inferred plan is shown
	// back to the user before researching; CONFIRM (0.60 ≤ c < 0.75)
	// already lands on CONFIRM_PLAN via the decision table above.
	if action == session.ActionStartResearch {
		action = session.ActionConfirmPlan
	}

	plan := session.Plan{
		NextAction:  action,
		Task:        task,
		Confidence:  conf,
		Assumptions: t.Assumptions,
	}
	if action == session.ActionNeedClarification {
		plan.Clarification = questionFor(targetDim, t)
	}
	if action == session.ActionConfirmPlan {
		plan.ConfirmPrompt = fmt.Sprintf("I'll research %q, focusing on: %s. Proceed?", t.Goal, strings.Join(t.ResearchFocus, ", "))
	}
	return plan
}

// applyHardBoundaries enforces the two absolute rules from the original
// system that spec.md's decision table alone does not capture: a floor
// below which clarification is mandatory, and a ceiling above which
// research starts immediately regardless of the softer CONFIRM_PLAN
// step.
func applyHardBoundaries(plan session.Plan) session.Plan {
	if plan.Confidence < hardMinConfidence &&
		plan.NextAction != session.ActionNeedClarification &&
		plan.NextAction != session.ActionVerifyTopic {
		plan.NextAction = session.ActionNeedClarification
		if plan.Clarification == nil {
			plan.Clarification = questionFor("what", assessedTask{Goal: plan.Task.Goal, ResearchFocus: plan.Task.ResearchFocus})
		}
	}
	if plan.Confidence >= hardStartConfidence &&
		len(plan.Task.ResearchFocus) >= hardStartMinFocus &&
		plan.NextAction != session.ActionVerifyTopic {
		plan.NextAction = session.ActionStartResearch
		plan.Clarification = nil
	}
	return plan
}

// questionFor builds a single, policy-compliant clarification question:
// at most one question, at most 3 options including "Other".
func questionFor(targetDim string, t assessedTask) *session.Clarification {
	switch targetDim {
	case "what":
		return &session.Clarification{
			Question:    "What is the specific subject of this research?",
			MissingInfo: "research_topic",
			OpenEnded:   true,
		}
	case "action":
		return &session.Clarification{
			Question:    "What would you like me to do with this topic?",
			Options:     []string{"Compare options", "Summarize current state", "Other"},
			MissingInfo: "research_action",
		}
	case "constraint":
		return &session.Clarification{
			Question:    "Any scope, timeframe, or geography I should focus on?",
			Options:     []string{"No particular constraint", "Focus on the most recent developments", "Other"},
			MissingInfo: "research_scope",
		}
	case "output":
		return &session.Clarification{
			Question:    "What depth of output are you looking for — a quick overview or a detailed report?",
			Options:     []string{"Quick overview", "Detailed report", "Other"},
			MissingInfo: "output_depth",
		}
	default:
		return &session.Clarification{
			Question:    "Could you share a bit more context about what you're researching?",
			MissingInfo: "research_context",
			OpenEnded:   true,
		}
	}
}

// privateInfoOverride forces an open-ended NEED_CLARIFICATION when the
// user refers to their own unnamed project/product (spec.md §4.7's
// private-info heuristic), short-circuiting the rest of assessment.
func privateInfoOverride(userInput string, draft session.TaskDraft) (session.Plan, bool) {
	if !privateInfoRe.MatchString(width.Fold.String(userInput)) {
		return session.Plan{}, false
	}
	if strings.TrimSpace(draft.ProjectInfo) != "" {
		return session.Plan{}, false // already supplied in a prior turn
	}
	return session.Plan{
		NextAction: session.ActionNeedClarification,
		Confidence: 0.3,
		Clarification: &session.Clarification{
			Question:    "Could you describe your project or product: what it is, its stage, and its main goal?",
			MissingInfo: "project_details",
			OpenEnded:   true,
		},
	}, true
}

func fallbackPlan(userInput string) session.Plan {
	return session.Plan{
		NextAction: session.ActionNeedClarification,
		Confidence: 0.2,
		Clarification: &session.Clarification{
			Question:    "Could you tell me more about what you'd like researched?",
			MissingInfo: "research_topic",
			OpenEnded:   true,
		},
		Task: session.Task{Goal: userInput},
	}
}

func buildUserPrompt(messages []session.Message, draft session.TaskDraft, searchContext string) string {
	var b strings.Builder
	b.WriteString("Conversation:\n")
	for _, m := range messages {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}
	if draft.Goal != "" {
		fmt.Fprintf(&b, "\nPrior draft goal: %s\n", draft.Goal)
	}
	if len(draft.ResearchFocus) > 0 {
		fmt.Fprintf(&b, "Prior draft focus: %s\n", strings.Join(draft.ResearchFocus, ", "))
	}
	if draft.ProjectInfo != "" {
		fmt.Fprintf(&b, "User-supplied project info: %s\n", draft.ProjectInfo)
	}
	for _, r := range draft.ClarificationResponses {
		fmt.Fprintf(&b, "Previously asked: %s\nAnswered: %s\n", r.Question, r.Answer)
	}
	if searchContext != "" {
		b.WriteString("\n")
		b.WriteString(searchContext)
	}
	return b.String()
}

func lastUserMessage(messages []session.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func extractJSONObject(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}
