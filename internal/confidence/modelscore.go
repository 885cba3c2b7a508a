package confidence

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"clarifyagent/internal/llm"
)

// ChatModelScorer evaluates overall_confidence via a fast chat completion,
// the optional model-based scorer spec.md §4.3 describes.
type ChatModelScorer struct {
	Model llm.ChatModel
	// ModelName overrides the request's Model field; empty leaves whatever
	// the underlying provider defaults to.
	ModelName string
}

func (c ChatModelScorer) Score(ctx context.Context, query string, findings []string) (float64, error) {
	prompt := fmt.Sprintf(
		"Query: %s\nFindings:\n- %s\n\nRate relevance, quality, completeness, consistency, and overall_confidence, each in [0,1]. Reply with JSON only.",
		query, strings.Join(findings, "\n- "),
	)
	req := openai.ChatCompletionRequest{
		Model: c.ModelName,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You output a single compact JSON object and nothing else."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0,
	}
	resp, err := c.Model.Complete(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("confidence: model call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return 0, fmt.Errorf("confidence: empty response")
	}
	return extractOverallConfidence(resp.Choices[0].Message.Content)
}

// extractOverallConfidence tries, in order: balanced-brace extraction of
// the first JSON object in the text, a whole-text JSON parse, then a
// targeted regex for `"overall_confidence": <num>`. This mirrors the
// layered fallback the spec calls for so a chatty model (extra prose
// around the JSON) doesn't sink the whole score.
func extractOverallConfidence(text string) (float64, error) {
	if obj, ok := firstBalancedJSONObject(text); ok {
		if v, err := parseOverallConfidence(obj); err == nil {
			return v, nil
		}
	}
	if v, err := parseOverallConfidence(text); err == nil {
		return v, nil
	}
	if m := overallConfidenceRe.FindStringSubmatch(text); len(m) == 2 {
		if f, err := strconv.ParseFloat(m[1], 64); err == nil {
			return clamp01(f), nil
		}
	}
	return 0, fmt.Errorf("confidence: could not extract overall_confidence from model output")
}

var overallConfidenceRe = regexp.MustCompile(`"overall_confidence"\s*:\s*([0-9]*\.?[0-9]+)`)

func parseOverallConfidence(jsonText string) (float64, error) {
	var obj struct {
		OverallConfidence float64 `json:"overall_confidence"`
	}
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return 0, err
	}
	return clamp01(obj.OverallConfidence), nil
}

// firstBalancedJSONObject scans text for the first brace-balanced `{...}`
// substring, skipping over braces inside string literals.
func firstBalancedJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if inString {
			if escaped {
				escaped = false
			} else if ch == '\\' {
				escaped = true
			} else if ch == '"' {
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
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
