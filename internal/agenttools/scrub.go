package agenttools

import (
	"encoding/json"
	"regexp"
)

// secretPatterns catch the common shapes of credentials that might leak
// into a tool result (an API key echoed back in an error message, a
// bearer token in a fetched page). Matches are replaced with "[redacted]"
// before the content ever reaches the model transcript or logs.
var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(api[_-]?key|secret|token|password)\s*[:=]\s*[^\s"',}]{6,}`),
	regexp.MustCompile(`(?i)bearer\s+[a-z0-9._-]{10,}`),
	regexp.MustCompile(`sk-[a-zA-Z0-9]{10,}`),
}

// scrubString redacts secret-shaped substrings from s.
func scrubString(s string) string {
	for _, re := range secretPatterns {
		s = re.ReplaceAllString(s, "[redacted]")
	}
	return s
}

// scrubJSON walks an arbitrary decoded JSON value and scrubs every string
// leaf, used before a tool result is handed back to the model or logged.
func scrubJSON(raw json.RawMessage) json.RawMessage {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return json.RawMessage(scrubString(string(raw)))
	}
	scrubbed := scrubValue(v)
	out, err := json.Marshal(scrubbed)
	if err != nil {
		return raw
	}
	return out
}

func scrubValue(v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return scrubString(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = scrubValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = scrubValue(e)
		}
		return out
	default:
		return v
	}
}
