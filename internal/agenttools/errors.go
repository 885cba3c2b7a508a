package agenttools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// ErrorCode classifies a tool failure for the envelope a tool result is
// wrapped in, so the model (and logs) can distinguish "bad arguments" from
// "ran out of time" from "upstream is down".
type ErrorCode string

const (
	ErrArgs           ErrorCode = "E_ARGS"
	ErrTimeout        ErrorCode = "E_TIMEOUT"
	ErrPolicy         ErrorCode = "E_POLICY"
	ErrNotFound       ErrorCode = "E_NOT_FOUND"
	ErrResultSchema   ErrorCode = "E_RESULT_SCHEMA"
	ErrTool           ErrorCode = "E_TOOL"
	ErrUnknownTool    ErrorCode = "E_UNKNOWN_TOOL"
)

// Envelope is the stable wire shape a tool result is always wrapped in so
// the model sees a consistent contract regardless of which tool ran.
type Envelope struct {
	OK   bool            `json:"ok"`
	Tool string          `json:"tool"`
	Data json.RawMessage `json:"data,omitempty"`
	Err  *EnvelopeError  `json:"error,omitempty"`
}

type EnvelopeError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// classifyToolError maps a Go error into one of the stable error codes.
func classifyToolError(err error) ErrorCode {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "invalid args") || strings.Contains(msg, "missing"):
		return ErrArgs
	case strings.Contains(msg, "skip") || strings.Contains(msg, "denied") || strings.Contains(msg, "policy"):
		return ErrPolicy
	case strings.Contains(msg, "not found"):
		return ErrNotFound
	default:
		return ErrTool
	}
}

// successEnvelope wraps a successful tool result.
func successEnvelope(tool string, data json.RawMessage) json.RawMessage {
	b, _ := json.Marshal(Envelope{OK: true, Tool: tool, Data: data})
	return b
}

// failureEnvelope wraps a failed tool call.
func failureEnvelope(tool string, err error) json.RawMessage {
	b, _ := json.Marshal(Envelope{OK: false, Tool: tool, Err: &EnvelopeError{Code: classifyToolError(err), Message: err.Error()}})
	return b
}

// unknownToolEnvelope is returned when the model calls a tool name the
// registry does not recognize.
func unknownToolEnvelope(tool string) json.RawMessage {
	b, _ := json.Marshal(Envelope{OK: false, Tool: tool, Err: &EnvelopeError{Code: ErrUnknownTool, Message: "no such tool: " + tool}})
	return b
}
