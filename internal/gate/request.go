package gate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Request is a tool invocation submitted for a decision.
type Request struct {
	ToolName  string
	ToolInput map[string]json.RawMessage
}

// MalformedError reports a request the gate cannot understand.
type MalformedError struct {
	Reason string
}

func (e *MalformedError) Error() string {
	return "malformed gate request: " + e.Reason
}

func malformed(format string, args ...any) error {
	return &MalformedError{Reason: fmt.Sprintf(format, args...)}
}

// ParseRequest decodes {tool_name, tool_input}. The keys tool and input are
// accepted as aliases.
func ParseRequest(data []byte) (Request, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Request{}, malformed("empty input")
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return Request{}, malformed("invalid JSON: %v", err)
	}
	if top == nil {
		return Request{}, malformed("request must be a JSON object")
	}

	rawName, ok := firstKey(top, "tool_name", "tool")
	if !ok {
		return Request{}, malformed("missing tool_name")
	}
	var name string
	if err := json.Unmarshal(rawName, &name); err != nil || name == "" {
		return Request{}, malformed("tool_name must be a non-empty string")
	}

	req := Request{ToolName: name, ToolInput: map[string]json.RawMessage{}}
	if rawInput, ok := firstKey(top, "tool_input", "input"); ok && !isNull(rawInput) {
		var input map[string]json.RawMessage
		if err := json.Unmarshal(rawInput, &input); err != nil {
			return Request{}, malformed("tool_input must be an object")
		}
		if input != nil {
			req.ToolInput = input
		}
	}
	return req, nil
}

// String returns the string field key of the tool input. A missing key is
// reported as !ok; a present non-string value is an error.
func (r Request) String(key string) (value string, ok bool, err error) {
	raw, present := r.ToolInput[key]
	if !present || isNull(raw) {
		return "", false, nil
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", true, malformed("tool_input.%s must be a string", key)
	}
	return value, true, nil
}

func firstKey(m map[string]json.RawMessage, keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			return v, true
		}
	}
	return nil, false
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// IsMalformed reports whether err is a *MalformedError.
func IsMalformed(err error) bool {
	var m *MalformedError
	return errors.As(err, &m)
}
