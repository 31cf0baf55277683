// Package protocol implements the JSON wire contract between the model and
// the agent loop. A model turn is a single object: either
//
//	{"type":"reply","content":"..."}
//	{"type":"tool","name":"...","args":{...}}
//
// Anything else is a ProtocolError, which the loop feeds back to the model
// as a correction rather than aborting.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Action is the parsed form of one model output: either a *Reply or a
// *ToolCall. It is immutable once parsed.
type Action interface {
	isAction()
}

// Reply is a plain text answer that ends the loop turn.
type Reply struct {
	Content string
}

// ToolCall requests the invocation of a named tool.
type ToolCall struct {
	Name string
	Args map[string]any
}

func (*Reply) isAction()    {}
func (*ToolCall) isAction() {}

// Error reports a malformed model output. It carries the instruction the
// loop appends to the conversation so the model can correct itself.
type Error struct {
	Reason string
}

func (e *Error) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Reason)
}

// Correction returns the feedback line sent back to the model.
func (e *Error) Correction() string {
	return "Your previous output was not valid. Respond with exactly one JSON object: " +
		`{"type":"reply","content":<string>} or {"type":"tool","name":<string>,"args":<object>}. ` +
		"Problem: " + e.Reason
}

// rawAction mirrors the wire shape before tagging.
type rawAction struct {
	Type    string          `json:"type"`
	Content *string         `json:"content,omitempty"`
	Name    *string         `json:"name,omitempty"`
	Args    json.RawMessage `json:"args,omitempty"`
}

// Parse parses one model output into an Action. Surrounding whitespace and a
// single markdown code fence are tolerated since models routinely emit them.
func Parse(text string) (Action, error) {
	s := stripFence(strings.TrimSpace(text))
	if !strings.HasPrefix(s, "{") || !strings.HasSuffix(s, "}") {
		return nil, &Error{Reason: "output is not a JSON object"}
	}

	var raw rawAction
	dec := json.NewDecoder(strings.NewReader(s))
	if err := dec.Decode(&raw); err != nil {
		return nil, &Error{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if dec.More() {
		return nil, &Error{Reason: "trailing data after JSON object"}
	}

	switch raw.Type {
	case "reply":
		if raw.Content == nil {
			return nil, &Error{Reason: `"reply" requires a string "content" field`}
		}
		return &Reply{Content: *raw.Content}, nil
	case "tool":
		if raw.Name == nil || *raw.Name == "" {
			return nil, &Error{Reason: `"tool" requires a non-empty "name" field`}
		}
		args := map[string]any{}
		if len(raw.Args) > 0 {
			if err := json.Unmarshal(raw.Args, &args); err != nil {
				return nil, &Error{Reason: `"args" must be a JSON object`}
			}
		}
		return &ToolCall{Name: *raw.Name, Args: args}, nil
	case "":
		return nil, &Error{Reason: `missing "type" field`}
	default:
		return nil, &Error{Reason: fmt.Sprintf("unknown type %q", raw.Type)}
	}
}

// EncodeReply renders a reply action in wire form.
func EncodeReply(content string) (string, error) {
	b, err := json.Marshal(map[string]any{"type": "reply", "content": content})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// EncodeToolCall renders a tool-call action in wire form.
func EncodeToolCall(name string, args map[string]any) (string, error) {
	if args == nil {
		args = map[string]any{}
	}
	b, err := json.Marshal(map[string]any{"type": "tool", "name": name, "args": args})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// stripFence removes one surrounding markdown code fence, if present.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	rest := s[3:]
	if idx := strings.IndexByte(rest, '\n'); idx >= 0 {
		// Skip the optional language tag on the opening fence line.
		rest = rest[idx+1:]
	}
	rest = strings.TrimSuffix(strings.TrimSpace(rest), "```")
	return strings.TrimSpace(rest)
}
