package agent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lbaylis/hearth/internal/registry"
)

// SystemPrompt renders the instruction turn that teaches the model the wire
// protocol and advertises the available tools.
func SystemPrompt(defs []registry.Definition) string {
	var b strings.Builder
	b.WriteString(`You are an assistant that can use tools. Every response must be exactly one JSON object, nothing else:
  {"type":"reply","content":<string>} to answer the user, or
  {"type":"tool","name":<string>,"args":<object>} to call a tool.
Tool results and any corrections arrive as subsequent user turns.

Available tools:
`)
	for _, def := range defs {
		fmt.Fprintf(&b, "- %s: %s\n", def.Name, def.Description)
		if def.Parameters != nil {
			if schema, err := json.Marshal(def.Parameters); err == nil {
				fmt.Fprintf(&b, "  parameters: %s\n", schema)
			}
		}
	}
	return b.String()
}
