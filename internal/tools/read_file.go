package tools

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/registry"
)

// ReadFileRequest selects a file and an optional 1-based line range.
type ReadFileRequest struct {
	Path      string `mapstructure:"path"`
	StartLine int    `mapstructure:"start_line"`
	EndLine   int    `mapstructure:"end_line"`
}

func (r ReadFileRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("path must not be empty")
	}
	if r.StartLine < 0 || r.EndLine < 0 {
		return fmt.Errorf("line numbers must be positive")
	}
	if r.StartLine > 0 && r.EndLine > 0 && r.EndLine < r.StartLine {
		return fmt.Errorf("end_line precedes start_line")
	}
	return nil
}

// NewReadFile returns the read_file tool. Read-only tier.
func NewReadFile(jail *pathjail.Jail) registry.Tool {
	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"path":       {Type: "string", Description: "File path relative to the workspace root"},
			"start_line": {Type: "integer", Description: "First line to include, 1-based"},
			"end_line":   {Type: "integer", Description: "Last line to include, inclusive"},
		},
		Required: []string{"path"},
	}
	return NewAdapter("read_file", "Read a file from the workspace, optionally a line range",
		params, func(_ context.Context, req ReadFileRequest) (string, error) {
			abs, _, err := jail.Resolve(req.Path)
			if err != nil {
				return "", err
			}
			data, err := os.ReadFile(abs)
			if err != nil {
				return "", fmt.Errorf("read %s: %w", req.Path, err)
			}
			content := string(data)
			if req.StartLine == 0 && req.EndLine == 0 {
				return content, nil
			}
			lines := strings.Split(content, "\n")
			start := req.StartLine
			if start < 1 {
				start = 1
			}
			end := req.EndLine
			if end == 0 || end > len(lines) {
				end = len(lines)
			}
			if start > len(lines) {
				return "", fmt.Errorf("start_line %d beyond end of file (%d lines)", start, len(lines))
			}
			return strings.Join(lines[start-1:end], "\n"), nil
		})
}
