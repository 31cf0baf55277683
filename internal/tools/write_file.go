package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/registry"
)

// WriteFileRequest writes content to a jailed path, creating parent
// directories as needed.
type WriteFileRequest struct {
	Path    string `mapstructure:"path"`
	Content string `mapstructure:"content"`
}

func (r WriteFileRequest) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("path must not be empty")
	}
	return nil
}

// WriteFileResponse reports what was written.
type WriteFileResponse struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// NewWriteFile returns the write_file tool. Write tier.
func NewWriteFile(jail *pathjail.Jail) registry.Tool {
	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"path":    {Type: "string", Description: "File path relative to the workspace root"},
			"content": {Type: "string", Description: "Full file content to write"},
		},
		Required: []string{"path", "content"},
	}
	return NewAdapter("write_file", "Create or overwrite a file in the workspace",
		params, func(_ context.Context, req WriteFileRequest) (WriteFileResponse, error) {
			abs, rel, err := jail.Resolve(req.Path)
			if err != nil {
				return WriteFileResponse{}, err
			}
			if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
				return WriteFileResponse{}, fmt.Errorf("create parent directories: %w", err)
			}
			if err := os.WriteFile(abs, []byte(req.Content), 0o644); err != nil {
				return WriteFileResponse{}, fmt.Errorf("write %s: %w", rel, err)
			}
			return WriteFileResponse{Path: rel, Bytes: len(req.Content)}, nil
		})
}
