package tools

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/registry"
)

// ListFilesRequest lists a directory subtree. Empty path means the
// workspace root.
type ListFilesRequest struct {
	Path string `mapstructure:"path"`
}

// NewListFiles returns the list_files tool. Read-only tier. Output is one
// "kind<TAB>path" line per entry, sorted by path.
func NewListFiles(jail *pathjail.Jail) registry.Tool {
	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"path": {Type: "string", Description: "Directory relative to the workspace root; empty for the root"},
		},
	}
	return NewAdapter("list_files", "List files and directories under a workspace path",
		params, func(_ context.Context, req ListFilesRequest) (string, error) {
			target := req.Path
			if target == "" {
				target = "."
			}
			abs, _, err := jail.Resolve(target)
			if err != nil {
				return "", err
			}

			var lines []string
			err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if path == abs {
					return nil
				}
				rel, err := filepath.Rel(abs, path)
				if err != nil {
					return err
				}
				kind := "file"
				if d.IsDir() {
					kind = "dir"
				}
				lines = append(lines, kind+"\t"+filepath.ToSlash(rel))
				return nil
			})
			if err != nil {
				return "", fmt.Errorf("list %s: %w", target, err)
			}
			sort.Slice(lines, func(i, j int) bool {
				return lines[i][strings.IndexByte(lines[i], '\t')+1:] < lines[j][strings.IndexByte(lines[j], '\t')+1:]
			})
			if len(lines) == 0 {
				return "(empty)", nil
			}
			return strings.Join(lines, "\n"), nil
		})
}
