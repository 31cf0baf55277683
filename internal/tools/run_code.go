package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
)

// RunCodeRequest executes an ad-hoc snippet under a named profile.
type RunCodeRequest struct {
	Code    string `mapstructure:"code"`
	Profile string `mapstructure:"profile"`
	Stdin   string `mapstructure:"stdin"`
}

func (r RunCodeRequest) Validate() error {
	if strings.TrimSpace(r.Code) == "" {
		return fmt.Errorf("code must not be empty")
	}
	return nil
}

// NewRunCode returns the run_code tool. Code-exec tier. The snippet runs in
// a fresh sandbox session with no workspace access.
func NewRunCode(executor *sandbox.Executor, profiles map[string]sandbox.Profile, limits sandbox.Limits) registry.Tool {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)

	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"code":    {Type: "string", Description: "Source code to execute"},
			"profile": {Type: "string", Enum: names, Description: "Execution profile; defaults to python"},
			"stdin":   {Type: "string", Description: "Text fed to the program's standard input"},
		},
		Required: []string{"code"},
	}
	return NewAdapter("run_code", "Run a code snippet in an isolated sandbox",
		params, func(ctx context.Context, req RunCodeRequest) (string, error) {
			name := req.Profile
			if name == "" {
				name = "python"
			}
			profile, ok := profiles[name]
			if !ok {
				return "", fmt.Errorf("unknown profile %q", name)
			}
			entry := "snippet" + profile.Extension()
			result, err := executor.Run(ctx, sandbox.RunSpec{
				Profile: profile,
				Files:   map[string]string{entry: req.Code},
				Entry:   entry,
				Stdin:   req.Stdin,
				Limits:  limits,
			})
			if err != nil {
				return "", err
			}
			return renderRun(result), nil
		})
}
