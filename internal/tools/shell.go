package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
)

// ShellRequest runs a single command line inside the workspace.
type ShellRequest struct {
	Command string `mapstructure:"command"`
}

func (r ShellRequest) Validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return fmt.Errorf("command must not be empty")
	}
	return nil
}

// NewShellRun returns the shell_run tool. Network-shell tier. The command is
// materialized as a script in the sandbox session with the workspace as its
// working directory, so the watchdog and output caps apply.
func NewShellRun(jail *pathjail.Jail, executor *sandbox.Executor, limits sandbox.Limits) registry.Tool {
	params := &registry.Schema{
		Type: "object",
		Properties: map[string]*registry.Schema{
			"command": {Type: "string", Description: "Command line to run with sh -c semantics"},
		},
		Required: []string{"command"},
	}
	profile := sandbox.ShellProfile{}
	return NewAdapter("shell_run", "Run a shell command in the workspace",
		params, func(ctx context.Context, req ShellRequest) (string, error) {
			entry := "command" + profile.Extension()
			result, err := executor.Run(ctx, sandbox.RunSpec{
				Profile: profile,
				Files:   map[string]string{entry: req.Command + "\n"},
				Entry:   entry,
				Workdir: jail.Root(),
				Limits:  limits,
			})
			if err != nil {
				return "", err
			}
			return renderRun(result), nil
		})
}

// renderRun folds a sandbox result into a single tool-result string.
func renderRun(result *sandbox.Result) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(result.Stdout, "\n"))
	if result.Stderr != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("stderr:\n")
		b.WriteString(strings.TrimRight(result.Stderr, "\n"))
	}
	if result.ExitCode != 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "exit status %d", result.ExitCode)
	}
	if b.Len() == 0 {
		return "(no output)"
	}
	return b.String()
}
