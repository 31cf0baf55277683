package skills

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
)

// skillEntry is the entrypoint file name inside a skill's sandbox session.
const skillEntry = "skill"

// skillTool adapts an installed skill to the registry's Tool interface. Each
// invocation runs the skill's code out-of-process through the sandbox: the
// validated arguments arrive as a JSON object on stdin, and stdout is the
// result. This is the single registration entry point for a skill; there is
// no ambient module loading.
type skillTool struct {
	manifest Manifest
	code     string
	profile  sandbox.Profile
	runner   Runner
	limits   sandbox.Limits
}

func (t *skillTool) Name() string        { return t.manifest.Name }
func (t *skillTool) Description() string { return t.manifest.Description }

func (t *skillTool) Definition() registry.Definition {
	params := t.manifest.Inputs
	if params == nil {
		params = &registry.Schema{Type: "object"}
	}
	return registry.Definition{
		Name:        t.manifest.Name,
		Description: t.manifest.Description,
		Parameters:  params,
	}
}

func (t *skillTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	stdin, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("skill %s: encode args: %w", t.manifest.Name, err)
	}

	result, err := t.runner.Run(ctx, sandbox.RunSpec{
		Profile: t.profile,
		Files:   map[string]string{t.entryFile(): t.code},
		Entry:   t.entryFile(),
		Stdin:   string(stdin),
		Limits:  t.limits,
	})
	if err != nil {
		return "", fmt.Errorf("skill %s: %w", t.manifest.Name, err)
	}
	if result.ExitCode != 0 {
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = fmt.Sprintf("exit code %d", result.ExitCode)
		}
		return "", fmt.Errorf("skill %s failed: %s", t.manifest.Name, detail)
	}
	return strings.TrimSpace(result.Stdout), nil
}

func (t *skillTool) entryFile() string {
	return skillEntry + t.profile.Extension()
}
