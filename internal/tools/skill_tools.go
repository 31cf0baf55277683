package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/skills"
)

var manifestSchema = &registry.Schema{
	Type:        "object",
	Description: "Skill manifest",
	Properties: map[string]*registry.Schema{
		"name":        {Type: "string"},
		"description": {Type: "string"},
		"permissions": {Type: "array", Items: &registry.Schema{Type: "string"}},
		"version":     {Type: "integer"},
	},
	Required: []string{"name", "description"},
}

// skillProposeTool fronts Manager.Propose so the model can announce a skill
// before writing its code.
type skillProposeTool struct {
	manager *skills.Manager
}

// NewSkillPropose returns the skill_propose tool. Read-only tier: a proposal
// records intent and nothing else.
func NewSkillPropose(manager *skills.Manager) registry.Tool {
	return &skillProposeTool{manager: manager}
}

func (t *skillProposeTool) Name() string { return "skill_propose" }

func (t *skillProposeTool) Description() string {
	return "Propose a new skill by registering its manifest"
}

func (t *skillProposeTool) Definition() registry.Definition {
	return registry.Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &registry.Schema{
			Type:       "object",
			Properties: map[string]*registry.Schema{"manifest": manifestSchema},
			Required:   []string{"manifest"},
		},
	}
}

func (t *skillProposeTool) Execute(_ context.Context, args map[string]any) (string, error) {
	manifest, err := decodeManifest(args["manifest"])
	if err != nil {
		return "", err
	}
	if err := t.manager.Propose(*manifest); err != nil {
		return "", err
	}
	return fmt.Sprintf("skill %s proposed", manifest.Name), nil
}

// skillInstallTool fronts the full install pipeline.
type skillInstallTool struct {
	manager *skills.Manager
}

// NewSkillInstall returns the skill_install tool. Code-exec tier: installing
// runs untrusted code (its tests) and extends the tool set.
func NewSkillInstall(manager *skills.Manager) registry.Tool {
	return &skillInstallTool{manager: manager}
}

func (t *skillInstallTool) Name() string { return "skill_install" }

func (t *skillInstallTool) Description() string {
	return "Validate, test, and install a new skill; requires approval"
}

func (t *skillInstallTool) Definition() registry.Definition {
	return registry.Definition{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters: &registry.Schema{
			Type: "object",
			Properties: map[string]*registry.Schema{
				"manifest": manifestSchema,
				"code":     {Type: "string", Description: "Skill implementation source"},
				"tests":    {Type: "string", Description: "Optional test program run in the sandbox"},
				"profile":  {Type: "string", Description: "Execution profile; defaults to python"},
			},
			Required: []string{"manifest", "code"},
		},
	}
}

func (t *skillInstallTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	manifest, err := decodeManifest(args["manifest"])
	if err != nil {
		return "", err
	}
	req := skills.InstallRequest{Manifest: *manifest}
	req.Code, _ = args["code"].(string)
	req.Tests, _ = args["tests"].(string)
	req.Profile, _ = args["profile"].(string)

	result, err := t.manager.Install(ctx, req)
	if result != nil {
		// The install outcome is the tool result either way: rejection
		// details go back to the model as data, not as a loop failure.
		b, merr := json.Marshal(result)
		if merr == nil {
			return string(b), nil
		}
	}
	return "", err
}

// decodeManifest accepts the raw args value for "manifest" and converts it
// through JSON so nested schema objects land in their typed fields.
func decodeManifest(v any) (*skills.Manifest, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("manifest must be an object")
	}
	b, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	var manifest skills.Manifest
	if err := json.Unmarshal(b, &manifest); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &manifest, nil
}
