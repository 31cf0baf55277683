package tools

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbaylis/hearth/internal/approval"
	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
	"github.com/lbaylis/hearth/internal/skills"
)

func newSkillManager(t *testing.T) (*skills.Manager, *registry.Registry) {
	t.Helper()
	dataDir := t.TempDir()
	store, err := skills.OpenStore(filepath.Join(dataDir, "skills.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	executor, err := sandbox.NewExecutor(filepath.Join(dataDir, "sandboxes"), nil)
	require.NoError(t, err)
	reg := registry.New(nil)
	manager, err := skills.NewManager(skills.Config{
		Store:    store,
		Registry: reg,
		Runner:   executor,
		Gate:     approval.NewGate(approval.AutoApproveAll, 0, nil, nil),
		DataDir:  dataDir,
	})
	require.NoError(t, err)
	return manager, reg
}

func TestSkillPropose_RecordsManifest(t *testing.T) {
	manager, _ := newSkillManager(t)
	tool := NewSkillPropose(manager)

	out, err := tool.Execute(context.Background(), map[string]any{
		"manifest": map[string]any{"name": "word_count", "description": "Count words"},
	})

	require.NoError(t, err)
	assert.Contains(t, out, "word_count")

	records, err := manager.List()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, skills.StatusProposed, records[0].Status)
}

func TestSkillPropose_MalformedManifest(t *testing.T) {
	manager, _ := newSkillManager(t)
	tool := NewSkillPropose(manager)

	_, err := tool.Execute(context.Background(), map[string]any{"manifest": "not an object"})

	assert.ErrorContains(t, err, "manifest must be an object")
}

func TestSkillInstall_EndToEnd(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	manager, reg := newSkillManager(t)
	tool := NewSkillInstall(manager)

	out, err := tool.Execute(context.Background(), map[string]any{
		"manifest": map[string]any{"name": "word_count", "description": "Count words"},
		"code": `import json, sys
payload = json.load(sys.stdin)
print(len([w for w in payload.get("text", "").split() if w]))
`,
	})

	require.NoError(t, err)
	assert.Contains(t, out, `"installed"`)

	result, err := reg.Dispatch(context.Background(), "word_count", map[string]any{"text": "a b c"})
	require.NoError(t, err)
	assert.Equal(t, "3", result)
}

func TestSkillInstall_RejectionIsToolResultNotError(t *testing.T) {
	manager, _ := newSkillManager(t)
	tool := NewSkillInstall(manager)

	// Empty code fails validation; the outcome goes back as data so the
	// model can correct itself.
	out, err := tool.Execute(context.Background(), map[string]any{
		"manifest": map[string]any{"name": "word_count", "description": "Count words"},
		"code":     "",
	})

	require.NoError(t, err)
	assert.Contains(t, out, `"rejected"`)
}
