package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbaylis/hearth/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		configPath = ""
		workspaceFlag = ""
		autoApproveFlag = ""
		maxStepsFlag = 0
		providerFlag = ""
		verboseFlag = false
	})
}

func TestRootCmd_DeclaresGlobalFlags(t *testing.T) {
	cmd := NewRootCmd()

	for _, name := range []string{"config", "workspace", "auto-approve", "max-steps", "provider", "verbose"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), "missing --%s", name)
	}
}

func TestApplyFlagOverrides_UnsetFlagsKeepConfig(t *testing.T) {
	resetFlags(t)
	cfg := config.DefaultConfig()
	want := *cfg

	applyFlagOverrides(cfg)

	assert.Equal(t, want, *cfg)
}

func TestApplyFlagOverrides_SetFlagsWin(t *testing.T) {
	resetFlags(t)
	workspaceFlag = "/tmp/ws"
	autoApproveFlag = "none"
	maxStepsFlag = 4
	providerFlag = "echo"
	verboseFlag = true
	cfg := config.DefaultConfig()

	applyFlagOverrides(cfg)

	assert.Equal(t, "/tmp/ws", cfg.WorkspaceRoot)
	assert.Equal(t, "none", cfg.Agent.AutoApprove)
	assert.Equal(t, 4, cfg.Agent.MaxSteps)
	assert.Equal(t, "echo", cfg.Provider.Kind)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestSkillsCmd_HasInstallSubcommand(t *testing.T) {
	cmd := newSkillsCmd()

	names := make([]string, 0, len(cmd.Commands()))
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	require.Contains(t, names, "install")
	require.Contains(t, names, "list")
}
