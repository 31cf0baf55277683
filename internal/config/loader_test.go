package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockFS serves config bytes from a map.
type mockFS struct {
	home  string
	files map[string][]byte
}

func (m mockFS) UserHomeDir() (string, error) { return m.home, nil }

func (m mockFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	loader := NewLoaderWithFS(mockFS{home: "/home/u"})

	cfg, err := loader.Load("")

	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join("/home/u", ".config", ConfigDir, ConfigFile)
	loader := NewLoaderWithFS(mockFS{
		home: "/home/u",
		files: map[string][]byte{path: []byte(`
workspace_root: /srv/ws
agent:
  max_steps: 5
tools:
  shell_enabled: true
  allowed_domains: [example.com]
`)},
	})

	cfg, err := loader.Load("")

	require.NoError(t, err)
	assert.Equal(t, "/srv/ws", cfg.WorkspaceRoot)
	assert.Equal(t, 5, cfg.Agent.MaxSteps)
	assert.True(t, cfg.Tools.ShellEnabled)
	assert.Equal(t, []string{"example.com"}, cfg.Tools.AllowedDomains)
	// Untouched keys keep defaults.
	assert.Equal(t, "read-only", cfg.Agent.AutoApprove)
	assert.Equal(t, 30, cfg.Sandbox.TimeoutSeconds)
}

func TestLoad_ExplicitPath(t *testing.T) {
	loader := NewLoaderWithFS(mockFS{
		files: map[string][]byte{"/etc/hearth.yaml": []byte("agent:\n  max_steps: 9\n")},
	})

	cfg, err := loader.Load("/etc/hearth.yaml")

	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Agent.MaxSteps)
}

func TestLoad_MalformedYAML(t *testing.T) {
	loader := NewLoaderWithFS(mockFS{
		files: map[string][]byte{"/etc/hearth.yaml": []byte("agent: [")},
	})

	_, err := loader.Load("/etc/hearth.yaml")

	assert.Error(t, err)
}

func TestLoad_ValidationFailure(t *testing.T) {
	loader := NewLoaderWithFS(mockFS{
		files: map[string][]byte{"/etc/hearth.yaml": []byte("agent:\n  auto_approve: sometimes\n")},
	})

	_, err := loader.Load("/etc/hearth.yaml")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "auto_approve")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WorkspaceRoot = ""
	cfg.Agent.MaxSteps = 0
	cfg.Provider.Kind = "llama"

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace_root")
	assert.Contains(t, err.Error(), "max_steps")
	assert.Contains(t, err.Error(), "provider.kind")
}
