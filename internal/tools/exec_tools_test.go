package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbaylis/hearth/internal/sandbox"
)

func newExecutor(t *testing.T) *sandbox.Executor {
	t.Helper()
	executor, err := sandbox.NewExecutor(filepath.Join(t.TempDir(), "sandboxes"), nil)
	require.NoError(t, err)
	return executor
}

func TestShellRun_ExecutesInWorkspace(t *testing.T) {
	jail, root := newJail(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "marker.txt"), []byte("x"), 0o644))
	tool := NewShellRun(jail, newExecutor(t), sandbox.Limits{})

	out, err := tool.Execute(context.Background(), map[string]any{"command": "ls"})

	require.NoError(t, err)
	assert.Contains(t, out, "marker.txt")
}

func TestShellRun_NonZeroExitReported(t *testing.T) {
	jail, _ := newJail(t)
	tool := NewShellRun(jail, newExecutor(t), sandbox.Limits{})

	out, err := tool.Execute(context.Background(), map[string]any{"command": "echo oops >&2; exit 3"})

	require.NoError(t, err)
	assert.Contains(t, out, "oops")
	assert.Contains(t, out, "exit status 3")
}

func TestShellRun_EmptyCommandRejected(t *testing.T) {
	jail, _ := newJail(t)
	tool := NewShellRun(jail, newExecutor(t), sandbox.Limits{})

	_, err := tool.Execute(context.Background(), map[string]any{"command": "   "})

	assert.ErrorContains(t, err, "command must not be empty")
}

func TestRunCode_ShellProfile(t *testing.T) {
	tool := NewRunCode(newExecutor(t), sandbox.DefaultProfiles(), sandbox.Limits{})

	out, err := tool.Execute(context.Background(), map[string]any{
		"code": "read line; echo \"got $line\"", "profile": "shell", "stdin": "hello\n",
	})

	require.NoError(t, err)
	assert.Equal(t, "got hello", out)
}

func TestRunCode_PythonProfile(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not available")
	}
	tool := NewRunCode(newExecutor(t), sandbox.DefaultProfiles(), sandbox.Limits{})

	out, err := tool.Execute(context.Background(), map[string]any{
		"code": "print(2 + 3)",
	})

	require.NoError(t, err)
	assert.Equal(t, "5", out)
}

func TestRunCode_UnknownProfile(t *testing.T) {
	tool := NewRunCode(newExecutor(t), sandbox.DefaultProfiles(), sandbox.Limits{})

	_, err := tool.Execute(context.Background(), map[string]any{
		"code": "x", "profile": "cobol",
	})

	assert.Error(t, err)
}

func TestWebFetch_AllowlistedDomain(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()
	tool := NewWebFetch(FetchConfig{AllowedDomains: []string{"127.0.0.1"}})

	out, err := tool.Execute(context.Background(), map[string]any{"url": srv.URL})

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, out)
}

func TestWebFetch_DomainNotAllowlisted(t *testing.T) {
	tool := NewWebFetch(FetchConfig{AllowedDomains: []string{"example.com"}})

	_, err := tool.Execute(context.Background(), map[string]any{"url": "http://evil.test/x"})

	assert.ErrorContains(t, err, "allowlist")
}

func TestWebFetch_BinaryContentRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Write([]byte{0x1, 0x2})
	}))
	defer srv.Close()
	tool := NewWebFetch(FetchConfig{AllowedDomains: []string{"127.0.0.1"}})

	_, err := tool.Execute(context.Background(), map[string]any{"url": srv.URL})

	assert.ErrorContains(t, err, "not textual")
}

func TestWebFetch_BodyTruncatedAtCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte(strings.Repeat("a", 100)))
	}))
	defer srv.Close()
	tool := NewWebFetch(FetchConfig{AllowedDomains: []string{"127.0.0.1"}, MaxBytes: 10})

	out, err := tool.Execute(context.Background(), map[string]any{"url": srv.URL})

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 10)))
	assert.Contains(t, out, "[output truncated]")
}

func TestWebFetch_SchemeRejected(t *testing.T) {
	tool := NewWebFetch(FetchConfig{AllowedDomains: []string{"example.com"}})

	_, err := tool.Execute(context.Background(), map[string]any{"url": "ftp://example.com/f"})

	assert.ErrorContains(t, err, "scheme")
}

func TestDomainAllowed_SubdomainMatch(t *testing.T) {
	allowlist := []string{"example.com"}

	assert.True(t, domainAllowed("example.com", allowlist))
	assert.True(t, domainAllowed("api.example.com", allowlist))
	assert.False(t, domainAllowed("notexample.com", allowlist))
	assert.False(t, domainAllowed("example.com.evil.test", allowlist))
}
