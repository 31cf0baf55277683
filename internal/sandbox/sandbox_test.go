package sandbox

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(t *testing.T) *Executor {
	t.Helper()
	e, err := NewExecutor(filepath.Join(t.TempDir(), "sandboxes"), nil)
	require.NoError(t, err)
	return e
}

func shellSpec(script string) RunSpec {
	return RunSpec{
		Profile: ShellProfile{},
		Files:   map[string]string{"main.sh": script},
		Entry:   "main.sh",
	}
}

func TestRun_CapturesOutputAndExitCode(t *testing.T) {
	e := newTestExecutor(t)

	result, err := e.Run(context.Background(), shellSpec("echo hello; echo oops >&2; exit 3"))

	require.NoError(t, err)
	assert.Equal(t, "hello\n", result.Stdout)
	assert.Equal(t, "oops\n", result.Stderr)
	assert.Equal(t, 3, result.ExitCode)
	assert.False(t, result.Truncated)
}

func TestRun_StdinReachesProcess(t *testing.T) {
	e := newTestExecutor(t)
	spec := shellSpec("cat -")
	spec.Stdin = "ping"

	result, err := e.Run(context.Background(), spec)

	require.NoError(t, err)
	assert.Equal(t, "ping", result.Stdout)
	assert.Equal(t, 0, result.ExitCode)
}

func TestRun_TimeoutKillsAndCleansUp(t *testing.T) {
	e := newTestExecutor(t)
	spec := shellSpec("sleep 30")
	spec.Limits.Timeout = 200 * time.Millisecond

	start := time.Now()
	result, err := e.Run(context.Background(), spec)
	elapsed := time.Since(start)

	require.ErrorIs(t, err, ErrTimeout)
	require.NotNil(t, result)
	assert.Equal(t, -1, result.ExitCode)
	assert.Less(t, elapsed, 5*time.Second, "kill must not wait for the sleep to finish")
	assertNoSessions(t, e)
}

func TestRun_SessionDirRemovedOnSuccess(t *testing.T) {
	e := newTestExecutor(t)

	_, err := e.Run(context.Background(), shellSpec("echo done"))

	require.NoError(t, err)
	assertNoSessions(t, e)
}

func TestRun_SessionDirRemovedOnFailure(t *testing.T) {
	e := newTestExecutor(t)

	result, err := e.Run(context.Background(), shellSpec("exit 1"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.ExitCode)
	assertNoSessions(t, e)
}

func TestRun_OutputCappedWithMarker(t *testing.T) {
	e := newTestExecutor(t)
	spec := shellSpec("i=0; while [ $i -lt 1000 ]; do echo 0123456789012345678901234567890123456789; i=$((i+1)); done")
	spec.Limits.MaxOutputBytes = 512

	result, err := e.Run(context.Background(), spec)

	require.NoError(t, err)
	assert.True(t, result.Truncated)
	assert.True(t, strings.HasSuffix(result.Stdout, truncationMarker))
	assert.LessOrEqual(t, len(result.Stdout), 512+len(truncationMarker))
}

func TestRun_SeedFileEscapeRejected(t *testing.T) {
	e := newTestExecutor(t)
	spec := RunSpec{
		Profile: ShellProfile{},
		Files:   map[string]string{"../evil.sh": "echo pwned"},
		Entry:   "../evil.sh",
	}

	_, err := e.Run(context.Background(), spec)

	var violation *ViolationError
	require.ErrorAs(t, err, &violation)
	assertNoSessions(t, e)
}

func TestRun_EntryEscapeRejected(t *testing.T) {
	e := newTestExecutor(t)
	spec := RunSpec{
		Profile: ShellProfile{},
		Files:   map[string]string{"main.sh": "echo hi"},
		Entry:   "/etc/profile",
	}

	_, err := e.Run(context.Background(), spec)

	var violation *ViolationError
	assert.ErrorAs(t, err, &violation)
}

func TestRun_EnvironmentScrubbed(t *testing.T) {
	t.Setenv("HEARTH_SECRET", "hunter2")
	e := newTestExecutor(t)

	result, err := e.Run(context.Background(), shellSpec("echo secret=$HEARTH_SECRET home=$HOME"))

	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "secret= ")
	assert.NotContains(t, result.Stdout, "hunter2")
	// HOME points into the (now removed) session directory, not the host's.
	home, _ := os.UserHomeDir()
	if home != "" {
		assert.NotContains(t, result.Stdout, "home="+home)
	}
}

func TestRun_ContextCancellationKills(t *testing.T) {
	e := newTestExecutor(t)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := e.Run(ctx, shellSpec("sleep 30"))

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
	assertNoSessions(t, e)
}

func TestRun_WorkdirOverride(t *testing.T) {
	e := newTestExecutor(t)
	work := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(work, "probe"), []byte("x"), 0o644))
	spec := shellSpec("ls")
	spec.Workdir = work

	result, err := e.Run(context.Background(), spec)

	require.NoError(t, err)
	assert.Contains(t, result.Stdout, "probe")
}

func assertNoSessions(t *testing.T, e *Executor) {
	t.Helper()
	entries, err := os.ReadDir(e.root)
	require.NoError(t, err)
	assert.Empty(t, entries, "session directories must be torn down")
}
