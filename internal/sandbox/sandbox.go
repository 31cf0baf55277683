// Package sandbox runs untrusted code (skill tests, ad-hoc snippets) with a
// wall-clock timeout, an output byte cap, and guaranteed teardown. Each run
// gets a fresh ephemeral directory that is removed on every exit path.
//
// Isolation here is advisory defense-in-depth, not a hard security boundary:
// the environment is scrubbed and the process group is killed on timeout,
// but the code is not namespaced away from the host.
package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrTimeout reports an execution that exceeded its wall-clock limit and was
// forcibly terminated.
var ErrTimeout = errors.New("sandbox execution timed out")

// ViolationError reports an attempted breach of the session boundary, such
// as a seed file path escaping the session directory.
type ViolationError struct {
	Path string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("sandbox violation: path %q escapes session directory", e.Path)
}

// Limits bound one sandboxed execution.
type Limits struct {
	// Timeout is the wall-clock limit. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxOutputBytes caps each captured stream. Zero means
	// DefaultMaxOutputBytes.
	MaxOutputBytes int
	// MemoryBytes is an optional address-space ceiling. Zero means no
	// ceiling. Only enforced on platforms that support it.
	MemoryBytes int64
}

const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxOutputBytes = 256 * 1024

	// killGrace is the extra time allowed for the process group to die
	// after the kill signal before Wait is abandoned.
	killGrace = 5 * time.Second
)

// RunSpec describes one execution request.
type RunSpec struct {
	// Profile selects the runtime.
	Profile Profile
	// Files are seeded into the session directory before execution, keyed
	// by session-relative path.
	Files map[string]string
	// Entry is the session-relative file to execute.
	Entry string
	// Args are passed to the entrypoint.
	Args []string
	// Stdin is fed to the process.
	Stdin string
	// Env is appended to the scrubbed base environment, as KEY=VALUE.
	Env []string
	// Workdir optionally overrides the working directory with an already
	// jailed path; the session directory still hosts the entry file and
	// scratch space. Empty means the session directory itself.
	Workdir string
	// Limits bound the run.
	Limits Limits
}

// Result is the outcome of a sandboxed execution. It is populated even when
// the run failed or timed out.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// Executor owns the sandbox root directory and runs RunSpecs under it.
type Executor struct {
	root string
	log  *zap.Logger
}

// NewExecutor creates the sandbox root if needed.
func NewExecutor(root string, log *zap.Logger) (*Executor, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create sandbox root: %w", err)
	}
	return &Executor{root: root, log: log}, nil
}

// Run executes spec in a fresh session directory. The directory is removed
// and the process group reaped on every exit path: success, failure,
// timeout, and context cancellation.
func (e *Executor) Run(ctx context.Context, spec RunSpec) (*Result, error) {
	if spec.Profile == nil {
		return nil, fmt.Errorf("sandbox: profile is required")
	}
	if spec.Entry == "" {
		return nil, fmt.Errorf("sandbox: entry is required")
	}

	limits := spec.Limits
	if limits.Timeout <= 0 {
		limits.Timeout = DefaultTimeout
	}
	if limits.MaxOutputBytes <= 0 {
		limits.MaxOutputBytes = DefaultMaxOutputBytes
	}

	session := filepath.Join(e.root, uuid.NewString())
	if err := os.MkdirAll(session, 0o700); err != nil {
		return nil, fmt.Errorf("create session directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(session); err != nil {
			e.log.Warn("sandbox teardown failed", zap.String("session", session), zap.Error(err))
		}
	}()

	if err := seedFiles(session, spec.Files); err != nil {
		return nil, err
	}
	if !filepath.IsLocal(spec.Entry) {
		return nil, &ViolationError{Path: spec.Entry}
	}

	argv := spec.Profile.Command(filepath.Join(session, spec.Entry), spec.Args)
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Dir = session
	if spec.Workdir != "" {
		cmd.Dir = spec.Workdir
	}
	cmd.Env = append(scrubbedEnv(session), spec.Env...)
	cmd.Stdin = strings.NewReader(spec.Stdin)
	// New process group so the watchdog can kill the whole tree, not just
	// the direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout := newCollector(limits.MaxOutputBytes)
	stderr := newCollector(limits.MaxOutputBytes)
	outPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("sandbox: stdout pipe: %w", err)
	}
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("sandbox: stderr pipe: %w", err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("sandbox: start %s: %w", argv[0], err)
	}
	pid := cmd.Process.Pid
	if limits.MemoryBytes > 0 {
		// Best effort; unsupported platforms ignore this.
		applyMemoryLimit(pid, limits.MemoryBytes)
	}

	var copyWG sync.WaitGroup
	copyWG.Add(2)
	go func() { defer copyWG.Done(); copyAll(stdout, outPipe) }()
	go func() { defer copyWG.Done(); copyAll(stderr, errPipe) }()

	done := make(chan error, 1)
	go func() {
		copyWG.Wait()
		done <- cmd.Wait()
	}()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-time.After(limits.Timeout):
		timedOut = true
		e.killGroup(pid)
		select {
		case waitErr = <-done:
		case <-time.After(killGrace):
			waitErr = fmt.Errorf("process did not die after kill")
		}
	case <-ctx.Done():
		e.killGroup(pid)
		<-done
		return nil, ctx.Err()
	}

	result := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		ExitCode:  exitCode(waitErr),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Duration:  time.Since(start),
	}
	if timedOut {
		result.ExitCode = -1
		return result, fmt.Errorf("%w after %s", ErrTimeout, limits.Timeout)
	}
	return result, nil
}

// killGroup forcibly terminates the child's whole process group. Untrusted
// code is never trusted to terminate itself.
func (e *Executor) killGroup(pid int) {
	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil {
		// Fall back to the direct child if the group is already gone.
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}

func seedFiles(session string, files map[string]string) error {
	for name, content := range files {
		if !filepath.IsLocal(name) {
			return &ViolationError{Path: name}
		}
		path := filepath.Join(session, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
	}
	return nil
}

// scrubbedEnv is the best-effort capability denylist: the child sees a
// minimal environment instead of the host's, with HOME and TMPDIR pointed
// into the session directory.
func scrubbedEnv(session string) []string {
	env := []string{
		"HOME=" + session,
		"TMPDIR=" + session,
		"LANG=C.UTF-8",
	}
	if path := os.Getenv("PATH"); path != "" {
		env = append(env, "PATH="+path)
	}
	return env
}

func copyAll(dst *collector, src io.Reader) {
	buf := make([]byte, 32*1024)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			_, _ = dst.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}

func exitCode(waitErr error) int {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
