// Package skills validates, tests, and atomically installs new tools into
// the registry at runtime.
//
// A skill is an out-of-process program: it reads a JSON object of arguments
// on stdin and writes its result to stdout. Supplied tests follow the same
// convention: a program that exits zero on success and may invoke the
// skill's entrypoint (written next to it as "skill" plus the profile's
// extension) through the interpreter. Both always run inside the sandbox.
package skills

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lbaylis/hearth/internal/approval"
	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
)

// ConflictError reports an install against a name that is already installed
// or currently being installed.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("skill %q conflicts with an existing or in-flight install", e.Name)
}

// TestFailureError reports a sandboxed test run that did not exit cleanly.
type TestFailureError struct {
	Name   string
	Output string
}

func (e *TestFailureError) Error() string {
	return fmt.Sprintf("skill %q tests failed: %s", e.Name, e.Output)
}

// Runner abstracts the sandbox executor so tests can stub executions.
type Runner interface {
	Run(ctx context.Context, spec sandbox.RunSpec) (*sandbox.Result, error)
}

// Authorizer abstracts the approval gate.
type Authorizer interface {
	Authorize(ctx context.Context, tool string, args map[string]any, tier registry.Tier) (*approval.Decision, error)
}

// InstallRequest carries everything needed to install one skill.
type InstallRequest struct {
	Manifest Manifest `json:"manifest"`
	Code     string   `json:"code"`
	Tests    string   `json:"tests,omitempty"`
	// Profile names the execution profile; empty means "python".
	Profile string `json:"profile,omitempty"`
}

// InstallResult reports the outcome of an install attempt.
type InstallResult struct {
	Status Status `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Config wires a Manager.
type Config struct {
	Store    *Store
	Registry *registry.Registry
	Runner   Runner
	Gate     Authorizer
	Log      *zap.Logger
	// DataDir hosts the quarantine and active skill directories.
	DataDir string
	// Profiles keys execution profiles by name.
	Profiles map[string]sandbox.Profile
	// TestTimeout bounds a skill's sandboxed test run.
	TestTimeout time.Duration
	// RunLimits bound each invocation of an installed skill.
	RunLimits sandbox.Limits
}

// Manager performs skill lifecycle operations. Concurrent installs for the
// same name serialize: the second attempt fails with ConflictError instead
// of racing file writes.
type Manager struct {
	store       *Store
	registry    *registry.Registry
	runner      Runner
	gate        Authorizer
	log         *zap.Logger
	quarantine  string
	active      string
	profiles    map[string]sandbox.Profile
	testTimeout time.Duration
	runLimits   sandbox.Limits

	mu       sync.Mutex
	inflight map[string]bool
}

// NewManager creates the quarantine and active directories under DataDir.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Profiles == nil {
		cfg.Profiles = sandbox.DefaultProfiles()
	}
	if cfg.TestTimeout <= 0 {
		cfg.TestTimeout = sandbox.DefaultTimeout
	}
	m := &Manager{
		store:       cfg.Store,
		registry:    cfg.Registry,
		runner:      cfg.Runner,
		gate:        cfg.Gate,
		log:         cfg.Log,
		quarantine:  filepath.Join(cfg.DataDir, "quarantine"),
		active:      filepath.Join(cfg.DataDir, "skills"),
		profiles:    cfg.Profiles,
		testTimeout: cfg.TestTimeout,
		runLimits:   cfg.RunLimits,
		inflight:    make(map[string]bool),
	}
	for _, dir := range []string{m.quarantine, m.active} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create skill directory: %w", err)
		}
	}
	return m, nil
}

// Propose records a skill proposal without code. Any existing record
// conflicts; a rejected name frees up only once Remove deletes it.
func (m *Manager) Propose(manifest Manifest) error {
	if err := manifest.Validate(); err != nil {
		return err
	}
	existing, err := m.store.Get(manifest.Name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if existing != nil {
		return &ConflictError{Name: manifest.Name}
	}
	return m.store.Put(&Record{Manifest: manifest, Status: StatusProposed})
}

// Install runs the full pipeline: manifest validation, quarantine write,
// sandboxed tests, approval, and atomic activation. Any failure leaves the
// registry exactly as it was; the returned InstallResult mirrors the
// taxonomy error for callers that surface it to the model.
func (m *Manager) Install(ctx context.Context, req InstallRequest) (*InstallResult, error) {
	name := req.Manifest.Name

	if err := req.Manifest.Validate(); err != nil {
		return rejected(err.Error()), err
	}
	if strings.TrimSpace(req.Code) == "" {
		err := &ValidationError{Field: "code", Reason: "must not be empty"}
		return rejected(err.Error()), err
	}
	profileName := req.Profile
	if profileName == "" {
		profileName = "python"
	}
	profile, ok := m.profiles[profileName]
	if !ok {
		err := &ValidationError{Field: "profile", Reason: fmt.Sprintf("unknown profile %q", profileName)}
		return rejected(err.Error()), err
	}

	if err := m.acquire(name); err != nil {
		return rejected(err.Error()), err
	}
	defer m.release(name)

	if err := m.checkConflicts(name); err != nil {
		return rejected(err.Error()), err
	}

	// Quarantined write: distinct from the active tree until everything
	// passes.
	dir := filepath.Join(m.quarantine, name+"-"+uuid.NewString())
	if err := m.writeQuarantine(dir, req, profile); err != nil {
		return rejected(err.Error()), err
	}
	cleanup := func() { _ = os.RemoveAll(dir) }

	// The record enters testing here; every exit below moves it to
	// installed or rejected so that no name wedges mid-pipeline.
	if err := m.store.Put(&Record{Manifest: req.Manifest, Status: StatusTesting, Profile: profileName}); err != nil {
		cleanup()
		return rejected(err.Error()), err
	}

	if req.Tests != "" {
		if err := m.runTests(ctx, req, profile); err != nil {
			cleanup()
			m.markRejected(req.Manifest, profileName, err.Error())
			return rejected(err.Error()), err
		}
	}

	if _, err := m.gate.Authorize(ctx, "install_skill", map[string]any{
		"name":        name,
		"permissions": req.Manifest.Permissions,
	}, registry.TierCodeExec); err != nil {
		cleanup()
		var denied *approval.DeniedError
		if errors.As(err, &denied) {
			m.markRejected(req.Manifest, profileName, "install not approved")
			return rejected("install not approved"), err
		}
		m.markRejected(req.Manifest, profileName, err.Error())
		return rejected(err.Error()), err
	}

	if err := m.activate(dir, req, profileName, profile); err != nil {
		cleanup()
		m.markRejected(req.Manifest, profileName, err.Error())
		return rejected(err.Error()), err
	}

	m.log.Info("skill installed",
		zap.String("skill", name),
		zap.String("profile", profileName),
		zap.Int("version", req.Manifest.Version))
	return &InstallResult{Status: StatusInstalled}, nil
}

// Restore re-registers every installed skill from the store. Called once at
// startup; this is the only path by which persisted skills re-enter the
// registry.
func (m *Manager) Restore(ctx context.Context) error {
	records, err := m.store.List()
	if err != nil {
		return err
	}
	for _, rec := range records {
		if rec.Status != StatusInstalled {
			continue
		}
		profile, ok := m.profiles[rec.Profile]
		if !ok {
			m.log.Warn("skipping skill with unknown profile",
				zap.String("skill", rec.Manifest.Name), zap.String("profile", rec.Profile))
			continue
		}
		if err := m.registry.Register(m.newTool(rec.Manifest, rec.Code, profile), rec.Manifest.Tier()); err != nil {
			return fmt.Errorf("restore skill %s: %w", rec.Manifest.Name, err)
		}
	}
	return nil
}

// List returns all skill records.
func (m *Manager) List() ([]Record, error) { return m.store.List() }

// Disable hides an installed skill from the registry and persists the state.
func (m *Manager) Disable(name string) error {
	rec, err := m.store.Get(name)
	if err != nil {
		return err
	}
	if rec.Status != StatusInstalled {
		return fmt.Errorf("skill %q is not installed", name)
	}
	m.registry.Disable(name)
	rec.Status = StatusDisabled
	return m.store.Put(rec)
}

// Remove deletes a skill entirely, freeing its name for a new proposal.
func (m *Manager) Remove(name string) error {
	m.registry.Remove(name)
	_ = os.RemoveAll(filepath.Join(m.active, name))
	return m.store.Delete(name)
}

func (m *Manager) acquire(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inflight[name] {
		return &ConflictError{Name: name}
	}
	m.inflight[name] = true
	return nil
}

func (m *Manager) release(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inflight, name)
}

// checkConflicts refuses names that already resolve in the registry or whose
// record is past the point of overwriting. A proposed record is the expected
// predecessor of an install; a leftover testing record means an earlier
// attempt never concluded and may be retried. Rejected requires Remove first.
func (m *Manager) checkConflicts(name string) error {
	if _, err := m.registry.Resolve(name); err == nil {
		return &ConflictError{Name: name}
	}
	rec, err := m.store.Get(name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	if rec != nil && rec.Status != StatusProposed && rec.Status != StatusTesting {
		return &ConflictError{Name: name}
	}
	return nil
}

func (m *Manager) writeQuarantine(dir string, req InstallRequest, profile sandbox.Profile) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("quarantine: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, skillEntry+profile.Extension()), []byte(req.Code), 0o644); err != nil {
		return fmt.Errorf("quarantine: %w", err)
	}
	if req.Tests != "" {
		if err := os.WriteFile(filepath.Join(dir, "test"+profile.Extension()), []byte(req.Tests), 0o644); err != nil {
			return fmt.Errorf("quarantine: %w", err)
		}
	}
	return nil
}

func (m *Manager) runTests(ctx context.Context, req InstallRequest, profile sandbox.Profile) error {
	entry := "test" + profile.Extension()
	result, err := m.runner.Run(ctx, sandbox.RunSpec{
		Profile: profile,
		Files: map[string]string{
			skillEntry + profile.Extension(): req.Code,
			entry:                            req.Tests,
		},
		Entry:  entry,
		Limits: sandbox.Limits{Timeout: m.testTimeout},
	})
	if err != nil {
		if errors.Is(err, sandbox.ErrTimeout) {
			return &TestFailureError{Name: req.Manifest.Name, Output: "test run timed out"}
		}
		return fmt.Errorf("run skill tests: %w", err)
	}
	if result.ExitCode != 0 {
		output := strings.TrimSpace(result.Stderr)
		if output == "" {
			output = strings.TrimSpace(result.Stdout)
		}
		if output == "" {
			output = fmt.Sprintf("exit code %d", result.ExitCode)
		}
		return &TestFailureError{Name: req.Manifest.Name, Output: output}
	}
	return nil
}

// activate moves the quarantined skill into the active tree, persists the
// installed record, and registers the handler. The rename is the atomic
// boundary: a concurrent dispatch either sees the skill fully installed or
// not at all, because registration happens under the registry's lock after
// everything else succeeded.
func (m *Manager) activate(dir string, req InstallRequest, profileName string, profile sandbox.Profile) error {
	target := filepath.Join(m.active, req.Manifest.Name)
	if err := os.Rename(dir, target); err != nil {
		return fmt.Errorf("activate skill: %w", err)
	}

	rec := &Record{
		Manifest:    req.Manifest,
		Status:      StatusInstalled,
		Code:        req.Code,
		Tests:       req.Tests,
		Profile:     profileName,
		Dir:         target,
		InstalledAt: time.Now(),
	}
	if err := m.store.Put(rec); err != nil {
		_ = os.RemoveAll(target)
		return fmt.Errorf("persist skill: %w", err)
	}

	if err := m.registry.Register(m.newTool(req.Manifest, req.Code, profile), req.Manifest.Tier()); err != nil {
		_ = os.RemoveAll(target)
		_ = m.store.Delete(req.Manifest.Name)
		return &ConflictError{Name: req.Manifest.Name}
	}
	return nil
}

func (m *Manager) newTool(manifest Manifest, code string, profile sandbox.Profile) registry.Tool {
	return &skillTool{
		manifest: manifest,
		code:     code,
		profile:  profile,
		runner:   m.runner,
		limits:   m.runLimits,
	}
}

// markRejected records a failed install for audit. Best effort: a store
// error here must not mask the install failure.
func (m *Manager) markRejected(manifest Manifest, profileName, reason string) {
	rec := &Record{
		Manifest: manifest,
		Status:   StatusRejected,
		Profile:  profileName,
		Reason:   reason,
	}
	if err := m.store.Put(rec); err != nil {
		m.log.Warn("failed to record rejection", zap.String("skill", manifest.Name), zap.Error(err))
	}
}

func rejected(reason string) *InstallResult {
	return &InstallResult{Status: StatusRejected, Reason: reason}
}
