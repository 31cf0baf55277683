package tools

import (
	"time"

	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
	"github.com/lbaylis/hearth/internal/skills"
)

// Registration pairs a tool with its risk tier.
type Registration struct {
	Tool registry.Tool
	Tier registry.Tier
}

// Options selects and bounds the built-in tool set.
type Options struct {
	Jail     *pathjail.Jail
	Executor *sandbox.Executor
	Manager  *skills.Manager
	Profiles map[string]sandbox.Profile
	// ShellEnabled gates shell_run; off by default.
	ShellEnabled bool
	// AllowedDomains is the web_fetch host allowlist.
	AllowedDomains []string
	// FetchMaxBytes caps web_fetch bodies.
	FetchMaxBytes int64
	// FetchTimeout bounds a web_fetch request.
	FetchTimeout time.Duration
	// RunLimits bound shell_run and run_code executions.
	RunLimits sandbox.Limits
}

// Builtins assembles the built-in tool set for the given options.
func Builtins(opts Options) []Registration {
	if opts.Profiles == nil {
		opts.Profiles = sandbox.DefaultProfiles()
	}
	regs := []Registration{
		{NewReadFile(opts.Jail), registry.TierReadOnly},
		{NewListFiles(opts.Jail), registry.TierReadOnly},
		{NewWriteFile(opts.Jail), registry.TierWrite},
		{NewGitOps(opts.Jail), registry.TierWrite},
		{NewWebFetch(FetchConfig{
			AllowedDomains: opts.AllowedDomains,
			MaxBytes:       opts.FetchMaxBytes,
			Timeout:        opts.FetchTimeout,
		}), registry.TierNetworkShell},
		{NewRunCode(opts.Executor, opts.Profiles, opts.RunLimits), registry.TierCodeExec},
	}
	if opts.ShellEnabled {
		regs = append(regs, Registration{NewShellRun(opts.Jail, opts.Executor, opts.RunLimits), registry.TierNetworkShell})
	}
	if opts.Manager != nil {
		regs = append(regs,
			Registration{NewSkillPropose(opts.Manager), registry.TierReadOnly},
			Registration{NewSkillInstall(opts.Manager), registry.TierCodeExec},
		)
	}
	return regs
}

// RegisterAll registers every built-in into the registry.
func RegisterAll(reg *registry.Registry, regs []Registration) error {
	for _, r := range regs {
		if err := reg.Register(r.Tool, r.Tier); err != nil {
			return err
		}
	}
	return nil
}
