package config

import (
	"fmt"
	"strings"
)

// Validate checks the merged configuration for correctness.
func (c *Config) Validate() error {
	var errs []string

	if c.WorkspaceRoot == "" {
		errs = append(errs, "workspace_root must not be empty")
	}
	if c.Agent.MaxSteps < 1 {
		errs = append(errs, "agent.max_steps must be >= 1")
	}
	switch c.Agent.AutoApprove {
	case "none", "read-only", "all":
	default:
		errs = append(errs, "agent.auto_approve must be one of none, read-only, all")
	}
	if c.Agent.ApprovalTimeoutSeconds < 0 {
		errs = append(errs, "agent.approval_timeout_seconds must be >= 0")
	}
	switch c.Provider.Kind {
	case "echo", "gemini":
	default:
		errs = append(errs, "provider.kind must be one of echo, gemini")
	}
	if c.Tools.FetchMaxBytes < 1 {
		errs = append(errs, "tools.fetch_max_bytes must be >= 1")
	}
	if c.Sandbox.TimeoutSeconds < 1 {
		errs = append(errs, "sandbox.timeout_seconds must be >= 1")
	}
	if c.Sandbox.MaxOutputBytes < 1 {
		errs = append(errs, "sandbox.max_output_bytes must be >= 1")
	}
	if c.Sandbox.MemoryBytes < 0 {
		errs = append(errs, "sandbox.memory_bytes must be >= 0")
	}
	if c.Server.Addr == "" {
		errs = append(errs, "server.addr must not be empty")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, "log.level must be one of debug, info, warn, error")
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
