// Package config holds the application configuration: defaults, the YAML
// loader, and validation. Values in config files override defaults, including
// explicit zero values; missing keys keep their defaults.
package config

// Config holds all application configuration values.
type Config struct {
	// WorkspaceRoot is the directory the path jail confines tools to.
	WorkspaceRoot string `yaml:"workspace_root"`
	// DataDir hosts the skill store, active skills, and sandbox sessions.
	DataDir string `yaml:"data_dir"`

	Agent    AgentConfig    `yaml:"agent"`
	Provider ProviderConfig `yaml:"provider"`
	Tools    ToolsConfig    `yaml:"tools"`
	Sandbox  SandboxConfig  `yaml:"sandbox"`
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
}

type AgentConfig struct {
	// MaxSteps caps model calls per conversation turn.
	MaxSteps int `yaml:"max_steps"`
	// AutoApprove is the risk level approved without prompting:
	// none, read-only, or all.
	AutoApprove string `yaml:"auto_approve"`
	// ApprovalTimeoutSeconds bounds the wait for a human decision.
	// Zero means wait indefinitely; expiry counts as deny.
	ApprovalTimeoutSeconds int `yaml:"approval_timeout_seconds"`
}

type ProviderConfig struct {
	// Kind selects the backend: echo or gemini.
	Kind string `yaml:"kind"`
	// Model is the backend-specific model name.
	Model string `yaml:"model"`
}

type ToolsConfig struct {
	// ShellEnabled gates the shell_run tool.
	ShellEnabled bool `yaml:"shell_enabled"`
	// AllowedDomains is the web_fetch host allowlist.
	AllowedDomains []string `yaml:"allowed_domains"`
	// FetchMaxBytes caps a fetched body.
	FetchMaxBytes int64 `yaml:"fetch_max_bytes"`
}

type SandboxConfig struct {
	// TimeoutSeconds is the wall-clock limit per execution.
	TimeoutSeconds int `yaml:"timeout_seconds"`
	// MaxOutputBytes caps each captured stream.
	MaxOutputBytes int `yaml:"max_output_bytes"`
	// MemoryBytes is an optional address-space ceiling; zero disables it.
	MemoryBytes int64 `yaml:"memory_bytes"`
}

type ServerConfig struct {
	// Addr is the HTTP listen address for serve mode.
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	// Level is a zap level string: debug, info, warn, error.
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		WorkspaceRoot: ".",
		DataDir:       "",
		Agent: AgentConfig{
			MaxSteps:               25,
			AutoApprove:            "read-only",
			ApprovalTimeoutSeconds: 0,
		},
		Provider: ProviderConfig{
			Kind:  "gemini",
			Model: "",
		},
		Tools: ToolsConfig{
			ShellEnabled:   false,
			AllowedDomains: nil,
			FetchMaxBytes:  512 * 1024,
		},
		Sandbox: SandboxConfig{
			TimeoutSeconds: 30,
			MaxOutputBytes: 256 * 1024,
			MemoryBytes:    0,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8137",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
