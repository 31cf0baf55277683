package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"google.golang.org/genai"

	"github.com/lbaylis/hearth/internal/agent"
	"github.com/lbaylis/hearth/internal/approval"
	"github.com/lbaylis/hearth/internal/config"
	"github.com/lbaylis/hearth/internal/pathjail"
	"github.com/lbaylis/hearth/internal/provider"
	"github.com/lbaylis/hearth/internal/provider/gemini"
	"github.com/lbaylis/hearth/internal/registry"
	"github.com/lbaylis/hearth/internal/sandbox"
	"github.com/lbaylis/hearth/internal/skills"
	"github.com/lbaylis/hearth/internal/tools"
)

// Runtime bundles the wired components behind the CLI commands.
type Runtime struct {
	Config   *config.Config
	Logger   *zap.Logger
	Jail     *pathjail.Jail
	Registry *registry.Registry
	Gate     *approval.Gate
	Store    *skills.Store
	Manager  *skills.Manager
	Provider provider.Provider
	Loop     *agent.Loop
}

// Close releases the runtime's resources.
func (r *Runtime) Close() {
	if r.Store != nil {
		r.Store.Close()
	}
	if r.Logger != nil {
		_ = r.Logger.Sync()
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// buildRuntime loads configuration and wires every component: path jail,
// sandbox, registry with built-ins, approval gate, skill manager (with
// persisted skills restored), provider, and the loop.
func buildRuntime(ctx context.Context, approver approval.Approver) (*Runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyFlagOverrides(cfg)

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		return nil, err
	}

	jail, err := pathjail.New(cfg.WorkspaceRoot, nil)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir = filepath.Join(jail.Root(), ".hearth")
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	executor, err := sandbox.NewExecutor(filepath.Join(dataDir, "sandboxes"), logger)
	if err != nil {
		return nil, err
	}
	limits := sandbox.Limits{
		Timeout:        time.Duration(cfg.Sandbox.TimeoutSeconds) * time.Second,
		MaxOutputBytes: cfg.Sandbox.MaxOutputBytes,
		MemoryBytes:    cfg.Sandbox.MemoryBytes,
	}

	level, err := approval.ParseLevel(cfg.Agent.AutoApprove)
	if err != nil {
		return nil, err
	}
	gate := approval.NewGate(level,
		time.Duration(cfg.Agent.ApprovalTimeoutSeconds)*time.Second,
		approver, logger)

	reg := registry.New(logger)

	store, err := skills.OpenStore(filepath.Join(dataDir, "skills.db"))
	if err != nil {
		return nil, err
	}

	manager, err := skills.NewManager(skills.Config{
		Store:     store,
		Registry:  reg,
		Runner:    executor,
		Gate:      gate,
		Log:       logger,
		DataDir:   dataDir,
		RunLimits: limits,
	})
	if err != nil {
		store.Close()
		return nil, err
	}

	builtins := tools.Builtins(tools.Options{
		Jail:           jail,
		Executor:       executor,
		Manager:        manager,
		ShellEnabled:   cfg.Tools.ShellEnabled,
		AllowedDomains: cfg.Tools.AllowedDomains,
		FetchMaxBytes:  cfg.Tools.FetchMaxBytes,
		RunLimits:      limits,
	})
	if err := tools.RegisterAll(reg, builtins); err != nil {
		store.Close()
		return nil, err
	}

	if err := manager.Restore(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("restore installed skills: %w", err)
	}

	prov, err := buildProvider(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	loop := agent.NewLoop(agent.Config{
		Provider:     prov,
		Registry:     reg,
		Gate:         gate,
		Log:          logger,
		MaxSteps:     cfg.Agent.MaxSteps,
		SystemPrompt: agent.SystemPrompt(reg.Definitions()),
	})

	return &Runtime{
		Config:   cfg,
		Logger:   logger,
		Jail:     jail,
		Registry: reg,
		Gate:     gate,
		Store:    store,
		Manager:  manager,
		Provider: prov,
		Loop:     loop,
	}, nil
}

func buildProvider(ctx context.Context, cfg *config.Config) (provider.Provider, error) {
	switch cfg.Provider.Kind {
	case "echo":
		return provider.Echo{}, nil
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
		if err != nil {
			return nil, fmt.Errorf("create Gemini client: %w", err)
		}
		return gemini.New(gemini.NewSDKClient(client), cfg.Provider.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider kind %q", cfg.Provider.Kind)
	}
}
