// Package registry holds the set of currently invocable tools. Built-ins are
// registered at startup; the skill manager extends the registry at runtime.
// The registry is an owned instance passed through the wiring, never a
// package-level singleton.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Tier classifies a tool's potential impact. It decides whether the approval
// gate prompts before execution.
type Tier int

const (
	TierReadOnly Tier = iota
	TierWrite
	TierNetworkShell
	TierCodeExec
)

func (t Tier) String() string {
	switch t {
	case TierReadOnly:
		return "read-only"
	case TierWrite:
		return "write"
	case TierNetworkShell:
		return "network-shell"
	case TierCodeExec:
		return "code-exec"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// Tool is a capability the agent can invoke. Implementations must be safe
// for concurrent use.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description.
	Description() string

	// Definition returns the structured tool definition advertised to the
	// model.
	Definition() Definition

	// Execute runs the tool with schema-validated arguments.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Entry pairs a tool with its risk tier and enabled flag.
type Entry struct {
	Tool    Tool
	Tier    Tier
	Enabled bool
}

// ConflictError reports a registration against a name that is already
// enabled.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("tool %q is already registered", e.Name)
}

// UnknownToolError reports a dispatch or resolve against a name that is
// absent or disabled.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// Registry maps tool names to entries. Safe for concurrent use; a reader
// never observes a partially registered entry.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
	log     *zap.Logger
}

// New creates an empty registry.
func New(log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		entries: make(map[string]Entry),
		log:     log,
	}
}

// Register adds a tool under its name. It fails with ConflictError if the
// name already resolves to an enabled entry; a disabled entry of the same
// name is replaced.
func (r *Registry) Register(t Tool, tier Tier) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[name]; ok && existing.Enabled {
		return &ConflictError{Name: name}
	}
	r.entries[name] = Entry{Tool: t, Tier: tier, Enabled: true}
	r.log.Debug("tool registered", zap.String("tool", name), zap.Stringer("tier", tier))
	return nil
}

// Resolve returns the entry for name. Absent and disabled names both yield
// UnknownToolError; a disabled tool must be invisible to the loop.
func (r *Registry) Resolve(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.entries[name]
	if !ok || !entry.Enabled {
		return Entry{}, &UnknownToolError{Name: name}
	}
	return entry, nil
}

// Dispatch validates args against the tool's parameter schema and invokes
// its handler. Validation failure returns ValidationError without invoking
// the handler. The handler runs outside the registry lock.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, error) {
	entry, err := r.Resolve(name)
	if err != nil {
		return "", err
	}
	if args == nil {
		args = map[string]any{}
	}
	if err := validateArgs(name, entry.Tool.Definition().Parameters, args); err != nil {
		return "", err
	}
	return entry.Tool.Execute(ctx, args)
}

// Disable hides a tool from resolution without removing it. Returns false if
// the name is not registered.
func (r *Registry) Disable(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[name]
	if !ok {
		return false
	}
	entry.Enabled = false
	r.entries[name] = entry
	return true
}

// Remove deletes a tool entirely. Used when an installed skill is removed.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, name)
}

// Definitions returns the definitions of all enabled tools sorted by name,
// for inclusion in the system prompt.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Enabled {
			defs = append(defs, entry.Tool.Definition())
		}
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
