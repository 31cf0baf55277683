// Package agent drives the conversation state machine: model turn, protocol
// parse, approval, dispatch, and result feedback, until the model replies or
// a terminal condition fires.
package agent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/lbaylis/hearth/internal/approval"
	"github.com/lbaylis/hearth/internal/protocol"
	"github.com/lbaylis/hearth/internal/provider"
	"github.com/lbaylis/hearth/internal/registry"
)

// Status is the terminal condition of one Run call.
type Status string

const (
	// StatusReply: the model produced a reply for the user; the
	// conversation may continue with another Run call.
	StatusReply Status = "reply"
	// StatusMaxSteps: the step ceiling was reached without a reply.
	StatusMaxSteps Status = "max-steps-exceeded"
	// StatusKilled: the kill switch fired before a model call.
	StatusKilled Status = "kill-switch"
)

// Outcome reports how a Run call ended.
type Outcome struct {
	Status Status
	// Reply holds the model's answer when Status is StatusReply.
	Reply string
	// Steps is the number of model calls consumed by this Run.
	Steps int
}

// Authorizer gates a tool call before dispatch.
type Authorizer interface {
	Authorize(ctx context.Context, tool string, args map[string]any, tier registry.Tier) (*approval.Decision, error)
}

const defaultMaxSteps = 25

// Config wires a Loop.
type Config struct {
	Provider provider.Provider
	Registry *registry.Registry
	Gate     Authorizer
	Log      *zap.Logger
	// MaxSteps caps model calls per Run; protocol corrections count.
	MaxSteps int
	// SystemPrompt seeds the conversation. Empty means no system turn.
	SystemPrompt string
}

// Loop owns one conversation. History is append-only and at most one model
// call or tool dispatch is in flight at a time; concurrent Run calls
// serialize on the loop's mutex.
type Loop struct {
	provider provider.Provider
	registry *registry.Registry
	gate     Authorizer
	log      *zap.Logger
	maxSteps int

	mu      sync.Mutex
	history []provider.Message
	killed  atomic.Bool
}

// NewLoop creates a Loop over a fresh conversation.
func NewLoop(cfg Config) *Loop {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = defaultMaxSteps
	}
	l := &Loop{
		provider: cfg.Provider,
		registry: cfg.Registry,
		gate:     cfg.Gate,
		log:      cfg.Log,
		maxSteps: cfg.MaxSteps,
	}
	if cfg.SystemPrompt != "" {
		l.history = append(l.history, provider.Message{Role: provider.RoleSystem, Content: cfg.SystemPrompt})
	}
	return l
}

// Kill requests termination. The loop observes it before its next model
// call; an in-flight tool execution still runs to completion.
func (l *Loop) Kill() { l.killed.Store(true) }

// History returns a copy of the conversation so far.
func (l *Loop) History() []provider.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]provider.Message, len(l.history))
	copy(out, l.history)
	return out
}

// Run feeds one user message into the conversation and drives the loop until
// the model replies or a terminal condition fires. Malformed model output and
// unknown tools are fed back as corrections, not fatal; only provider failure
// returns a non-nil error.
func (l *Loop) Run(ctx context.Context, userMessage string) (*Outcome, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.history = append(l.history, provider.Message{Role: provider.RoleUser, Content: userMessage})

	steps := 0
	for steps < l.maxSteps {
		if l.killed.Load() {
			l.log.Info("loop terminated by kill switch", zap.Int("steps", steps))
			return &Outcome{Status: StatusKilled, Steps: steps}, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		raw, err := l.provider.Generate(ctx, l.history)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", l.provider.Name(), err)
		}
		steps++
		l.history = append(l.history, provider.Message{Role: provider.RoleAssistant, Content: raw})

		action, err := protocol.Parse(raw)
		if err != nil {
			var perr *protocol.Error
			if !errors.As(err, &perr) {
				return nil, err
			}
			l.log.Debug("malformed model output", zap.String("reason", perr.Reason))
			l.feedback(perr.Correction())
			continue
		}

		switch act := action.(type) {
		case *protocol.Reply:
			return &Outcome{Status: StatusReply, Reply: act.Content, Steps: steps}, nil
		case *protocol.ToolCall:
			l.feedback(l.dispatch(ctx, act))
		default:
			return nil, fmt.Errorf("unhandled action type %T", action)
		}
	}

	l.log.Warn("step ceiling reached", zap.Int("max_steps", l.maxSteps))
	return &Outcome{Status: StatusMaxSteps, Steps: steps}, nil
}

// dispatch runs one tool call through the gate and registry, folding every
// recoverable failure into a feedback string for the model.
func (l *Loop) dispatch(ctx context.Context, call *protocol.ToolCall) string {
	entry, err := l.registry.Resolve(call.Name)
	if err != nil {
		return fmt.Sprintf("Tool call failed: %v. Use one of the available tools.", err)
	}

	if _, err := l.gate.Authorize(ctx, call.Name, call.Args, entry.Tier); err != nil {
		var denied *approval.DeniedError
		if errors.As(err, &denied) {
			l.log.Info("tool call denied", zap.String("tool", call.Name), zap.String("actor", denied.Actor))
			return fmt.Sprintf("Tool call %s was denied by the user. Do not retry it; adjust your plan.", call.Name)
		}
		return fmt.Sprintf("Tool call %s could not be authorized: %v.", call.Name, err)
	}

	l.log.Info("dispatching tool", zap.String("tool", call.Name))
	result, err := l.registry.Dispatch(ctx, call.Name, call.Args)
	if err != nil {
		l.log.Warn("tool failed", zap.String("tool", call.Name), zap.Error(err))
		return fmt.Sprintf("Tool %s failed: %v", call.Name, err)
	}
	if result == "" {
		result = "(no output)"
	}
	return fmt.Sprintf("Result of %s:\n%s", call.Name, result)
}

func (l *Loop) feedback(content string) {
	l.history = append(l.history, provider.Message{Role: provider.RoleTool, Content: content})
}
