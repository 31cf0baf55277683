// Package approval gates risky tool calls behind explicit human
// authorization. The gate classifies a call by its risk tier, auto-approves
// what the configured level allows, and otherwise suspends until an Approver
// produces a decision.
package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lbaylis/hearth/internal/registry"
)

// Level is the escalating auto-approve threshold.
type Level int

const (
	// AutoApproveNone prompts for every tool call.
	AutoApproveNone Level = iota
	// AutoApproveReadOnly auto-approves read-only tools.
	AutoApproveReadOnly
	// AutoApproveAll never prompts.
	AutoApproveAll
)

func (l Level) String() string {
	switch l {
	case AutoApproveNone:
		return "none"
	case AutoApproveReadOnly:
		return "read-only"
	case AutoApproveAll:
		return "all"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel parses the configuration form of a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "none":
		return AutoApproveNone, nil
	case "read-only":
		return AutoApproveReadOnly, nil
	case "all":
		return AutoApproveAll, nil
	default:
		return AutoApproveNone, fmt.Errorf("unknown auto-approve level %q", s)
	}
}

// Verdict is an approver's answer to a request.
type Verdict string

const (
	VerdictApprove Verdict = "approve"
	VerdictDeny    Verdict = "deny"
	// VerdictApproveAlways approves and skips future prompts for the same
	// tool within this session.
	VerdictApproveAlways Verdict = "approve-always"
	// VerdictAuto marks a decision the gate made without prompting.
	VerdictAuto Verdict = "auto-approved"
)

// Request describes one tool call awaiting authorization. ID doubles as the
// resumption token for asynchronous approvers.
type Request struct {
	ID   string         `json:"id"`
	Tool string         `json:"tool"`
	Args map[string]any `json:"args"`
	Tier registry.Tier  `json:"-"`
}

// Decision is the immutable record of how a request was resolved.
type Decision struct {
	Request Request
	Verdict Verdict
	Actor   string
	At      time.Time
}

// DeniedError is the structured refusal surfaced to the model as a tool
// result. It never aborts the loop.
type DeniedError struct {
	Tool  string
	Actor string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("tool %q was denied by %s", e.Tool, e.Actor)
}

// Approver resolves requests the gate cannot auto-approve. Decide blocks
// until a verdict arrives or ctx is done.
type Approver interface {
	Decide(ctx context.Context, req Request) (Verdict, string, error)
}

// Gate decides whether a tool call may proceed.
type Gate struct {
	level    Level
	timeout  time.Duration
	approver Approver
	log      *zap.Logger

	mu           sync.RWMutex
	sessionAllow map[string]bool
}

// NewGate builds a gate. timeout zero means the wait for a decision is
// unbounded; a positive timeout turns expiry into a deny.
func NewGate(level Level, timeout time.Duration, approver Approver, log *zap.Logger) *Gate {
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{
		level:        level,
		timeout:      timeout,
		approver:     approver,
		log:          log,
		sessionAllow: make(map[string]bool),
	}
}

// Authorize decides whether the named tool call may run. It returns the
// decision on approval and DeniedError (wrapped in the decision's terms) on
// refusal. The call suspends inside the Approver when confirmation is
// required.
func (g *Gate) Authorize(ctx context.Context, tool string, args map[string]any, tier registry.Tier) (*Decision, error) {
	req := Request{ID: uuid.NewString(), Tool: tool, Args: args, Tier: tier}

	if g.autoApproved(tool, tier) {
		decision := &Decision{Request: req, Verdict: VerdictAuto, Actor: "gate", At: time.Now()}
		g.log.Debug("tool auto-approved",
			zap.String("tool", tool), zap.Stringer("tier", tier), zap.Stringer("level", g.level))
		return decision, nil
	}

	if g.approver == nil {
		// No way to ask; refuse rather than run unapproved.
		return nil, &DeniedError{Tool: tool, Actor: "gate"}
	}

	decideCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		decideCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	verdict, actor, err := g.approver.Decide(decideCtx, req)
	if err != nil {
		if g.timeout > 0 && decideCtx.Err() != nil && ctx.Err() == nil {
			// Expired wait counts as a deny, not as a loop failure.
			g.log.Warn("approval wait timed out", zap.String("tool", tool))
			return nil, &DeniedError{Tool: tool, Actor: "timeout"}
		}
		return nil, fmt.Errorf("approval: %w", err)
	}

	decision := &Decision{Request: req, Verdict: verdict, Actor: actor, At: time.Now()}
	switch verdict {
	case VerdictApprove:
		return decision, nil
	case VerdictApproveAlways:
		g.mu.Lock()
		g.sessionAllow[tool] = true
		g.mu.Unlock()
		return decision, nil
	case VerdictDeny:
		g.log.Info("tool denied", zap.String("tool", tool), zap.String("actor", actor))
		return nil, &DeniedError{Tool: tool, Actor: actor}
	default:
		return nil, fmt.Errorf("approval: invalid verdict %q", verdict)
	}
}

func (g *Gate) autoApproved(tool string, tier registry.Tier) bool {
	g.mu.RLock()
	allowed := g.sessionAllow[tool]
	g.mu.RUnlock()
	if allowed {
		return true
	}
	switch g.level {
	case AutoApproveAll:
		return true
	case AutoApproveReadOnly:
		return tier == registry.TierReadOnly
	default:
		return false
	}
}
