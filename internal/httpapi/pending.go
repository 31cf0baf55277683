package httpapi

import (
	"context"
	"errors"
	"sync"

	"github.com/lbaylis/hearth/internal/approval"
)

// ErrUnknownRequest is returned when a resolution names no pending request.
var ErrUnknownRequest = errors.New("no pending approval with that id")

type resolution struct {
	verdict approval.Verdict
	actor   string
}

type pendingRequest struct {
	req approval.Request
	ch  chan resolution
}

// PendingApprover implements approval.Approver for the HTTP API. Decide
// parks the request under its ID; a later Resolve call with the same ID (the
// resumption token handed to API clients) completes the suspended loop.
type PendingApprover struct {
	mu      sync.Mutex
	pending map[string]*pendingRequest
}

func NewPendingApprover() *PendingApprover {
	return &PendingApprover{pending: make(map[string]*pendingRequest)}
}

// Decide blocks until Resolve is called for req.ID or ctx expires.
func (p *PendingApprover) Decide(ctx context.Context, req approval.Request) (approval.Verdict, string, error) {
	entry := &pendingRequest{req: req, ch: make(chan resolution, 1)}
	p.mu.Lock()
	p.pending[req.ID] = entry
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.pending, req.ID)
		p.mu.Unlock()
	}()

	select {
	case res := <-entry.ch:
		return res.verdict, res.actor, nil
	case <-ctx.Done():
		return approval.VerdictDeny, "timeout", ctx.Err()
	}
}

// Pending lists requests currently awaiting a decision.
func (p *PendingApprover) Pending() []approval.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]approval.Request, 0, len(p.pending))
	for _, entry := range p.pending {
		out = append(out, entry.req)
	}
	return out
}

// Resolve completes the pending request with the given id.
func (p *PendingApprover) Resolve(id string, approve bool, actor string) error {
	p.mu.Lock()
	entry, ok := p.pending[id]
	p.mu.Unlock()
	if !ok {
		return ErrUnknownRequest
	}
	verdict := approval.VerdictDeny
	if approve {
		verdict = approval.VerdictApprove
	}
	select {
	case entry.ch <- resolution{verdict: verdict, actor: actor}:
	default:
		// Already resolved; the duplicate loses.
		return ErrUnknownRequest
	}
	return nil
}
