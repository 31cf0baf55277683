package provider

import (
	"context"

	"github.com/lbaylis/hearth/internal/protocol"
)

// Echo is a deterministic offline provider: it replies with the last user
// message, wrapped in the wire protocol. Useful for development and for
// exercising the full loop without network access.
type Echo struct{}

func (Echo) Name() string { return "echo" }

// Generate returns a protocol reply echoing the most recent user turn.
func (Echo) Generate(_ context.Context, history []Message) (string, error) {
	last := ""
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			last = history[i].Content
			break
		}
	}
	return protocol.EncodeReply(last)
}
