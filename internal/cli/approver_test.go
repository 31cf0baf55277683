package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lbaylis/hearth/internal/approval"
	"github.com/lbaylis/hearth/internal/registry"
)

func decide(t *testing.T, input string) (approval.Verdict, string) {
	t.Helper()
	var out strings.Builder
	approver := NewTerminalApprover(strings.NewReader(input), &out)
	verdict, _, err := approver.Decide(context.Background(), approval.Request{
		ID: "r1", Tool: "write_file", Args: map[string]any{"path": "a.txt"},
	})
	require.NoError(t, err)
	return verdict, out.String()
}

func TestTerminalApprover_Yes(t *testing.T) {
	verdict, prompt := decide(t, "y\n")

	assert.Equal(t, approval.VerdictApprove, verdict)
	assert.Contains(t, prompt, "write_file")
}

func TestTerminalApprover_No(t *testing.T) {
	verdict, _ := decide(t, "n\n")

	assert.Equal(t, approval.VerdictDeny, verdict)
}

func TestTerminalApprover_EmptyLineDenies(t *testing.T) {
	verdict, _ := decide(t, "\n")

	assert.Equal(t, approval.VerdictDeny, verdict)
}

func TestTerminalApprover_Always(t *testing.T) {
	verdict, _ := decide(t, "always\n")

	assert.Equal(t, approval.VerdictApproveAlways, verdict)
}

func TestTerminalApprover_ReasksOnGarbage(t *testing.T) {
	verdict, prompt := decide(t, "maybe\ny\n")

	assert.Equal(t, approval.VerdictApprove, verdict)
	assert.Contains(t, prompt, "Please answer")
}

func TestTerminalApprover_ContextExpiryDenies(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	var out strings.Builder
	approver := NewTerminalApprover(pr, &out)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	verdict, actor, err := approver.Decide(ctx, approval.Request{ID: "r1", Tool: "write_file"})

	require.NoError(t, err)
	assert.Equal(t, approval.VerdictDeny, verdict)
	assert.Equal(t, "timeout", actor)
	assert.Less(t, time.Since(start), 2*time.Second, "expiry must unblock the decision")
}

func TestTerminalApprover_TimeoutDeniesThroughGate(t *testing.T) {
	// A gate with a short approval timeout must come back denied even when
	// nobody ever answers the prompt.
	pr, pw := io.Pipe()
	defer pw.Close()
	var out strings.Builder
	gate := approval.NewGate(approval.AutoApproveNone, 50*time.Millisecond,
		NewTerminalApprover(pr, &out), nil)

	_, err := gate.Authorize(context.Background(), "write_file",
		map[string]any{"path": "a.txt"}, registry.TierWrite)

	var denied *approval.DeniedError
	require.ErrorAs(t, err, &denied)
	assert.Equal(t, "timeout", denied.Actor)
}

func TestTerminalApprover_EOFDenies(t *testing.T) {
	var out strings.Builder
	approver := NewTerminalApprover(strings.NewReader(""), &out)

	verdict, _, err := approver.Decide(context.Background(), approval.Request{ID: "r1", Tool: "x"})

	assert.Error(t, err)
	assert.Equal(t, approval.VerdictDeny, verdict)
}
