package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/lbaylis/hearth/internal/approval"
)

var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	argStyle    = lipgloss.NewStyle().Faint(true)
)

type readResult struct {
	line string
	err  error
}

// TerminalApprover prompts on the terminal for each approval request. Input
// is consumed by a single reader goroutine so that Decide can honor the
// gate's approval timeout: when ctx expires before an answer arrives, the
// request is denied and the dangling read is discarded.
type TerminalApprover struct {
	in  *bufio.Reader
	out io.Writer

	once  sync.Once
	lines chan readResult
}

func NewTerminalApprover(in io.Reader, out io.Writer) *TerminalApprover {
	return &TerminalApprover{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan readResult),
	}
}

func (t *TerminalApprover) readLoop() {
	for {
		line, err := t.in.ReadString('\n')
		t.lines <- readResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// Decide renders the request and reads one of y/n/a. "a" approves and skips
// future prompts for the same tool this session. Context expiry denies with
// actor "timeout".
func (t *TerminalApprover) Decide(ctx context.Context, req approval.Request) (approval.Verdict, string, error) {
	t.once.Do(func() { go t.readLoop() })

	args := "{}"
	if b, err := json.MarshalIndent(req.Args, "  ", "  "); err == nil {
		args = string(b)
	}
	fmt.Fprintf(t.out, "\n%s %s\n  %s\n%s ",
		promptStyle.Render("Tool call requires approval:"),
		toolStyle.Render(req.Tool),
		argStyle.Render(args),
		promptStyle.Render("Approve? [y]es / [n]o / [a]lways:"))

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintf(t.out, "\n%s\n", promptStyle.Render("Approval wait expired; denying."))
			return approval.VerdictDeny, "timeout", nil
		case r := <-t.lines:
			if r.err != nil {
				return approval.VerdictDeny, "terminal", fmt.Errorf("read approval input: %w", r.err)
			}
			switch strings.ToLower(strings.TrimSpace(r.line)) {
			case "y", "yes":
				return approval.VerdictApprove, "terminal", nil
			case "n", "no", "":
				return approval.VerdictDeny, "terminal", nil
			case "a", "always":
				return approval.VerdictApproveAlways, "terminal", nil
			default:
				fmt.Fprintf(t.out, "%s ", promptStyle.Render("Please answer y, n, or a:"))
			}
		}
	}
}
