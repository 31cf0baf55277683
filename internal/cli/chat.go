package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/lbaylis/hearth/internal/agent"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the agent on the terminal",
		Long: `Start an interactive conversation. With a message argument, run a single
turn and exit. Risky tool calls prompt for approval inline.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := buildRuntime(ctx, NewTerminalApprover(os.Stdin, os.Stderr))
			if err != nil {
				return err
			}
			defer rt.Close()

			renderer, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
			if err != nil {
				return fmt.Errorf("create renderer: %w", err)
			}

			if len(args) == 1 {
				return runTurn(cmd, rt, renderer, args[0])
			}

			reader := bufio.NewReader(os.Stdin)
			for {
				fmt.Fprint(os.Stderr, "You: ")
				line, err := reader.ReadString('\n')
				if err != nil {
					return nil
				}
				message := strings.TrimSpace(line)
				if message == "" {
					continue
				}
				if message == "/quit" || message == "/exit" {
					return nil
				}
				if err := runTurn(cmd, rt, renderer, message); err != nil {
					return err
				}
			}
		},
	}
	return cmd
}

func runTurn(cmd *cobra.Command, rt *Runtime, renderer *glamour.TermRenderer, message string) error {
	outcome, err := rt.Loop.Run(cmd.Context(), message)
	if err != nil {
		return err
	}
	switch outcome.Status {
	case agent.StatusReply:
		rendered, err := renderer.Render(outcome.Reply)
		if err != nil {
			rendered = outcome.Reply
		}
		fmt.Fprint(cmd.OutOrStdout(), rendered)
		return nil
	case agent.StatusMaxSteps:
		return fmt.Errorf("conversation ended: step limit (%d) reached", outcome.Steps)
	case agent.StatusKilled:
		return fmt.Errorf("conversation ended: kill switch")
	default:
		return fmt.Errorf("conversation ended with status %q", outcome.Status)
	}
}
