package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lbaylis/hearth/internal/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the agent behind an HTTP API",
		Long: `Start the HTTP server. Chat requests block while an approval is pending;
resolve approvals with POST /api/v1/approvals/{id}.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			approver := httpapi.NewPendingApprover()
			rt, err := buildRuntime(cmd.Context(), approver)
			if err != nil {
				return err
			}
			defer rt.Close()

			if addr == "" {
				addr = rt.Config.Server.Addr
			}
			srv := httpapi.NewServer(addr, rt.Loop, approver, rt.Manager, rt.Logger)

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case sig := <-sigCh:
				rt.Logger.Info("shutting down", zap.String("signal", sig.String()))
				rt.Loop.Kill()
				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
