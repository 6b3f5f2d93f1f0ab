package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	claudesession "github.com/wagiedev/claude-session-go"
	internalmcp "github.com/wagiedev/claude-session-go/internal/mcp"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve session control tools over MCP on stdio",
		Long: `Serve session_create, session_resume, session_cancel, session_events and
session_list as Model Context Protocol tools on stdin/stdout. All live
sessions are killed when the client disconnects.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts, logger, err := setup(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine := claudesession.New(opts...)

			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				if err := engine.Shutdown(shutdownCtx); err != nil {
					logger.Warn("Shutdown incomplete", "error", err)
				}
			}()

			server := internalmcp.NewServer(logger, engine, engine, version)

			return server.Run(ctx, &mcp.StdioTransport{})
		},
	}
}
