package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	claudesession "github.com/wagiedev/claude-session-go"
)

type runFlags struct {
	project string
	resume  string
	text    bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "run [flags] <message>",
		Short: "Start or resume a session and print its events",
		Long: `Start a new session, or resume one with --resume, and print every event
as one JSON object per line until the CLI exits. Interrupting the command
cancels the session.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd.Context(), g, f, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&f.project, "project", "C", "", "project directory (default: current directory)")
	cmd.Flags().StringVar(&f.resume, "resume", "", "session id to resume")
	cmd.Flags().BoolVar(&f.text, "text", false, "print assistant text instead of JSON events")

	return cmd
}

func runSession(ctx context.Context, g *globalFlags, f runFlags, msg string, out, errOut io.Writer) error {
	opts, logger, err := setup(g, errOut)
	if err != nil {
		return err
	}

	project, err := projectDir(f.project)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := claudesession.New(opts...)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := engine.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Shutdown incomplete", "error", err)
		}
	}()

	var events iter.Seq2[claudesession.Envelope, error]

	if f.resume != "" {
		events = engine.ResumeStream(ctx, claudesession.ResumeRequest{
			SessionID:   f.resume,
			Message:     msg,
			ProjectPath: project,
		})
	} else {
		events = engine.Stream(ctx, claudesession.CreateRequest{
			Message:     msg,
			ProjectPath: project,
		})
	}

	enc := json.NewEncoder(out)

	for env, err := range events {
		if err != nil {
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				logger.Info("Interrupted, session cancelled")

				return nil
			}

			return err
		}

		if f.text {
			printText(out, errOut, env)

			continue
		}

		if err := enc.Encode(env); err != nil {
			return fmt.Errorf("write event: %w", err)
		}
	}

	return nil
}

// printText renders the human-readable form of env.
func printText(out, errOut io.Writer, env claudesession.Envelope) {
	switch ev := env.Event.(type) {
	case claudesession.ContentDelta:
		_, _ = fmt.Fprint(out, ev.Delta)
	case claudesession.MessageComplete:
		_, _ = fmt.Fprintln(out)
	case claudesession.SessionIDUpdated:
		_, _ = fmt.Fprintf(errOut, "session: %s\n", ev.RealID)
	case claudesession.ErrorEvent:
		_, _ = fmt.Fprintf(errOut, "error: %s\n", ev.Message)
	}
}

func projectDir(dir string) (string, error) {
	if dir == "" {
		return os.Getwd()
	}

	return filepath.Abs(dir)
}
