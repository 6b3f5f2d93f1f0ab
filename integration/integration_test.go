//go:build integration

package integration

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	claudesession "github.com/wagiedev/claude-session-go"
)

// skipIfCLINotInstalled skips the test if the error indicates the CLI is not found.
func skipIfCLINotInstalled(t *testing.T, err error) {
	t.Helper()

	if _, ok := errors.AsType[*claudesession.CLINotFoundError](err); ok {
		t.Skip("Claude CLI not installed")
	}
}

// contains42 checks if a string contains "42" in various formats.
func contains42(s string) bool {
	lower := strings.ToLower(s)

	return strings.Contains(lower, "42") ||
		strings.Contains(lower, "forty-two") ||
		strings.Contains(lower, "forty two")
}

func newEngine(t *testing.T) *claudesession.Engine {
	t.Helper()

	engine := claudesession.New(
		claudesession.WithModel("haiku"),
		claudesession.WithMaxTurns(1),
		claudesession.WithEventBuffer(4096),
	)

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = engine.Shutdown(ctx)
	})

	return engine
}

func collect(t *testing.T, seq iter.Seq2[claudesession.Envelope, error]) []claudesession.Envelope {
	t.Helper()

	var envs []claudesession.Envelope

	for env, err := range seq {
		skipIfCLINotInstalled(t, err)
		require.NoError(t, err)

		envs = append(envs, env)
	}

	return envs
}

func completedText(envs []claudesession.Envelope) string {
	var b strings.Builder

	for _, env := range envs {
		if c, ok := env.Event.(claudesession.MessageComplete); ok {
			b.WriteString(c.Content)
		}
	}

	return b.String()
}
