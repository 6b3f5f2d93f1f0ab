package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCLINotFoundError(t *testing.T) {
	err := &CLINotFoundError{
		SearchedPaths: []string{"/usr/bin/claude", "/opt/bin/claude"},
	}

	require.Equal(
		t,
		"claude CLI not found in: [/usr/bin/claude /opt/bin/claude]",
		err.Error(),
	)
	require.True(t, err.IsSessionError())
}

func TestInvalidPathError(t *testing.T) {
	t.Run("with reason only", func(t *testing.T) {
		err := &InvalidPathError{Path: "relative/dir", Reason: "path must be absolute"}

		require.Equal(t, `invalid project path "relative/dir": path must be absolute`, err.Error())
		require.NoError(t, err.Unwrap())
		require.True(t, err.IsSessionError())
	})

	t.Run("with underlying error", func(t *testing.T) {
		root := errors.New("no such file or directory")
		err := &InvalidPathError{Path: "/missing", Reason: "path does not exist", Err: root}

		require.Equal(t, `invalid project path "/missing": path does not exist: no such file or directory`, err.Error())
		require.ErrorIs(t, err, root)
	})
}

func TestSpawnError(t *testing.T) {
	root := errors.New("exec format error")
	err := &SpawnError{Err: root}

	require.Equal(t, "failed to spawn CLI: exec format error", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsSessionError())
}

func TestStdoutUnavailableError(t *testing.T) {
	require.Equal(t, "CLI stdout unavailable", (&StdoutUnavailableError{}).Error())

	root := errors.New("pipe already taken")
	err := &StdoutUnavailableError{Err: root}

	require.Equal(t, "CLI stdout unavailable: pipe already taken", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsSessionError())
}

func TestProcessError_WithStderr(t *testing.T) {
	root := errors.New("exit status 1")
	err := &ProcessError{
		ExitCode: 1,
		Stderr:   "No conversation found with session ID: abc",
		Err:      root,
	}

	require.Equal(t, "CLI process failed (exit 1): No conversation found with session ID: abc", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsSessionError())
}

func TestProcessError_WithUnderlyingErrorOnly(t *testing.T) {
	root := errors.New("signal: killed")
	err := &ProcessError{ExitCode: -1, Err: root}

	require.Equal(t, "CLI process failed (exit -1): signal: killed", err.Error())
	require.ErrorIs(t, err, root)
}

func TestProcessError_Bare(t *testing.T) {
	err := &ProcessError{ExitCode: 2}

	require.Equal(t, "CLI process failed (exit 2)", err.Error())
	require.NoError(t, err.Unwrap())
}

func TestCLIJSONDecodeError(t *testing.T) {
	root := errors.New("unexpected token")
	err := &CLIJSONDecodeError{
		RawData: `{"not":"valid",`,
		Err:     root,
	}

	require.Equal(t, "failed to decode JSON from CLI: unexpected token", err.Error())
	require.ErrorIs(t, err, root)
	require.True(t, err.IsSessionError())
}

func TestSentinelsAreDistinct(t *testing.T) {
	sentinels := []error{
		ErrNotRunning,
		ErrSessionRunning,
		ErrInvalidSessionID,
		ErrEmptyMessage,
		ErrUnknownLineType,
	}

	for i, a := range sentinels {
		for j, b := range sentinels {
			if i == j {
				continue
			}

			require.NotErrorIs(t, a, b)
		}
	}
}
