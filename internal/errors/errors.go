package errors

import (
	"errors"
	"fmt"
)

// SessionError is the base interface for all engine errors.
type SessionError interface {
	error
	IsSessionError() bool
}

// Compile-time verification that all error types implement SessionError.
var (
	_ SessionError = (*CLINotFoundError)(nil)
	_ SessionError = (*InvalidPathError)(nil)
	_ SessionError = (*SpawnError)(nil)
	_ SessionError = (*StdoutUnavailableError)(nil)
	_ SessionError = (*ProcessError)(nil)
	_ SessionError = (*CLIJSONDecodeError)(nil)
)

// Sentinel errors for commonly checked conditions.
var (
	// ErrNotRunning indicates no live subprocess is registered under the key.
	// Cancel returns it when there is nothing to cancel.
	ErrNotRunning = errors.New("session is not running")

	// ErrSessionRunning indicates a live subprocess is already registered under the key.
	ErrSessionRunning = errors.New("session is already running")

	// ErrInvalidSessionID indicates an empty or malformed session id.
	ErrInvalidSessionID = errors.New("invalid session id")

	// ErrEmptyMessage indicates the message to send is empty.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrUnknownLineType indicates the line type is not recognized by the normalizer.
	// Callers should skip these lines rather than treating them as fatal.
	ErrUnknownLineType = errors.New("unknown line type")
)

// CLINotFoundError indicates the Claude CLI binary was not found.
type CLINotFoundError struct {
	SearchedPaths []string
}

func (e *CLINotFoundError) Error() string {
	return fmt.Sprintf("claude CLI not found in: %v", e.SearchedPaths)
}

// IsSessionError implements SessionError.
func (e *CLINotFoundError) IsSessionError() bool { return true }

// InvalidPathError indicates the project path is not absolute, does not exist,
// or cannot be canonicalized.
type InvalidPathError struct {
	Path   string
	Reason string
	Err    error
}

func (e *InvalidPathError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid project path %q: %s: %v", e.Path, e.Reason, e.Err)
	}

	return fmt.Sprintf("invalid project path %q: %s", e.Path, e.Reason)
}

func (e *InvalidPathError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *InvalidPathError) IsSessionError() bool { return true }

// SpawnError indicates the OS failed to create the CLI subprocess.
type SpawnError struct {
	Err error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to spawn CLI: %v", e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *SpawnError) IsSessionError() bool { return true }

// StdoutUnavailableError indicates the subprocess has no readable stdout handle.
type StdoutUnavailableError struct {
	Err error
}

func (e *StdoutUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("CLI stdout unavailable: %v", e.Err)
	}

	return "CLI stdout unavailable"
}

func (e *StdoutUnavailableError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *StdoutUnavailableError) IsSessionError() bool { return true }

// ProcessError indicates the CLI process exited unsuccessfully.
type ProcessError struct {
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ProcessError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("CLI process failed (exit %d): %s", e.ExitCode, e.Stderr)
	}

	if e.Err != nil {
		return fmt.Sprintf("CLI process failed (exit %d): %v", e.ExitCode, e.Err)
	}

	return fmt.Sprintf("CLI process failed (exit %d)", e.ExitCode)
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *ProcessError) IsSessionError() bool { return true }

// CLIJSONDecodeError indicates a stdout line was not valid JSON.
// This error preserves the original raw data that failed to parse.
type CLIJSONDecodeError struct {
	RawData string
	Err     error
}

func (e *CLIJSONDecodeError) Error() string {
	return fmt.Sprintf("failed to decode JSON from CLI: %v", e.Err)
}

func (e *CLIJSONDecodeError) Unwrap() error {
	return e.Err
}

// IsSessionError implements SessionError.
func (e *CLIJSONDecodeError) IsSessionError() bool { return true }
