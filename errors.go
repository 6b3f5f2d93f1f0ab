package claudesession

import "github.com/wagiedev/claude-session-go/internal/errors"

// Re-export error types from internal package

// SessionError is the marker interface implemented by every typed error.
type SessionError = errors.SessionError

// CLINotFoundError indicates the Claude CLI binary was not found.
type CLINotFoundError = errors.CLINotFoundError

// InvalidPathError indicates a project path failed validation.
type InvalidPathError = errors.InvalidPathError

// SpawnError indicates the CLI process could not be started.
type SpawnError = errors.SpawnError

// StdoutUnavailableError indicates the CLI started without a readable stdout.
type StdoutUnavailableError = errors.StdoutUnavailableError

// ProcessError indicates the CLI process exited unsuccessfully.
type ProcessError = errors.ProcessError

// CLIJSONDecodeError indicates a CLI output line was not valid JSON.
type CLIJSONDecodeError = errors.CLIJSONDecodeError

// Re-export sentinel errors from internal package.
var (
	// ErrNotRunning indicates no live process is registered under a key.
	ErrNotRunning = errors.ErrNotRunning

	// ErrSessionRunning indicates a session already has a live process.
	ErrSessionRunning = errors.ErrSessionRunning

	// ErrInvalidSessionID indicates an empty or malformed session id.
	ErrInvalidSessionID = errors.ErrInvalidSessionID

	// ErrEmptyMessage indicates a request without message text.
	ErrEmptyMessage = errors.ErrEmptyMessage
)
