package config

import (
	"log/slog"

	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/subprocess"
)

// DefaultModel is used by Create when neither the request nor the options
// name a model.
const DefaultModel = "sonnet"

// Options configures the session engine.
type Options struct {
	// Logger is the slog logger for debug output.
	// If nil, logging is disabled (silent operation).
	Logger *slog.Logger

	// CliPath is the explicit path to the claude binary. If empty, the
	// binary is searched on PATH and in common install locations.
	CliPath string

	// SkipVersionCheck skips the CLI version warning during discovery.
	SkipVersionCheck bool

	// Model is the default model for new sessions, as an alias or full id.
	// Resumed sessions always keep the model they were created with.
	Model string

	// PermissionMode controls how the CLI handles tool permissions.
	// Valid values: "acceptEdits", "bypassPermissions", "default", "dontAsk", "plan"
	// Legacy aliases are supported and normalized:
	// - "acceptAll" -> "bypassPermissions"
	// - "prompt" -> "default"
	PermissionMode string

	// MaxTurns limits the number of agent turns per run. Zero means no limit.
	MaxTurns int

	// AllowedTools pre-approves tools so they run without a permission prompt.
	AllowedTools []string

	// DisallowedTools blocks tools.
	DisallowedTools []string

	// AppendSystemPrompt is appended to the CLI's default system prompt.
	AppendSystemPrompt string

	// AddDirs grants the agent access to directories outside the project.
	AddDirs []string

	// Env adds or overrides environment variables for the CLI process.
	Env map[string]string

	// ExtraArgs passes arbitrary CLI flags. A nil value is a boolean flag.
	ExtraArgs map[string]*string

	// Stderr receives every stderr line of every session, with its key.
	Stderr func(sessionKey, line string)

	// EventBuffer is the per-subscriber channel capacity of the event bus.
	EventBuffer int

	// ModelAliases adds or overrides model alias mappings.
	ModelAliases map[string]string

	// Spawner starts CLI processes. Defaults to an os/exec spawner.
	Spawner subprocess.Spawner `json:"-"`

	// Sink receives every event in addition to the engine's bus.
	Sink eventbus.Sink `json:"-"`
}
