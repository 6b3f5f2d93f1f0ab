package claudesession

import (
	"log/slog"

	"github.com/wagiedev/claude-session-go/internal/config"
	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/message"
)

// Options configures an Engine. Use the With* functions to set it.
type Options = config.Options

// Option configures Options using the functional options pattern.
type Option func(*Options)

// applyOptions applies functional options to a fresh Options struct.
func applyOptions(opts []Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}

	return options
}

// ===== Basic Configuration =====

// WithLogger sets the logger for debug output.
// If not set, logging is disabled (silent operation).
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithCliPath sets the explicit path to the claude CLI binary.
// If not set, the CLI is searched in PATH and common install locations.
func WithCliPath(path string) Option {
	return func(o *Options) {
		o.CliPath = path
	}
}

// WithSkipVersionCheck disables the CLI version warning.
func WithSkipVersionCheck(skip bool) Option {
	return func(o *Options) {
		o.SkipVersionCheck = skip
	}
}

// WithModel sets the default model for new sessions, as an alias such as
// "opus" or a full id.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithModelAliases adds or overrides model alias mappings.
func WithModelAliases(aliases map[string]string) Option {
	return func(o *Options) {
		o.ModelAliases = aliases
	}
}

// WithPermissionMode controls how the CLI handles tool permissions.
// Valid values: "default", "acceptEdits", "plan", "bypassPermissions", "dontAsk".
func WithPermissionMode(mode string) Option {
	return func(o *Options) {
		o.PermissionMode = mode
	}
}

// WithMaxTurns limits the number of agent turns per run.
func WithMaxTurns(maxTurns int) Option {
	return func(o *Options) {
		o.MaxTurns = maxTurns
	}
}

// WithEnv provides additional environment variables for the CLI process.
func WithEnv(env map[string]string) Option {
	return func(o *Options) {
		o.Env = env
	}
}

// ===== Tools =====

// WithAllowedTools sets pre-approved tools that can be used without prompting.
func WithAllowedTools(tools ...string) Option {
	return func(o *Options) {
		o.AllowedTools = tools
	}
}

// WithDisallowedTools sets tools that are explicitly blocked.
func WithDisallowedTools(tools ...string) Option {
	return func(o *Options) {
		o.DisallowedTools = tools
	}
}

// WithAddDirs grants the agent access to directories outside the project.
func WithAddDirs(dirs ...string) Option {
	return func(o *Options) {
		o.AddDirs = dirs
	}
}

// ===== Advanced =====

// WithAppendSystemPrompt appends text to the CLI's default system prompt.
func WithAppendSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.AppendSystemPrompt = prompt
	}
}

// WithExtraArgs provides arbitrary CLI flags to pass.
// A nil value is passed as a boolean flag.
func WithExtraArgs(args map[string]*string) Option {
	return func(o *Options) {
		o.ExtraArgs = args
	}
}

// WithStderr sets a callback receiving every stderr line with its session key.
func WithStderr(handler func(sessionKey, line string)) Option {
	return func(o *Options) {
		o.Stderr = handler
	}
}

// WithEventBuffer sets the per-subscriber channel capacity.
func WithEventBuffer(size int) Option {
	return func(o *Options) {
		o.EventBuffer = size
	}
}

// WithSink sets an additional receiver for every published event, such as
// a bridge to a UI's named channels.
func WithSink(sink func(key string, ev Event)) Option {
	return func(o *Options) {
		o.Sink = eventbus.SinkFunc(func(key string, ev message.Event) { sink(key, ev) })
	}
}

// WithConfigFile loads a TOML config file and applies it beneath the options
// set so far: explicitly set options win over the file. An empty path
// selects the default location. Load errors are reported by New's logger
// and otherwise ignored; use LoadConfig to handle them.
func WithConfigFile(path string) Option {
	return func(o *Options) {
		if path == "" {
			path = config.DefaultPath()
		}

		f, err := config.LoadFile(path)
		if err != nil {
			if o.Logger != nil {
				o.Logger.Warn("Ignoring config file", "path", path, "error", err)
			}

			return
		}

		if f != nil {
			f.ApplyEnv()
			f.Apply(o)
		}
	}
}

// ConfigFile is the TOML configuration file format.
type ConfigFile = config.File

// LoadConfig reads and validates a TOML config file. A missing file yields
// a nil file and no error.
func LoadConfig(path string) (*ConfigFile, error) {
	return config.LoadFile(path)
}
