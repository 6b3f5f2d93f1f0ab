package cli

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/wagiedev/claude-session-go/internal/config"
)

// EntrypointEnv tells the CLI which integration launched it.
const EntrypointEnv = "CLAUDE_CODE_ENTRYPOINT"

// Entrypoint is the value of EntrypointEnv for processes spawned by the engine.
const Entrypoint = "session-go"

// BuildCreateArgs constructs the arguments for a new session. The model is
// passed as given; normalization happens before.
func BuildCreateArgs(message, model string, options *config.Options) []string {
	args := []string{
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--include-partial-messages",
	}

	if model != "" {
		args = append(args, "--model", model)
	}

	return appendCommon(args, message, options)
}

// BuildResumeArgs constructs the arguments to continue sessionID. The model
// is never overridden so the session keeps the one it was created with.
func BuildResumeArgs(sessionID, message string, options *config.Options) []string {
	args := []string{
		"--resume", sessionID,
		"--print",
		"--verbose",
		"--output-format", "stream-json",
		"--include-partial-messages",
	}

	return appendCommon(args, message, options)
}

// appendCommon adds the flags shared by create and resume, then the message
// after "--" so a message starting with a dash is not taken as a flag.
func appendCommon(args []string, message string, options *config.Options) []string {
	if options == nil {
		options = &config.Options{}
	}

	if options.PermissionMode != "" {
		args = append(args, "--permission-mode", config.NormalizePermissionMode(options.PermissionMode))
	}

	if options.MaxTurns > 0 {
		args = append(args, "--max-turns", strconv.Itoa(options.MaxTurns))
	}

	if options.AppendSystemPrompt != "" {
		args = append(args, "--append-system-prompt", options.AppendSystemPrompt)
	}

	if len(options.AllowedTools) > 0 {
		args = append(args, "--allowed-tools", strings.Join(options.AllowedTools, ","))
	}

	if len(options.DisallowedTools) > 0 {
		args = append(args, "--disallowed-tools", strings.Join(options.DisallowedTools, ","))
	}

	for _, dir := range options.AddDirs {
		args = append(args, "--add-dir", dir)
	}

	// Sorted so the command line is reproducible.
	for _, key := range slices.Sorted(maps.Keys(options.ExtraArgs)) {
		if value := options.ExtraArgs[key]; value == nil {
			args = append(args, "--"+key)
		} else {
			args = append(args, "--"+key, *value)
		}
	}

	return append(args, "--", message)
}

// BuildEnvironment constructs the environment variables for the CLI process.
func BuildEnvironment(options *config.Options) []string {
	env := os.Environ()
	env = append(env, EntrypointEnv+"="+Entrypoint)

	if options == nil {
		return env
	}

	for _, key := range slices.Sorted(maps.Keys(options.Env)) {
		env = append(env, fmt.Sprintf("%s=%s", key, options.Env[key]))
	}

	return env
}
