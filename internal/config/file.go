package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variables that override the config file.
const (
	EnvConfigPath = "CLAUDE_SESSION_CONFIG"
	EnvCliPath    = "CLAUDE_SESSION_CLI_PATH"
	EnvModel      = "CLAUDE_SESSION_MODEL"
	EnvLogLevel   = "CLAUDE_SESSION_LOG_LEVEL"
)

// File is the on-disk TOML configuration of the session engine.
type File struct {
	CliPath            string            `toml:"cli_path"`
	Model              string            `toml:"model"`
	PermissionMode     string            `toml:"permission_mode"`
	MaxTurns           int               `toml:"max_turns"`
	AllowedTools       []string          `toml:"allowed_tools"`
	DisallowedTools    []string          `toml:"disallowed_tools"`
	AppendSystemPrompt string            `toml:"append_system_prompt"`
	AddDirs            []string          `toml:"add_dirs"`
	LogLevel           string            `toml:"log_level"`
	LogFormat          string            `toml:"log_format"`
	EventBuffer        int               `toml:"event_buffer"`
	Env                map[string]string `toml:"env"`
	// ExtraArgs maps flag names to values; an empty value is a boolean flag.
	ExtraArgs map[string]string `toml:"extra_args"`
	Aliases   map[string]string `toml:"aliases"`
}

// DefaultPath returns the config file location: $CLAUDE_SESSION_CONFIG if
// set, else claude-session/config.toml under the user config directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}

	return filepath.Join(dir, "claude-session", "config.toml")
}

// LoadFile reads and parses a config file.
// Returns (nil, nil) if the file is not present.
func LoadFile(path string) (*File, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("reading config: %w", err)
	}

	var f File

	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}

		return nil, fmt.Errorf("parsing config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return &f, nil
}

// Validate checks values that would otherwise fail later at spawn time.
func (f *File) Validate() error {
	if _, err := ValidatePermissionMode(f.PermissionMode); err != nil {
		return err
	}

	if f.MaxTurns < 0 {
		return fmt.Errorf("max_turns must not be negative, got %d", f.MaxTurns)
	}

	if f.EventBuffer < 0 {
		return fmt.Errorf("event_buffer must not be negative, got %d", f.EventBuffer)
	}

	if _, err := ParseLevel(f.LogLevel); err != nil {
		return err
	}

	switch f.LogFormat {
	case "", "text", "json":
	default:
		return fmt.Errorf("log_format must be text or json, got %q", f.LogFormat)
	}

	return nil
}

// ApplyEnv overrides file values with environment variables.
func (f *File) ApplyEnv() {
	if v := os.Getenv(EnvCliPath); v != "" {
		f.CliPath = v
	}

	if v := os.Getenv(EnvModel); v != "" {
		f.Model = v
	}

	if v := os.Getenv(EnvLogLevel); v != "" {
		f.LogLevel = v
	}
}

// Apply copies file values into o. Values already set on o win.
func (f *File) Apply(o *Options) {
	if o.CliPath == "" {
		o.CliPath = f.CliPath
	}

	if o.Model == "" {
		o.Model = f.Model
	}

	if o.PermissionMode == "" {
		o.PermissionMode = NormalizePermissionMode(f.PermissionMode)
	}

	if o.MaxTurns == 0 {
		o.MaxTurns = f.MaxTurns
	}

	if o.AllowedTools == nil {
		o.AllowedTools = f.AllowedTools
	}

	if o.DisallowedTools == nil {
		o.DisallowedTools = f.DisallowedTools
	}

	if o.AppendSystemPrompt == "" {
		o.AppendSystemPrompt = f.AppendSystemPrompt
	}

	o.AddDirs = append(o.AddDirs, f.AddDirs...)

	if o.EventBuffer == 0 {
		o.EventBuffer = f.EventBuffer
	}

	o.Env = mergeMissing(o.Env, f.Env)
	o.ModelAliases = mergeMissing(o.ModelAliases, f.Aliases)

	for k, v := range f.ExtraArgs {
		if o.ExtraArgs == nil {
			o.ExtraArgs = make(map[string]*string, len(f.ExtraArgs))
		}

		if _, ok := o.ExtraArgs[k]; ok {
			continue
		}

		if v == "" {
			o.ExtraArgs[k] = nil
		} else {
			o.ExtraArgs[k] = &v
		}
	}
}

// ParseLevel parses a log level name. The empty string is info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}

	if n, err := strconv.Atoi(s); err == nil {
		return slog.Level(n), nil
	}

	return 0, fmt.Errorf("unknown log level %q", s)
}

func mergeMissing(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}

	if dst == nil {
		dst = make(map[string]string, len(src))
	}

	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}

	return dst
}
