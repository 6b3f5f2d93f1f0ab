package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	claudesession "github.com/wagiedev/claude-session-go"
	"github.com/wagiedev/claude-session-go/internal/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logFormat  string
	cliPath    string
	model      string
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	root := &cobra.Command{
		Use:   "claude-sessiond",
		Short: "Run Claude CLI sessions and stream normalized events",
		Long: `claude-sessiond spawns the claude CLI in streaming JSON mode and turns
its output into a uniform event stream: messageStart, contentDelta,
messageComplete, sessionIdUpdated and error.

Configuration is read from a TOML file (--config, $CLAUDE_SESSION_CONFIG or
the user config directory). Flags override the file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file path")
	pf.StringVar(&g.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&g.logFormat, "log-format", "", "log format: text or json")
	pf.StringVar(&g.cliPath, "cli-path", "", "path to the claude binary")
	pf.StringVar(&g.model, "model", "", "default model alias or id")

	root.AddCommand(
		newRunCmd(&g),
		newServeCmd(&g),
		newModelsCmd(),
	)

	return root
}

// setup loads the config file and returns engine options and the logger.
// Logs always go to logOut; stdout is reserved for events or MCP traffic.
func setup(g *globalFlags, logOut io.Writer) ([]claudesession.Option, *slog.Logger, error) {
	path := g.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	f, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}

	if f == nil {
		f = &config.File{}
	}

	f.ApplyEnv()

	if g.logLevel != "" {
		f.LogLevel = g.logLevel
	}

	if g.logFormat != "" {
		f.LogFormat = g.logFormat
	}

	logger, err := claudesession.NewLogger(logOut, f.LogLevel, f.LogFormat)
	if err != nil {
		return nil, nil, err
	}

	if f.CliPath != "" || f.Model != "" {
		logger.Debug("Loaded config", "path", path)
	}

	opts := []claudesession.Option{
		claudesession.WithLogger(logger),
		claudesession.WithCliPath(g.cliPath),
		claudesession.WithModel(g.model),
		func(o *claudesession.Options) { f.Apply(o) },
	}

	return opts, logger, nil
}

