// Package cli provides CLI discovery, version validation, and command building
// for the Claude Code CLI binary.
//
// # CLI Discovery
//
// The Discoverer interface locates and validates the Claude CLI binary:
//
//	discoverer := cli.NewDiscoverer(&cli.Config{
//	    CliPath: "",           // Optional explicit path
//	    Logger:  slog.Default(),
//	})
//	cliPath, err := discoverer.Discover(ctx)
//
// Discovery searches in the following order:
//  1. Explicit path in Config.CliPath (if provided)
//  2. System PATH
//  3. Common installation directories (/usr/local/bin, /usr/bin, ~/.local/bin, ~/.claude/local)
//
// During discovery, the CLI version is validated against MinimumVersion once
// per Discoverer. A warning is logged if the version is below minimum.
//
// # Command Building
//
// BuildCreateArgs and BuildResumeArgs produce the one-shot streaming
// invocation for a new or resumed session:
//
//	args := cli.BuildCreateArgs("hello", "claude-sonnet-4-5-20250929", options)
//	args := cli.BuildResumeArgs(sessionID, "and then?", options)
//	env := cli.BuildEnvironment(options)
package cli
