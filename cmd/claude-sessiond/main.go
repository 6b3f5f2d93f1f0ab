// Command claude-sessiond runs Claude CLI sessions and streams their
// normalized events, either one run at a time or as an MCP server.
package main

import (
	"os"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
