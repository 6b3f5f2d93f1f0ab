// Package subprocess spawns the Claude CLI as a child process and exposes it
// as a killable, awaitable handle with separate stdout and stderr streams.
//
// Each process is started in its own process group on Unix so that killing
// a session also reaps any helpers the CLI started.
package subprocess
