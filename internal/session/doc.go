// Package session orchestrates Claude CLI runs: it validates requests, spawns
// the CLI, registers the process under a session key, pumps its output to
// the event sink and releases the registration when the output ends.
//
// A new session is registered under a temporary key ("temp-<uuid>") until
// the CLI announces its real session id. At that point the registration is
// moved to the real id in place, without restarting the process, and a
// SessionIDUpdated event is published under both keys.
package session
