package session

import (
	"fmt"
	"time"
)

// State is the lifecycle state of one run.
type State int

const (
	// StateUnknown means the key is not tracked.
	StateUnknown State = iota
	// StateSpawning means the process is being started.
	StateSpawning
	// StateStreaming means the process is registered and its output is read.
	StateStreaming
	// StateCompleted means the output ended on its own.
	StateCompleted
	// StateCancelled means the process was killed by Cancel or Shutdown.
	StateCancelled
	// StateFailed means the process could not be started or registered.
	StateFailed
)

var stateNames = [...]string{
	StateUnknown:   "unknown",
	StateSpawning:  "spawning",
	StateStreaming: "streaming",
	StateCompleted: "completed",
	StateCancelled: "cancelled",
	StateFailed:    "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}

	return stateNames[s]
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateCancelled || s == StateFailed
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)

			return nil
		}
	}

	return fmt.Errorf("unknown session state %q", text)
}

// canTransition reports whether from -> to is a legal move.
func canTransition(from, to State) bool {
	switch from {
	case StateSpawning:
		return to == StateStreaming || to == StateCancelled || to == StateFailed
	case StateStreaming:
		return to == StateCompleted || to == StateCancelled
	default:
		return false
	}
}

// Info describes one run.
type Info struct {
	// Key is the current session key: the real id once known.
	Key string `json:"sessionKey"`
	// TempKey is the temporary key of a created session, kept after
	// reconciliation.
	TempKey string `json:"tempKey,omitempty"`
	// Resumed reports whether the run continues an existing session.
	Resumed     bool      `json:"resumed"`
	ProjectPath string    `json:"projectPath"`
	Model       string    `json:"model,omitempty"`
	State       State     `json:"state"`
	Pid         int       `json:"pid,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	EndedAt     time.Time `json:"endedAt,omitzero"`
	// ExitCode is the CLI exit code once reaped; -1 if killed by a signal.
	ExitCode int `json:"exitCode"`
	// Error describes why the run failed or exited unsuccessfully.
	Error string `json:"error,omitempty"`
}

// Matches reports whether key names this run, by real or temporary key.
func (i Info) Matches(key string) bool {
	return key != "" && (i.Key == key || i.TempKey == key)
}
