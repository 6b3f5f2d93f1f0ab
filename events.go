package claudesession

import (
	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/message"
	"github.com/wagiedev/claude-session-go/internal/session"
)

// Event is a normalized unit of session progress. Use a type switch over
// the concrete event types.
type Event = message.Event

// Event types.
type (
	// MessageStart opens an assistant message.
	MessageStart = message.MessageStart

	// ContentDelta carries new text for an open message.
	ContentDelta = message.ContentDelta

	// MessageComplete closes a message with its full content.
	MessageComplete = message.MessageComplete

	// SessionIDUpdated announces that a temporary key was replaced by the
	// CLI's session id.
	SessionIDUpdated = message.SessionIDUpdated

	// ErrorEvent reports an agent or process error.
	ErrorEvent = message.ErrorEvent
)

// Envelope is an event addressed to a session key.
type Envelope = eventbus.Envelope

// EventPage is a slice of a session's journaled events.
type EventPage = eventbus.Page

// CreateRequest starts a new session.
type CreateRequest = session.CreateRequest

// ResumeRequest continues an existing session.
type ResumeRequest = session.ResumeRequest

// SessionInfo describes one run of a session.
type SessionInfo = session.Info

// SessionState is the lifecycle state of a run.
type SessionState = session.State

// Session states.
const (
	StateUnknown   = session.StateUnknown
	StateSpawning  = session.StateSpawning
	StateStreaming = session.StateStreaming
	StateCompleted = session.StateCompleted
	StateCancelled = session.StateCancelled
	StateFailed    = session.StateFailed
)

// UnmarshalEvent decodes the JSON form of an event.
func UnmarshalEvent(data []byte) (Event, error) {
	return message.UnmarshalEvent(data)
}

// ChannelName returns the named channel UIs listen on for a session key.
func ChannelName(key string) string {
	return eventbus.ChannelName(key)
}

// IsTempKey reports whether key is a temporary key returned by Create.
func IsTempKey(key string) bool {
	return session.IsTempKey(key)
}
