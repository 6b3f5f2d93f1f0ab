package message

import (
	"encoding/json"
	"fmt"
)

// Event type discriminators used in the JSON form of events.
const (
	TypeMessageStart     = "messageStart"
	TypeContentDelta     = "contentDelta"
	TypeMessageComplete  = "messageComplete"
	TypeSessionIDUpdated = "sessionIdUpdated"
	TypeError            = "error"
)

// Event is a normalized, schema-independent unit of session progress.
// The set of implementations is closed; use a type switch to inspect one.
type Event interface {
	EventType() string
	event()
}

// Compile-time verification that all event types implement Event.
var (
	_ Event = MessageStart{}
	_ Event = ContentDelta{}
	_ Event = MessageComplete{}
	_ Event = SessionIDUpdated{}
	_ Event = ErrorEvent{}
)

// MessageStart opens an assistant message.
type MessageStart struct {
	MessageID string `json:"messageId"`
}

// EventType implements the Event interface.
func (MessageStart) EventType() string { return TypeMessageStart }

func (MessageStart) event() {}

// MarshalJSON implements json.Marshaler.
func (e MessageStart) MarshalJSON() ([]byte, error) {
	type wire MessageStart

	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeMessageStart, wire(e)})
}

// ContentDelta carries new text for an open message.
type ContentDelta struct {
	MessageID string `json:"messageId"`
	Delta     string `json:"delta"`
}

// EventType implements the Event interface.
func (ContentDelta) EventType() string { return TypeContentDelta }

func (ContentDelta) event() {}

// MarshalJSON implements json.Marshaler.
func (e ContentDelta) MarshalJSON() ([]byte, error) {
	type wire ContentDelta

	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeContentDelta, wire(e)})
}

// MessageComplete closes a message. Content is the concatenation of every
// ContentDelta emitted for the message, in order.
type MessageComplete struct {
	MessageID string `json:"messageId"`
	Content   string `json:"content"`
}

// EventType implements the Event interface.
func (MessageComplete) EventType() string { return TypeMessageComplete }

func (MessageComplete) event() {}

// MarshalJSON implements json.Marshaler.
func (e MessageComplete) MarshalJSON() ([]byte, error) {
	type wire MessageComplete

	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeMessageComplete, wire(e)})
}

// SessionIDUpdated announces that a temporary session key was replaced by the
// session id assigned by the CLI.
type SessionIDUpdated struct {
	TempID string `json:"tempId"`
	RealID string `json:"realId"`
}

// EventType implements the Event interface.
func (SessionIDUpdated) EventType() string { return TypeSessionIDUpdated }

func (SessionIDUpdated) event() {}

// MarshalJSON implements json.Marshaler.
func (e SessionIDUpdated) MarshalJSON() ([]byte, error) {
	type wire SessionIDUpdated

	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeSessionIDUpdated, wire(e)})
}

// ErrorEvent reports an error raised by the agent or by its process.
// It does not terminate the stream.
type ErrorEvent struct {
	Message string `json:"error"`
}

// EventType implements the Event interface.
func (ErrorEvent) EventType() string { return TypeError }

func (ErrorEvent) event() {}

// MarshalJSON implements json.Marshaler.
func (e ErrorEvent) MarshalJSON() ([]byte, error) {
	type wire ErrorEvent

	return json.Marshal(struct {
		Type string `json:"type"`
		wire
	}{TypeError, wire(e)})
}

// UnmarshalEvent decodes the JSON form produced by an event's MarshalJSON.
func UnmarshalEvent(data []byte) (Event, error) {
	var head struct {
		Type string `json:"type"`
	}

	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	var (
		ev  Event
		err error
	)

	switch head.Type {
	case TypeMessageStart:
		var e MessageStart
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeContentDelta:
		var e ContentDelta
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeMessageComplete:
		var e MessageComplete
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeSessionIDUpdated:
		var e SessionIDUpdated
		err = json.Unmarshal(data, &e)
		ev = e
	case TypeError:
		var e ErrorEvent
		err = json.Unmarshal(data, &e)
		ev = e
	default:
		return nil, fmt.Errorf("decode event: unknown type %q", head.Type)
	}

	if err != nil {
		return nil, fmt.Errorf("decode %s event: %w", head.Type, err)
	}

	return ev, nil
}
