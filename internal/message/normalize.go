package message

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wagiedev/claude-session-go/internal/errors"
)

// Top-level line types emitted by the CLI in stream-json mode.
const (
	lineStreamEvent = "stream_event"
	lineAssistant   = "assistant"
	lineSystem      = "system"
	lineResult      = "result"
	lineError       = "error"
)

// lineKind identifies a handler by its top-level type and, for wrapped
// stream events, the nested event type.
type lineKind struct {
	top    string
	nested string
}

type handler func(raw map[string]any, state *ParseState) (Event, bool)

// handlers is the closed set of recognized line shapes. Lines whose kind is
// absent are skipped without touching state.
var handlers = map[lineKind]handler{
	{lineStreamEvent, "message_start"}:       onMessageStart,
	{lineStreamEvent, "content_block_delta"}: onContentBlockDelta,
	{lineStreamEvent, "message_stop"}:        onMessageStop,
	{lineAssistant, ""}:                      onAssistant,
	{lineResult, ""}:                         onResult,
	{lineError, ""}:                          onError,
	{lineSystem, ""}:                         skip,
}

// Decode parses one stdout line into a JSON object.
func Decode(line []byte) (map[string]any, error) {
	var raw map[string]any

	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, &errors.CLIJSONDecodeError{RawData: string(line), Err: err}
	}

	if raw == nil {
		return nil, &errors.CLIJSONDecodeError{
			RawData: string(line),
			Err:     fmt.Errorf("expected JSON object"),
		}
	}

	return raw, nil
}

// Kind returns a printable name for the line's shape, such as "assistant" or
// "stream_event/message_start". It is empty when the line has no type.
func Kind(raw map[string]any) string {
	kind, ok := classify(raw)
	if !ok {
		return ""
	}

	if kind.nested == "" {
		return kind.top
	}

	return kind.top + "/" + kind.nested
}

// Known reports whether the normalizer recognizes the line's shape.
func Known(raw map[string]any) bool {
	kind, ok := classify(raw)
	if !ok {
		return false
	}

	_, ok = handlers[kind]

	return ok
}

// Normalize converts one decoded line into at most one event, updating state.
// Unknown or malformed lines yield no event and leave state unchanged.
func Normalize(raw map[string]any, state *ParseState) (Event, bool) {
	if state == nil {
		return nil, false
	}

	kind, ok := classify(raw)
	if !ok {
		return nil, false
	}

	h, ok := handlers[kind]
	if !ok {
		return nil, false
	}

	return h(raw, state)
}

// NormalizeLine decodes and normalizes a single stdout line. Blank lines and
// undecodable lines yield no event; decode failures are returned.
func NormalizeLine(line []byte, state *ParseState) (Event, bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false, nil
	}

	raw, err := Decode(line)
	if err != nil {
		return nil, false, err
	}

	ev, ok := Normalize(raw, state)

	return ev, ok, nil
}

// SessionID extracts the CLI-assigned session id from a system line.
func SessionID(raw map[string]any) (string, bool) {
	if top, _ := raw["type"].(string); top != lineSystem {
		return "", false
	}

	id, ok := raw["session_id"].(string)
	if !ok || id == "" {
		return "", false
	}

	return id, true
}

// CloseSuperseded completes the open message when raw starts a message with
// a different id, so every message id gets its MessageComplete even when
// the CLI moves on without a stop or result line. Call it before Normalize
// for the same line. Lines that Normalize would not act on leave state alone.
func CloseSuperseded(raw map[string]any, state *ParseState) (Event, bool) {
	if state == nil || !state.Open() {
		return nil, false
	}

	kind, ok := classify(raw)
	if !ok {
		return nil, false
	}

	var id string

	switch kind {
	case lineKind{lineStreamEvent, "message_start"}:
		id = getString(getMap(getMap(raw, "event"), "message"), "id")
	case lineKind{top: lineAssistant}:
		msg := getMap(raw, "message")
		if text, ok := assistantText(msg); ok && text != "" {
			id = getString(msg, "id")
		}
	}

	if id == "" || id == state.CurrentMessageID {
		return nil, false
	}

	state.Completed = true

	return MessageComplete{
		MessageID: state.CurrentMessageID,
		Content:   state.AccumulatedContent,
	}, true
}

func classify(raw map[string]any) (lineKind, bool) {
	top, ok := raw["type"].(string)
	if !ok || top == "" {
		return lineKind{}, false
	}

	if top != lineStreamEvent {
		return lineKind{top: top}, true
	}

	ev, ok := raw["event"].(map[string]any)
	if !ok {
		return lineKind{}, false
	}

	nested, ok := ev["type"].(string)
	if !ok || nested == "" {
		return lineKind{}, false
	}

	return lineKind{top: top, nested: nested}, true
}

func skip(map[string]any, *ParseState) (Event, bool) {
	return nil, false
}

func onMessageStart(raw map[string]any, state *ParseState) (Event, bool) {
	msg := getMap(getMap(raw, "event"), "message")

	id := getString(msg, "id")
	if id == "" {
		return nil, false
	}

	state.reset(id)

	return MessageStart{MessageID: id}, true
}

func onContentBlockDelta(raw map[string]any, state *ParseState) (Event, bool) {
	delta := getMap(getMap(raw, "event"), "delta")

	text, ok := delta["text"].(string)
	if !ok || text == "" {
		return nil, false
	}

	if !state.Open() {
		return nil, false
	}

	state.AccumulatedContent += text

	return ContentDelta{MessageID: state.CurrentMessageID, Delta: text}, true
}

func onMessageStop(_ map[string]any, state *ParseState) (Event, bool) {
	if !state.Open() {
		return nil, false
	}

	state.Completed = true

	return MessageComplete{
		MessageID: state.CurrentMessageID,
		Content:   state.AccumulatedContent,
	}, true
}

// onAssistant handles full assistant messages. Without partial streaming the
// CLI sends one such line per content block, and some versions resend the
// whole text so far. Text that extends the accumulation emits only the new
// suffix; text already at the tail is ignored; anything else is a new block
// and is appended.
func onAssistant(raw map[string]any, state *ParseState) (Event, bool) {
	msg := getMap(raw, "message")

	id := getString(msg, "id")
	if id == "" {
		return nil, false
	}

	text, ok := assistantText(msg)
	if !ok || text == "" {
		return nil, false
	}

	switch {
	case state.CurrentMessageID != id:
		state.reset(id)
	case state.Completed:
		return nil, false
	}

	acc := state.AccumulatedContent

	var delta string

	switch {
	case strings.HasPrefix(text, acc):
		delta = text[len(acc):]
	case strings.HasSuffix(acc, text):
		return nil, false
	default:
		delta = text
	}

	if delta == "" {
		return nil, false
	}

	state.AccumulatedContent += delta

	return ContentDelta{MessageID: id, Delta: delta}, true
}

func onResult(_ map[string]any, state *ParseState) (Event, bool) {
	return Flush(state)
}

func onError(raw map[string]any, _ *ParseState) (Event, bool) {
	switch v := raw["error"].(type) {
	case string:
		if v != "" {
			return ErrorEvent{Message: v}, true
		}
	case map[string]any:
		if m := getString(v, "message"); m != "" {
			return ErrorEvent{Message: m}, true
		}
	}

	return ErrorEvent{Message: "Unknown error"}, true
}

// assistantText concatenates the text blocks of an assistant message.
// It reports false when the message carries no text block at all.
func assistantText(msg map[string]any) (string, bool) {
	blocks, ok := msg["content"].([]any)
	if !ok {
		return "", false
	}

	var (
		sb    strings.Builder
		found bool
	)

	for _, b := range blocks {
		block, ok := b.(map[string]any)
		if !ok {
			continue
		}

		if t, _ := block["type"].(string); t != "" && t != "text" {
			continue
		}

		text, ok := block["text"].(string)
		if !ok {
			continue
		}

		found = true

		sb.WriteString(text)
	}

	return sb.String(), found
}

func getMap(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)

	return v
}

func getString(m map[string]any, key string) string {
	v, _ := m[key].(string)

	return v
}
