package message

import (
	"encoding/json"
	stderrors "errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claude-session-go/internal/errors"
)

// run feeds each line through CloseSuperseded and Normalize, as the stream
// reader does, then flushes, returning every event.
func run(t *testing.T, state *ParseState, lines ...string) []Event {
	t.Helper()

	var events []Event

	for _, line := range lines {
		raw, err := Decode([]byte(line))
		if err != nil {
			continue
		}

		if ev, ok := CloseSuperseded(raw, state); ok {
			events = append(events, ev)
		}

		if ev, ok := Normalize(raw, state); ok {
			events = append(events, ev)
		}
	}

	if ev, ok := Flush(state); ok {
		events = append(events, ev)
	}

	return events
}

func TestNormalize_WrappedSchema(t *testing.T) {
	state := &ParseState{}

	events := run(t, state,
		`{"type":"stream_event","event":{"type":"message_start","message":{"id":"m1"}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"Hi"}}}`,
		`{"type":"stream_event","event":{"type":"message_stop"}}`,
	)

	require.Equal(t, []Event{
		MessageStart{MessageID: "m1"},
		ContentDelta{MessageID: "m1", Delta: "Hi"},
		MessageComplete{MessageID: "m1", Content: "Hi"},
	}, events)
}

func TestNormalize_WrappedContentIsConcatenationOfDeltas(t *testing.T) {
	chunks := []string{"The ", "quick ", "brown ", "", "fox", " \"jumps\"\n", "done."}

	lines := []string{`{"type":"stream_event","event":{"type":"message_start","message":{"id":"msg_01"}}}`}

	for _, c := range chunks {
		b, err := json.Marshal(map[string]any{
			"type":  "stream_event",
			"event": map[string]any{"type": "content_block_delta", "delta": map[string]any{"text": c}},
		})
		require.NoError(t, err)

		lines = append(lines, string(b))
	}

	lines = append(lines, `{"type":"stream_event","event":{"type":"message_stop"}}`)

	events := run(t, &ParseState{}, lines...)

	var (
		sb        strings.Builder
		completes []MessageComplete
	)

	for _, ev := range events {
		switch e := ev.(type) {
		case ContentDelta:
			require.Equal(t, "msg_01", e.MessageID)
			sb.WriteString(e.Delta)
		case MessageComplete:
			completes = append(completes, e)
		}
	}

	require.Len(t, completes, 1)
	require.Equal(t, sb.String(), completes[0].Content)
	require.Equal(t, strings.Join(chunks, ""), completes[0].Content)
}

func TestNormalize_VerboseSchema(t *testing.T) {
	state := &ParseState{}

	events := run(t, state,
		`{"type":"system","session_id":"real-1"}`,
		`{"type":"assistant","message":{"id":"m2","content":[{"text":"Hello"}]}}`,
		`{"type":"result"}`,
	)

	require.Equal(t, []Event{
		ContentDelta{MessageID: "m2", Delta: "Hello"},
		MessageComplete{MessageID: "m2", Content: "Hello"},
	}, events)
	require.Equal(t, ParseState{}, *state)
}

func TestNormalize_VerboseCumulativeResend(t *testing.T) {
	events := run(t, &ParseState{},
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":"Hello"}]}}`,
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":"Hello, world"}]}}`,
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":"Hello, world"}]}}`,
		`{"type":"result","subtype":"success"}`,
	)

	require.Equal(t, []Event{
		ContentDelta{MessageID: "m1", Delta: "Hello"},
		ContentDelta{MessageID: "m1", Delta: ", world"},
		MessageComplete{MessageID: "m1", Content: "Hello, world"},
	}, events)
}

func TestNormalize_VerboseSeparateBlocks(t *testing.T) {
	events := run(t, &ParseState{},
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":"Let me check."}]}}`,
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"tool_use","id":"t1","name":"Read","input":{}}]}}`,
		`{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"t1"}]}}`,
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":" Found it."}]}}`,
		`{"type":"result"}`,
	)

	require.Equal(t, []Event{
		ContentDelta{MessageID: "m1", Delta: "Let me check."},
		ContentDelta{MessageID: "m1", Delta: " Found it."},
		MessageComplete{MessageID: "m1", Content: "Let me check. Found it."},
	}, events)
}

func TestNormalize_VerboseNewMessageCompletesPrevious(t *testing.T) {
	state := &ParseState{}

	events := run(t, state,
		`{"type":"assistant","message":{"id":"m1","content":[{"text":"Let me check"}]}}`,
		`{"type":"assistant","message":{"id":"m2","content":[{"text":"Done"}]}}`,
		`{"type":"result"}`,
	)

	require.Equal(t, []Event{
		ContentDelta{MessageID: "m1", Delta: "Let me check"},
		MessageComplete{MessageID: "m1", Content: "Let me check"},
		ContentDelta{MessageID: "m2", Delta: "Done"},
		MessageComplete{MessageID: "m2", Content: "Done"},
	}, events)
	require.Equal(t, ParseState{}, *state)
}

func TestNormalize_WrappedStartWithoutStopCompletesPrevious(t *testing.T) {
	events := run(t, &ParseState{},
		`{"type":"stream_event","event":{"type":"message_start","message":{"id":"m1"}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"a"}}}`,
		`{"type":"stream_event","event":{"type":"message_start","message":{"id":"m2"}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"b"}}}`,
		`{"type":"stream_event","event":{"type":"message_stop"}}`,
	)

	require.Equal(t, []Event{
		MessageStart{MessageID: "m1"},
		ContentDelta{MessageID: "m1", Delta: "a"},
		MessageComplete{MessageID: "m1", Content: "a"},
		MessageStart{MessageID: "m2"},
		ContentDelta{MessageID: "m2", Delta: "b"},
		MessageComplete{MessageID: "m2", Content: "b"},
	}, events)
}

func TestCloseSuperseded(t *testing.T) {
	tests := []struct {
		name  string
		state ParseState
		line  string
		want  Event
	}{
		{
			name:  "same id keeps message open",
			state: ParseState{CurrentMessageID: "m1", AccumulatedContent: "x"},
			line:  `{"type":"assistant","message":{"id":"m1","content":[{"text":"xy"}]}}`,
		},
		{
			name:  "completed message is not completed again",
			state: ParseState{CurrentMessageID: "m1", AccumulatedContent: "x", Completed: true},
			line:  `{"type":"assistant","message":{"id":"m2","content":[{"text":"y"}]}}`,
		},
		{
			name:  "no open message",
			line:  `{"type":"assistant","message":{"id":"m2","content":[{"text":"y"}]}}`,
		},
		{
			name:  "line without id",
			state: ParseState{CurrentMessageID: "m1"},
			line:  `{"type":"assistant","message":{"content":[{"text":"y"}]}}`,
		},
		{
			name:  "delta does not start a message",
			state: ParseState{CurrentMessageID: "m1"},
			line:  `{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"y"}}}`,
		},
		{
			name:  "new assistant id",
			state: ParseState{CurrentMessageID: "m1", AccumulatedContent: "x"},
			line:  `{"type":"assistant","message":{"id":"m2","content":[{"text":"y"}]}}`,
			want:  MessageComplete{MessageID: "m1", Content: "x"},
		},
		{
			name:  "new message_start id",
			state: ParseState{CurrentMessageID: "m1", AccumulatedContent: "x"},
			line:  `{"type":"stream_event","event":{"type":"message_start","message":{"id":"m2"}}}`,
			want:  MessageComplete{MessageID: "m1", Content: "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := Decode([]byte(tt.line))
			require.NoError(t, err)

			state := tt.state
			ev, ok := CloseSuperseded(raw, &state)

			if tt.want == nil {
				require.False(t, ok)
				require.Equal(t, tt.state, state)

				return
			}

			require.True(t, ok)
			require.Equal(t, tt.want, ev)
			require.True(t, state.Completed)
		})
	}
}

func TestNormalize_MixedDialectsCompleteOnce(t *testing.T) {
	events := run(t, &ParseState{},
		`{"type":"system","subtype":"init","session_id":"abc"}`,
		`{"type":"stream_event","event":{"type":"message_start","message":{"id":"m1"}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"Hel"}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"type":"text_delta","text":"lo"}}}`,
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":"Hello"}]}}`,
		`{"type":"stream_event","event":{"type":"message_stop"}}`,
		`{"type":"assistant","message":{"id":"m1","content":[{"type":"text","text":"Hello"}]}}`,
		`{"type":"result"}`,
	)

	require.Equal(t, []Event{
		MessageStart{MessageID: "m1"},
		ContentDelta{MessageID: "m1", Delta: "Hel"},
		ContentDelta{MessageID: "m1", Delta: "lo"},
		MessageComplete{MessageID: "m1", Content: "Hello"},
	}, events)
}

func TestNormalize_MalformedLinesDoNotMutateState(t *testing.T) {
	lines := []string{
		`not json at all`,
		`{"broken":`,
		`[1,2,3]`,
		`null`,
		`"text"`,
		`{}`,
		`{"type":42}`,
		`{"type":""}`,
		`{"type":"unknown_kind"}`,
		`{"type":"user","message":{"content":"echo"}}`,
		`{"type":"stream_event"}`,
		`{"type":"stream_event","event":"nope"}`,
		`{"type":"stream_event","event":{"type":"content_block_start"}}`,
		`{"type":"stream_event","event":{"type":"message_start"}}`,
		`{"type":"stream_event","event":{"type":"message_start","message":{"id":""}}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta"}}`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"partial_json":"{}"}}}`,
		`{"type":"assistant"}`,
		`{"type":"assistant","message":{"content":[{"text":"no id"}]}}`,
		`{"type":"assistant","message":{"id":"m9","content":"flat"}}`,
		`{"type":"assistant","message":{"id":"m9","content":[{"type":"tool_use"}]}}`,
		`{"type":"system","session_id":"s"}`,
	}

	initial := ParseState{CurrentMessageID: "m1", AccumulatedContent: "partial"}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			state := initial

			if raw, err := Decode([]byte(line)); err == nil {
				_, superseded := CloseSuperseded(raw, &state)
				require.False(t, superseded)
			}

			ev, ok, _ := NormalizeLine([]byte(line), &state)

			require.False(t, ok)
			require.Nil(t, ev)
			require.Equal(t, initial, state)
		})
	}
}

func TestNormalize_GarbageLineInterleaved(t *testing.T) {
	events := run(t, &ParseState{},
		`{"type":"stream_event","event":{"type":"message_start","message":{"id":"m1"}}}`,
		`this is not json`,
		`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"ok"}}}`,
		`{"type":"stream_event","event":{"type":"message_stop"}}`,
	)

	require.Equal(t, []Event{
		MessageStart{MessageID: "m1"},
		ContentDelta{MessageID: "m1", Delta: "ok"},
		MessageComplete{MessageID: "m1", Content: "ok"},
	}, events)
}

func TestNormalize_DeltaWithoutOpenMessageIsIgnored(t *testing.T) {
	state := &ParseState{}

	ev, ok := Normalize(map[string]any{
		"type":  "stream_event",
		"event": map[string]any{"type": "content_block_delta", "delta": map[string]any{"text": "orphan"}},
	}, state)

	require.False(t, ok)
	require.Nil(t, ev)
	require.Equal(t, ParseState{}, *state)
}

func TestNormalize_MessageStopKeepsState(t *testing.T) {
	state := &ParseState{}

	_, _, _ = NormalizeLine([]byte(`{"type":"stream_event","event":{"type":"message_start","message":{"id":"m1"}}}`), state)
	_, _, _ = NormalizeLine([]byte(`{"type":"stream_event","event":{"type":"content_block_delta","delta":{"text":"x"}}}`), state)
	_, ok, _ := NormalizeLine([]byte(`{"type":"stream_event","event":{"type":"message_stop"}}`), state)
	require.True(t, ok)

	require.Equal(t, ParseState{CurrentMessageID: "m1", AccumulatedContent: "x", Completed: true}, *state)

	_, ok, _ = NormalizeLine([]byte(`{"type":"stream_event","event":{"type":"message_stop"}}`), state)
	require.False(t, ok, "second stop must not complete again")
}

func TestNormalize_ErrorLines(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{"string field", `{"type":"error","error":"rate limited"}`, "rate limited"},
		{"object field", `{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`, "Overloaded"},
		{"missing field", `{"type":"error"}`, "Unknown error"},
		{"empty string", `{"type":"error","error":""}`, "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := &ParseState{CurrentMessageID: "m1", AccumulatedContent: "abc"}

			ev, ok, err := NormalizeLine([]byte(tt.line), state)

			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, ErrorEvent{Message: tt.want}, ev)
			require.Equal(t, "abc", state.AccumulatedContent)
		})
	}
}

func TestFlush(t *testing.T) {
	t.Run("open message completes once", func(t *testing.T) {
		state := &ParseState{CurrentMessageID: "m1", AccumulatedContent: "interrupted"}

		ev, ok := Flush(state)
		require.True(t, ok)
		require.Equal(t, MessageComplete{MessageID: "m1", Content: "interrupted"}, ev)

		ev, ok = Flush(state)
		require.False(t, ok)
		require.Nil(t, ev)
	})

	t.Run("completed message is not repeated", func(t *testing.T) {
		state := &ParseState{CurrentMessageID: "m1", AccumulatedContent: "x", Completed: true}

		_, ok := Flush(state)
		require.False(t, ok)
		require.Equal(t, ParseState{}, *state)
	})

	t.Run("empty state", func(t *testing.T) {
		_, ok := Flush(&ParseState{})
		require.False(t, ok)
	})

	t.Run("nil state", func(t *testing.T) {
		_, ok := Flush(nil)
		require.False(t, ok)
	})
}

func TestNormalizeLine_SkipsBlankLines(t *testing.T) {
	for _, line := range []string{"", "   ", "\t\r\n"} {
		ev, ok, err := NormalizeLine([]byte(line), &ParseState{})

		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, ev)
	}
}

func TestDecode(t *testing.T) {
	raw, err := Decode([]byte(`{"type":"system","session_id":"abc"}`))
	require.NoError(t, err)
	require.Equal(t, "system", raw["type"])

	for _, line := range []string{`{"type":`, `null`, `[]`} {
		_, err := Decode([]byte(line))

		decodeErr, ok := stderrors.AsType[*errors.CLIJSONDecodeError](err)
		require.True(t, ok, "line %q", line)
		require.Equal(t, line, decodeErr.RawData)
	}
}

func TestSessionID(t *testing.T) {
	tests := []struct {
		name   string
		raw    map[string]any
		want   string
		wantOK bool
	}{
		{"system line", map[string]any{"type": "system", "session_id": "real-1"}, "real-1", true},
		{"empty id", map[string]any{"type": "system", "session_id": ""}, "", false},
		{"missing id", map[string]any{"type": "system"}, "", false},
		{"non-string id", map[string]any{"type": "system", "session_id": 7}, "", false},
		{"result line", map[string]any{"type": "result", "session_id": "real-1"}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SessionID(tt.raw)

			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestKindAndKnown(t *testing.T) {
	wrapped := map[string]any{"type": "stream_event", "event": map[string]any{"type": "message_start"}}
	require.Equal(t, "stream_event/message_start", Kind(wrapped))
	require.True(t, Known(wrapped))

	require.Equal(t, "user", Kind(map[string]any{"type": "user"}))
	require.False(t, Known(map[string]any{"type": "user"}))
	require.True(t, Known(map[string]any{"type": "system"}))
	require.Empty(t, Kind(map[string]any{}))
}

func TestEventJSON(t *testing.T) {
	tests := []struct {
		ev   Event
		want string
	}{
		{MessageStart{MessageID: "m1"}, `{"type":"messageStart","messageId":"m1"}`},
		{ContentDelta{MessageID: "m1", Delta: "Hi"}, `{"type":"contentDelta","messageId":"m1","delta":"Hi"}`},
		{MessageComplete{MessageID: "m1", Content: "Hi"}, `{"type":"messageComplete","messageId":"m1","content":"Hi"}`},
		{SessionIDUpdated{TempID: "temp-1", RealID: "real-1"}, `{"type":"sessionIdUpdated","tempId":"temp-1","realId":"real-1"}`},
		{ErrorEvent{Message: "boom"}, `{"type":"error","error":"boom"}`},
	}

	for _, tt := range tests {
		t.Run(tt.ev.EventType(), func(t *testing.T) {
			b, err := json.Marshal(tt.ev)
			require.NoError(t, err)
			require.JSONEq(t, tt.want, string(b))

			back, err := UnmarshalEvent(b)
			require.NoError(t, err)
			require.Equal(t, tt.ev, back)
		})
	}

	_, err := UnmarshalEvent([]byte(`{"type":"bogus"}`))
	require.Error(t, err)
}
