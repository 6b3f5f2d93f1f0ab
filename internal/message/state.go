package message

// ParseState tracks the assistant message currently being streamed by one
// session. Each session owns exactly one ParseState; it is never shared.
type ParseState struct {
	// CurrentMessageID is the id of the open message, or empty when none is open.
	CurrentMessageID string
	// AccumulatedContent is the concatenation of every delta emitted for
	// CurrentMessageID so far.
	AccumulatedContent string
	// Completed reports whether MessageComplete was already emitted for
	// CurrentMessageID.
	Completed bool
}

// Open reports whether a message is open and not yet completed.
func (s *ParseState) Open() bool {
	return s.CurrentMessageID != "" && !s.Completed
}

func (s *ParseState) reset(id string) {
	s.CurrentMessageID = id
	s.AccumulatedContent = ""
	s.Completed = false
}

func (s *ParseState) clear() {
	s.reset("")
}

// Flush closes the open message, if any, and clears the state. It is called
// once when the stream ends so an interrupted message still completes.
func Flush(state *ParseState) (Event, bool) {
	if state == nil {
		return nil, false
	}

	defer state.clear()

	if !state.Open() {
		return nil, false
	}

	return MessageComplete{
		MessageID: state.CurrentMessageID,
		Content:   state.AccumulatedContent,
	}, true
}
