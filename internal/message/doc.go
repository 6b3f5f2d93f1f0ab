// Package message normalizes the Claude CLI stream-json protocol into a small
// closed set of events.
//
// The CLI emits two dialects: wrapped partial events ("stream_event" lines
// carrying message_start, content_block_delta and message_stop) when partial
// messages are enabled, and whole "assistant" lines otherwise. Normalize
// folds both into MessageStart, ContentDelta, MessageComplete and ErrorEvent
// while tracking per-session progress in a ParseState, so that each message
// completes exactly once and its content equals the concatenated deltas.
package message
