// Package stream pumps a Claude CLI subprocess's output into normalized
// session events.
//
// A Pump reads stdout line by line, feeds each line through the message
// normalizer and publishes the resulting events under the session's current
// key. Stderr is drained concurrently for diagnostics and never parsed as
// protocol.
package stream
