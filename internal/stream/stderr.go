package stream

import (
	"strings"
	"sync"
)

// stderrBuffer keeps stderr output for error reporting. It stops growing
// once it reaches maxStderrBufferSize; later lines are still forwarded to
// the callback but not buffered.
type stderrBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *stderrBuffer) add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.buf.Len() >= maxStderrBufferSize {
		return
	}

	if b.buf.Len() > 0 {
		b.buf.WriteString("\n")
	}

	b.buf.WriteString(line)
}

func (b *stderrBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return cleanStderr(b.buf.String())
}

// cleanStderr drops the minified source context the CLI runtime prints with
// uncaught errors, keeping the error message and stack trace.
func cleanStderr(stderr string) string {
	if stderr == "" {
		return ""
	}

	var cleaned strings.Builder

	for line := range strings.SplitSeq(stderr, "\n") {
		if isSourceContextLine(strings.TrimSpace(line)) {
			continue
		}

		if cleaned.Len() > 0 {
			cleaned.WriteString("\n")
		}

		cleaned.WriteString(line)
	}

	return strings.TrimSpace(cleaned.String())
}

// isSourceContextLine reports whether line looks like "1234 | <code>".
func isSourceContextLine(line string) bool {
	pipeIdx := strings.Index(line, "|")
	if pipeIdx < 1 {
		return false
	}

	prefix := strings.TrimSpace(line[:pipeIdx])
	if prefix == "" {
		return false
	}

	for _, ch := range prefix {
		if ch < '0' || ch > '9' {
			return false
		}
	}

	return true
}
