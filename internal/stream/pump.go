package stream

import (
	"bufio"
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/message"
)

const (
	// maxLineSize is the largest stdout line the pump will decode. Longer
	// lines are skipped without ending the stream.
	maxLineSize = 1024 * 1024 // 1MB
	// maxStderrBufferSize caps the stderr kept for error reporting.
	maxStderrBufferSize = 10 * 1024 * 1024 // 10MB
)

// Config configures a Pump.
type Config struct {
	// Key is the session key events are initially published under.
	Key string
	// Stdout is the subprocess's stdout. Required.
	Stdout io.Reader
	// Stderr is the subprocess's stderr. Optional.
	Stderr io.Reader
	// Sink receives every normalized event. Required.
	Sink eventbus.Sink
	// OnSessionID is called for each system line carrying a session id and
	// returns the key to publish under from then on.
	OnSessionID func(id string) string
	// OnStderr receives every stderr line.
	OnStderr func(line string)
}

// Result summarizes a finished pump.
type Result struct {
	// Key is the session key active when stdout closed.
	Key string
	// Stderr is the buffered and cleaned stderr output.
	Stderr string
	// Lines counts non-blank stdout lines read.
	Lines int
	// Events counts events published, including the final flush.
	Events int
	// Skipped counts lines that could not be decoded.
	Skipped int
	// Err is a read error other than EOF, if any.
	Err error
}

// Pump drives one subprocess's output into a sink. A Pump is single use.
type Pump struct {
	log *slog.Logger
	cfg Config

	key    string
	state  message.ParseState
	stderr stderrBuffer
}

// New creates a pump for cfg.
func New(log *slog.Logger, cfg Config) *Pump {
	return &Pump{
		log: log.With("component", "stream_pump"),
		cfg: cfg,
		key: cfg.Key,
	}
}

// Run reads until stdout reaches EOF, then flushes any open message and
// returns. Stderr is drained concurrently and Run also waits for it to
// close. Canceling ctx stops processing at the next line boundary; lines
// already read are discarded.
func (p *Pump) Run(ctx context.Context) Result {
	var res Result

	g, ctx := errgroup.WithContext(ctx)

	if p.cfg.Stderr != nil {
		g.Go(func() error {
			p.drainStderr(ctx)

			return nil
		})
	}

	g.Go(func() error {
		res = p.readStdout(ctx)

		return nil
	})

	_ = g.Wait()

	res.Stderr = p.stderr.String()

	return res
}

func (p *Pump) readStdout(ctx context.Context) Result {
	log := p.log.With("session_key", p.cfg.Key)

	var res Result

	publish := func(ev message.Event) {
		p.cfg.Sink.Publish(p.key, ev)
		res.Events++
	}

	err := readLines(p.cfg.Stdout, maxLineSize, func(line []byte) bool {
		if ctx.Err() != nil {
			log.Debug("Context cancelled, discarding remaining output", "error", ctx.Err())

			return false
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			return true
		}

		res.Lines++

		raw, err := message.Decode(line)
		if err != nil {
			res.Skipped++

			log.Debug("Skipping undecodable line", "error", err)

			return true
		}

		if id, ok := message.SessionID(raw); ok && p.cfg.OnSessionID != nil {
			if next := p.cfg.OnSessionID(id); next != "" && next != p.key {
				log.Debug("Switching session key", "old_key", p.key, "new_key", next)
				p.key = next
			}
		}

		if ev, ok := message.CloseSuperseded(raw, &p.state); ok {
			publish(ev)
		}

		if ev, ok := message.Normalize(raw, &p.state); ok {
			publish(ev)
		} else if !message.Known(raw) {
			log.Debug("Ignoring line", "line_type", message.Kind(raw))
		}

		return true
	}, func() {
		res.Skipped++

		log.Warn("Skipping oversized line", "max_bytes", maxLineSize)
	})
	if err != nil {
		log.Debug("Stdout read ended with error", "error", err)

		res.Err = err
	}

	if ev, ok := message.Flush(&p.state); ok {
		publish(ev)
	}

	res.Key = p.key

	log.Debug("Stdout closed", "lines", res.Lines, "events", res.Events, "skipped", res.Skipped)

	return res
}

// drainStderr reads stderr until EOF. It never stops early: a child blocked
// on a full stderr pipe would never close stdout.
func (p *Pump) drainStderr(ctx context.Context) {
	err := readLines(p.cfg.Stderr, maxLineSize, func(b []byte) bool {
		line := string(b)

		p.stderr.add(line)

		if ctx.Err() == nil {
			p.log.Debug("CLI stderr", "session_key", p.cfg.Key, "line", line)
		}

		if p.cfg.OnStderr != nil {
			p.cfg.OnStderr(line)
		}

		return true
	}, func() {
		p.log.Debug("Skipping oversized stderr line", "session_key", p.cfg.Key, "max_bytes", maxLineSize)
	})
	if err != nil {
		p.log.Debug("Stderr read error", "error", err)

		_, _ = io.Copy(io.Discard, p.cfg.Stderr)
	}
}

// readLines calls fn for every newline-terminated line of r, and for a final
// unterminated line. Lines longer than limit are dropped and reported through
// oversized. fn returning false stops reading. The slice passed to fn is only
// valid for the duration of the call.
func readLines(r io.Reader, limit int, fn func([]byte) bool, oversized func()) error {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		buf     []byte
		tooLong bool
	)

	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if stderrors.Is(err, io.EOF) {
				return nil
			}

			return err
		}

		if !tooLong {
			if len(buf)+len(chunk) > limit {
				tooLong = true
				buf = buf[:0]
			} else {
				buf = append(buf, chunk...)
			}
		}

		if isPrefix {
			continue
		}

		if tooLong {
			oversized()
		} else if !fn(buf) {
			return nil
		}

		buf = buf[:0]
		tooLong = false
	}
}
