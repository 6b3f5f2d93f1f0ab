package claudesession

import (
	"context"
	"iter"
	"log/slog"
	"sync"

	"github.com/wagiedev/claude-session-go/internal/eventbus"
	"github.com/wagiedev/claude-session-go/internal/session"
)

// Engine runs Claude CLI sessions and publishes their events.
// It is safe for concurrent use.
type Engine struct {
	log     *slog.Logger
	bus     *eventbus.Bus
	journal *eventbus.Journal
	orch    *session.Orchestrator
}

// New creates an engine.
func New(opts ...Option) *Engine {
	options := applyOptions(opts)

	log := options.Logger
	if log == nil {
		log = NopLogger()
		options.Logger = log
	}

	bus := eventbus.New(log, options.EventBuffer)
	journal := eventbus.NewJournal(0, 0)

	return &Engine{
		log:     log.With("component", "engine"),
		bus:     bus,
		journal: journal,
		orch:    session.New(options, eventbus.Fanout(bus, journal, options.Sink)),
	}
}

// Create starts a new session and returns its temporary key. The CLI
// process is running when Create returns; its events follow on the bus.
func (e *Engine) Create(ctx context.Context, req CreateRequest) (string, error) {
	return e.orch.Create(ctx, req)
}

// Resume continues an existing session. Its events are published under
// req.SessionID.
func (e *Engine) Resume(ctx context.Context, req ResumeRequest) error {
	return e.orch.Resume(ctx, req)
}

// Cancel kills the process running under key, which may be a temporary or
// a real key. It returns ErrNotRunning when no process runs under key.
func (e *Engine) Cancel(ctx context.Context, key string) error {
	return e.orch.Cancel(ctx, key)
}

// State returns the state of the most recent run known under key.
func (e *Engine) State(key string) SessionState {
	return e.orch.State(key)
}

// Info returns the most recent run known under key.
func (e *Engine) Info(key string) (SessionInfo, bool) {
	return e.orch.Info(key)
}

// Sessions returns every tracked run, oldest first.
func (e *Engine) Sessions() []SessionInfo {
	return e.orch.Sessions()
}

// Running returns the keys of live CLI processes.
func (e *Engine) Running() []string {
	return e.orch.Running()
}

// Subscribe returns a channel of events published under key. Call
// unsubscribe to release it. A reconciled session continues under its real
// id, announced by SessionIDUpdated.
// Events are dropped when the channel is full; Stream never drops.
func (e *Engine) Subscribe(key string) (events <-chan Envelope, unsubscribe func()) {
	return e.bus.Subscribe(key)
}

// SubscribeAll returns a channel of every published event.
func (e *Engine) SubscribeAll() (events <-chan Envelope, unsubscribe func()) {
	return e.bus.SubscribeAll()
}

// Since returns journaled events for key starting at cursor. Pass the
// returned page's Next as the following cursor.
func (e *Engine) Since(key string, cursor int) EventPage {
	return e.journal.Since(key, cursor)
}

// Dropped returns the number of events lost by slow subscribers.
func (e *Engine) Dropped() uint64 {
	return e.bus.Dropped()
}

// Stream creates a session and yields its events until the run ends.
// Every event of the run is yielded, however slowly the caller reads. The
// SessionIDUpdated event is yielded once, and later events carry the real
// key. Stopping the iteration early or canceling ctx cancels the session.
func (e *Engine) Stream(ctx context.Context, req CreateRequest) iter.Seq2[Envelope, error] {
	return func(yield func(Envelope, error) bool) {
		filter := &keyFilter{keys: make(map[string]bool), renames: make(map[string]string)}

		q := e.bus.Follow(filter.match)
		defer q.Close()

		key, err := e.orch.Create(ctx, req)
		if err != nil {
			yield(Envelope{}, err)

			return
		}

		filter.pin(key)

		e.follow(ctx, key, q, yield)
	}
}

// ResumeStream resumes a session and yields its events until the run ends.
// Stopping the iteration early or canceling ctx cancels the session.
func (e *Engine) ResumeStream(ctx context.Context, req ResumeRequest) iter.Seq2[Envelope, error] {
	return func(yield func(Envelope, error) bool) {
		q := e.bus.Follow(func(env Envelope) bool { return env.Key == req.SessionID })
		defer q.Close()

		if err := e.orch.Resume(ctx, req); err != nil {
			yield(Envelope{}, err)

			return
		}

		e.follow(ctx, req.SessionID, q, yield)
	}
}

// keyFilter selects the events of one run before its key is known. Until
// pin it accepts everything and remembers reconciliations; afterwards it
// accepts the pinned key and the real key it was reconciled to.
type keyFilter struct {
	mu      sync.Mutex
	pinned  bool
	keys    map[string]bool
	renames map[string]string
}

func (f *keyFilter) match(env Envelope) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := env.Event.(SessionIDUpdated); ok {
		if f.pinned {
			if f.keys[u.TempID] {
				f.keys[u.RealID] = true
			}
		} else {
			f.renames[u.TempID] = u.RealID
		}
	}

	return !f.pinned || f.keys[env.Key]
}

func (f *keyFilter) pin(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pinned = true
	f.keys[key] = true

	if realID, ok := f.renames[key]; ok {
		f.keys[realID] = true
	}

	f.renames = nil
}

// follow yields events for key, and for the real id once announced, until
// the run finishes. Events queued when the run finishes are still
// delivered.
func (e *Engine) follow(ctx context.Context, key string, q *eventbus.Queue, yield func(Envelope, error) bool) {
	done, ok := e.orch.Done(key)
	if !ok {
		return
	}

	keys := map[string]bool{key: true}

	deliver := func(env Envelope) bool {
		if !keys[env.Key] {
			return true
		}

		if u, ok := env.Event.(SessionIDUpdated); ok {
			// Published under both keys; yield only the first copy.
			if env.Key == u.RealID && keys[u.TempID] {
				return true
			}

			keys[u.RealID] = true
		}

		return yield(env, nil)
	}

	stop := func() {
		if err := e.orch.Cancel(context.WithoutCancel(ctx), key); err != nil {
			e.log.Debug("Stream stopped after run ended", "session_id", key, "error", err)
		}
	}

	events := q.Events()

	for {
		select {
		case <-ctx.Done():
			stop()
			yield(Envelope{}, ctx.Err())

			return
		case env, open := <-events:
			if !open {
				return
			}

			if !deliver(env) {
				stop()

				return
			}
		case <-done:
			// The run publishes nothing after done closes.
			q.Seal()

			for env := range events {
				if !deliver(env) {
					return
				}
			}

			return
		}
	}
}

// Wait blocks until every run started so far has finished streaming.
func (e *Engine) Wait() {
	e.orch.Wait()
}

// Shutdown kills every live CLI process, waits for their streams to end or
// for ctx to be done, and closes all subscriptions.
func (e *Engine) Shutdown(ctx context.Context) error {
	err := e.orch.Shutdown(ctx)

	e.bus.Close()

	return err
}
