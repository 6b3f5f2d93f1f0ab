// Package eventbus delivers normalized session events to in-process
// subscribers, keyed by session id.
package eventbus

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/oklog/ulid/v2"

	"github.com/wagiedev/claude-session-go/internal/message"
)

// ChannelPrefix prefixes the per-session channel name.
const ChannelPrefix = "session-stream:"

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 256

// ChannelName returns the named channel a UI listens on for key.
func ChannelName(key string) string {
	return ChannelPrefix + key
}

// Sink receives events published for a session key. Publish must not block
// for long; it is called from the stream reader.
type Sink interface {
	Publish(key string, ev message.Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(key string, ev message.Event)

// Publish implements Sink.
func (f SinkFunc) Publish(key string, ev message.Event) { f(key, ev) }

// Fanout publishes every event to each non-nil sink in order.
func Fanout(sinks ...Sink) Sink {
	live := make([]Sink, 0, len(sinks))

	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}

	return SinkFunc(func(key string, ev message.Event) {
		for _, s := range live {
			s.Publish(key, ev)
		}
	})
}

// Envelope is one event addressed to a session key.
type Envelope struct {
	Key   string        `json:"sessionKey"`
	Event message.Event `json:"event"`
}

// Channel returns the named channel for the envelope's key.
func (e Envelope) Channel() string {
	return ChannelName(e.Key)
}

type subscription struct {
	key string // empty means all keys
	ch  chan Envelope
}

// Bus is an in-process pub/sub bus. Publishing never blocks: when a
// Subscribe channel is full the event is dropped for that subscriber, while
// Follow queues grow instead. Safe for concurrent use.
type Bus struct {
	log    *slog.Logger
	buffer int

	mu          sync.RWMutex
	subscribers map[string]*subscription
	queues      map[string]*Queue
	closed      bool

	dropped atomic.Uint64
}

// Compile-time verification that Bus implements Sink.
var _ Sink = (*Bus)(nil)

// New creates a bus whose subscriber channels hold buffer events.
// A non-positive buffer selects DefaultBuffer.
func New(log *slog.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}

	return &Bus{
		log:         log.With("component", "eventbus"),
		buffer:      buffer,
		subscribers: make(map[string]*subscription),
		queues:      make(map[string]*Queue),
	}
}

// Subscribe returns a channel receiving events published under key.
// The returned unsubscribe function must be called to release it.
func (b *Bus) Subscribe(key string) (events <-chan Envelope, unsubscribe func()) {
	return b.subscribe(key)
}

// SubscribeAll returns a channel receiving events for every key.
func (b *Bus) SubscribeAll() (events <-chan Envelope, unsubscribe func()) {
	return b.subscribe("")
}

func (b *Bus) subscribe(key string) (<-chan Envelope, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		ch := make(chan Envelope)
		close(ch)

		return ch, func() {}
	}

	id := ulid.Make().String()
	sub := &subscription{key: key, ch: make(chan Envelope, b.buffer)}
	b.subscribers[id] = sub

	b.log.Debug("Subscriber added", "subscriber_id", id, "session_key", key)

	return sub.ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if s, ok := b.subscribers[id]; ok {
			close(s.ch)
			delete(b.subscribers, id)
		}
	}
}

// Publish implements Sink.
func (b *Bus) Publish(key string, ev message.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}

	env := Envelope{Key: key, Event: ev}

	for id, sub := range b.subscribers {
		if sub.key != "" && sub.key != key {
			continue
		}

		select {
		case sub.ch <- env:
		default:
			b.dropped.Add(1)
			b.log.Warn("Subscriber channel full, dropping event",
				"subscriber_id", id, "session_key", key, "event_type", ev.EventType())
		}
	}

	for _, q := range b.queues {
		if q.match(env) {
			q.push(env)
		}
	}
}

func (b *Bus) removeQueue(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.queues, id)
}

// Dropped returns the number of events dropped for slow subscribers.
func (b *Bus) Dropped() uint64 {
	return b.dropped.Load()
}

// SubscriberCount returns the current number of subscribers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.subscribers) + len(b.queues)
}

// Close shuts down the bus and closes all subscriber channels. Follow
// queues are sealed and still deliver what they hold.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true

	for id, sub := range b.subscribers {
		close(sub.ch)
		delete(b.subscribers, id)
	}

	for id, q := range b.queues {
		q.seal()
		delete(b.queues, id)
	}
}
