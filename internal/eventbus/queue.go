package eventbus

import (
	"sync"

	"github.com/oklog/ulid/v2"
)

// Queue is a lossless subscription. Events accepted by its match function
// are buffered without bound, so a slow reader delays delivery but never
// loses an event and never blocks the publisher.
type Queue struct {
	bus   *Bus
	id    string
	match func(Envelope) bool
	out   chan Envelope

	mu     sync.Mutex
	items  []Envelope
	sealed bool
	notify chan struct{}

	stop     chan struct{}
	stopOnce sync.Once
}

// Follow returns a lossless subscription receiving every event for which
// match returns true. match runs on the publishing goroutine and must be
// safe for concurrent use. Call Close when done reading.
func (b *Bus) Follow(match func(Envelope) bool) *Queue {
	q := &Queue{
		bus:    b,
		id:     ulid.Make().String(),
		match:  match,
		out:    make(chan Envelope),
		notify: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}

	b.mu.Lock()

	if b.closed {
		q.sealed = true
	} else {
		b.queues[q.id] = q
		b.log.Debug("Follower added", "subscriber_id", q.id)
	}

	b.mu.Unlock()

	go q.forward()

	return q
}

// Events returns the delivery channel. It is closed after Seal once every
// queued event has been read, or after Close.
func (q *Queue) Events() <-chan Envelope {
	return q.out
}

// Seal stops accepting events. Events already queued are still delivered
// before Events is closed.
func (q *Queue) Seal() {
	q.bus.removeQueue(q.id)
	q.seal()
}

// Close releases the subscription. Queued events are discarded.
func (q *Queue) Close() {
	q.bus.removeQueue(q.id)
	q.stopOnce.Do(func() { close(q.stop) })
}

func (q *Queue) push(env Envelope) {
	q.mu.Lock()

	if q.sealed {
		q.mu.Unlock()

		return
	}

	q.items = append(q.items, env)
	q.mu.Unlock()

	q.wake()
}

func (q *Queue) seal() {
	q.mu.Lock()
	q.sealed = true
	q.mu.Unlock()

	q.wake()
}

func (q *Queue) wake() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *Queue) forward() {
	defer close(q.out)

	for {
		q.mu.Lock()

		if len(q.items) == 0 {
			sealed := q.sealed
			q.mu.Unlock()

			if sealed {
				return
			}

			select {
			case <-q.notify:
				continue
			case <-q.stop:
				return
			}
		}

		env := q.items[0]
		q.items[0] = Envelope{}
		q.items = q.items[1:]
		q.mu.Unlock()

		select {
		case q.out <- env:
		case <-q.stop:
			return
		}
	}
}
