package eventbus

import (
	"sync"

	"github.com/wagiedev/claude-session-go/internal/message"
)

const (
	// DefaultJournalEvents is the per-key history kept by a Journal.
	DefaultJournalEvents = 1024
	// DefaultJournalKeys is the number of keys a Journal remembers.
	DefaultJournalKeys = 256
)

type journalEntry struct {
	// base is the sequence number of events[0].
	base   int
	events []message.Event
}

// Journal is a Sink that keeps a bounded history of events per key so that
// polling readers can page through them with a cursor. When a key's history
// is full the oldest events are discarded; when too many keys are tracked
// the least recently written key is forgotten.
type Journal struct {
	perKey  int
	maxKeys int

	mu    sync.Mutex
	keys  map[string]*journalEntry
	order []string
}

// Compile-time verification that Journal implements Sink.
var _ Sink = (*Journal)(nil)

// NewJournal creates a journal. Non-positive limits select the defaults.
func NewJournal(perKey, maxKeys int) *Journal {
	if perKey <= 0 {
		perKey = DefaultJournalEvents
	}

	if maxKeys <= 0 {
		maxKeys = DefaultJournalKeys
	}

	return &Journal{
		perKey:  perKey,
		maxKeys: maxKeys,
		keys:    make(map[string]*journalEntry),
	}
}

// Publish implements Sink.
func (j *Journal) Publish(key string, ev message.Event) {
	j.mu.Lock()
	defer j.mu.Unlock()

	e, ok := j.keys[key]
	if !ok {
		e = &journalEntry{}
		j.keys[key] = e
	}

	j.touch(key)

	e.events = append(e.events, ev)

	if over := len(e.events) - j.perKey; over > 0 {
		e.events = append(e.events[:0:0], e.events[over:]...)
		e.base += over
	}

	for len(j.order) > j.maxKeys {
		delete(j.keys, j.order[0])
		j.order = j.order[1:]
	}
}

// Page is a slice of a key's history.
type Page struct {
	Key    string          `json:"sessionKey"`
	Events []message.Event `json:"events"`
	// Next is the cursor to pass to the following Since call.
	Next int `json:"next"`
	// Missed counts events discarded before the caller could read them.
	Missed int `json:"missed,omitempty"`
}

// Since returns the events for key with sequence numbers at or after cursor.
// A cursor of zero reads from the oldest event still held.
func (j *Journal) Since(key string, cursor int) Page {
	j.mu.Lock()
	defer j.mu.Unlock()

	cursor = max(cursor, 0)
	page := Page{Key: key, Next: cursor, Events: []message.Event{}}

	e, ok := j.keys[key]
	if !ok {
		return page
	}

	if cursor < e.base {
		page.Missed = e.base - cursor
		cursor = e.base
	}

	end := e.base + len(e.events)
	if cursor < end {
		page.Events = append(page.Events, e.events[cursor-e.base:]...)
	}

	page.Next = max(cursor, end)

	return page
}

// Keys returns the number of keys with history.
func (j *Journal) Keys() int {
	j.mu.Lock()
	defer j.mu.Unlock()

	return len(j.keys)
}

// touch moves key to the most recent end of the eviction order.
func (j *Journal) touch(key string) {
	for i, k := range j.order {
		if k == key {
			j.order = append(j.order[:i], j.order[i+1:]...)

			break
		}
	}

	j.order = append(j.order, key)
}
