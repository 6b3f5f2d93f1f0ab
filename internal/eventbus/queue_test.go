package eventbus

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wagiedev/claude-session-go/internal/message"
)

func matchKey(key string) func(Envelope) bool {
	return func(env Envelope) bool { return env.Key == key }
}

func TestFollow_KeepsEverythingForSlowReader(t *testing.T) {
	bus := newTestBus(4)
	defer bus.Close()

	lossy, unsub := bus.Subscribe("s")
	defer unsub()

	q := bus.Follow(matchKey("s"))
	defer q.Close()

	const n = 1000

	for i := range n {
		bus.Publish("s", message.ContentDelta{MessageID: "m", Delta: fmt.Sprint(i)})
	}

	bus.Publish("other", message.ErrorEvent{Message: "not mine"})
	bus.Publish("s", message.MessageComplete{MessageID: "m"})

	q.Seal()

	var got []Envelope

	for env := range q.Events() {
		got = append(got, env)
	}

	require.Len(t, got, n+1)

	for i := range n {
		require.Equal(t, message.ContentDelta{MessageID: "m", Delta: fmt.Sprint(i)}, got[i].Event)
	}

	require.Equal(t, message.MessageComplete{MessageID: "m"}, got[n].Event)

	require.Len(t, lossy, 4)
	require.Equal(t, uint64(n+1-4), bus.Dropped())
}

func TestFollow_SealIgnoresLaterEvents(t *testing.T) {
	bus := newTestBus(0)
	defer bus.Close()

	q := bus.Follow(matchKey("s"))
	bus.Publish("s", message.ErrorEvent{Message: "kept"})

	q.Seal()
	bus.Publish("s", message.ErrorEvent{Message: "late"})

	env, ok := <-q.Events()
	require.True(t, ok)
	require.Equal(t, message.ErrorEvent{Message: "kept"}, env.Event)

	_, ok = <-q.Events()
	require.False(t, ok)
}

func TestFollow_CloseDiscardsQueued(t *testing.T) {
	bus := newTestBus(0)
	defer bus.Close()

	q := bus.Follow(matchKey("s"))
	require.Equal(t, 1, bus.SubscriberCount())

	bus.Publish("s", message.ErrorEvent{Message: "unread"})

	q.Close()
	q.Close()

	require.Zero(t, bus.SubscriberCount())

	deadline := time.After(5 * time.Second)

	for {
		select {
		case _, ok := <-q.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel not closed after Close")
		}
	}
}

func TestFollow_BusCloseDrains(t *testing.T) {
	bus := newTestBus(0)

	q := bus.Follow(matchKey("s"))
	defer q.Close()

	bus.Publish("s", message.ErrorEvent{Message: "before close"})
	bus.Close()

	env, ok := <-q.Events()
	require.True(t, ok)
	require.Equal(t, "s", env.Key)

	_, ok = <-q.Events()
	require.False(t, ok)

	late := bus.Follow(matchKey("s"))

	_, ok = <-late.Events()
	require.False(t, ok)
}
