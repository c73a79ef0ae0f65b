package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dink-feed/event"
)

func TestBroadcastDelivers(t *testing.T) {
	t.Parallel()

	h := NewHub(10)
	ch := h.Subscribe(4)
	assert.Equal(t, 1, h.Subscribers())

	h.Broadcast(Entry{Kind: event.KindLogin, Actor: "Alice", Text: "🔑 Alice logged in to World 338"})

	got := <-ch
	assert.Equal(t, "Alice", got.Actor)
	assert.False(t, got.Timestamp.IsZero())

	h.Unsubscribe(ch)
	assert.Equal(t, 0, h.Subscribers())
	_, open := <-ch
	assert.False(t, open)

	h.Unsubscribe(ch)
}

func TestBroadcastDropsSlowSubscriber(t *testing.T) {
	t.Parallel()

	h := NewHub(10)
	slow := h.Subscribe(1)
	fast := h.Subscribe(8)

	h.Broadcast(Entry{Text: "one"})
	h.Broadcast(Entry{Text: "two"})

	assert.Equal(t, 1, h.Subscribers())
	require.Equal(t, "one", (<-slow).Text)
	_, open := <-slow
	assert.False(t, open)

	assert.Equal(t, "one", (<-fast).Text)
	assert.Equal(t, "two", (<-fast).Text)
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	t.Parallel()

	h := NewHub(0)
	a := h.Subscribe(1)
	b := h.Subscribe(1)
	h.Close()

	assert.Equal(t, 0, h.Subscribers())
	_, ok := <-a
	assert.False(t, ok)
	_, ok = <-b
	assert.False(t, ok)

	h.Unsubscribe(a)
}

func TestRecent(t *testing.T) {
	t.Parallel()

	h := NewHub(3)
	assert.Empty(t, h.Recent(5))

	for _, s := range []string{"a", "b"} {
		h.Broadcast(Entry{Text: s})
	}
	assert.Equal(t, []string{"a", "b"}, texts(h.Recent(0)))

	for _, s := range []string{"c", "d", "e"} {
		h.Broadcast(Entry{Text: s})
	}
	assert.Equal(t, []string{"c", "d", "e"}, texts(h.Recent(10)))
	assert.Equal(t, []string{"d", "e"}, texts(h.Recent(2)))
}

func texts(es []Entry) []string {
	out := make([]string, 0, len(es))
	for _, e := range es {
		out = append(out, e.Text)
	}
	return out
}
