package feed

import (
	"sync"
	"time"

	"dink-feed/event"
)

// Entry is one published caption.
type Entry struct {
	Kind      event.Kind `json:"kind"`
	Actor     string     `json:"actor"`
	Text      string     `json:"text"`
	Channel   string     `json:"channel,omitempty"`
	ImageURL  string     `json:"image_url,omitempty"`
	CastHash  string     `json:"cast_hash,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type Hub struct {
	clients   map[chan Entry]struct{}
	clientsMu sync.Mutex

	recent   []Entry
	next     int
	filled   bool
	recentMu sync.RWMutex
}

func NewHub(backlog int) *Hub {
	if backlog <= 0 {
		backlog = 50
	}
	return &Hub{
		clients: make(map[chan Entry]struct{}),
		recent:  make([]Entry, backlog),
	}
}

func (h *Hub) Subscribe(buffer int) chan Entry {
	ch := make(chan Entry, buffer)
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	h.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe is a no-op for channels the hub already dropped.
func (h *Hub) Unsubscribe(ch chan Entry) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	if _, ok := h.clients[ch]; !ok {
		return
	}
	delete(h.clients, ch)
	close(ch)
}

// Close disconnects every subscriber. Later subscribers are still accepted.
func (h *Hub) Close() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for ch := range h.clients {
		close(ch)
		delete(h.clients, ch)
	}
}

func (h *Hub) Subscribers() int {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	return len(h.clients)
}

// Broadcast stamps e and sends it to every subscriber. Subscribers whose
// buffer is full are dropped.
func (h *Hub) Broadcast(e Entry) {
	e.Timestamp = time.Now().UTC()
	h.remember(e)

	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()
	for ch := range h.clients {
		select {
		case ch <- e:
		default:
			// Client not responsive, remove it
			close(ch)
			delete(h.clients, ch)
		}
	}
}

// Recent returns up to n of the latest entries, oldest first.
func (h *Hub) Recent(n int) []Entry {
	h.recentMu.RLock()
	defer h.recentMu.RUnlock()

	size := h.next
	if h.filled {
		size = len(h.recent)
	}
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Entry, 0, n)
	start := h.next - n
	for i := 0; i < n; i++ {
		idx := (start + i + len(h.recent)) % len(h.recent)
		out = append(out, h.recent[idx])
	}
	return out
}

func (h *Hub) remember(e Entry) {
	h.recentMu.Lock()
	defer h.recentMu.Unlock()
	h.recent[h.next] = e
	h.next++
	if h.next == len(h.recent) {
		h.next = 0
		h.filled = true
	}
}
