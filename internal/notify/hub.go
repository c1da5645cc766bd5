// Package notify carries update notifications between the parts of a running
// dashboard: open browser tabs, cached aggregations and peer instances.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Key is the well-known name of the cross-tab channel. Browser tabs listen on
// it and the websocket endpoint uses it as the event name.
const Key = "namsa:update"

const (
	inputBuffer      = 64
	subscriberBuffer = 32
)

type Type string

const (
	TypeMusic    Type = "music"
	TypeProfile  Type = "profile"
	TypeLogSheet Type = "logsheet"
	TypeReport   Type = "report"
)

// Update is the payload published on Key.
type Update struct {
	Type   Type      `json:"type"`
	ID     int64     `json:"id,omitempty"`
	Status string    `json:"status,omitempty"`
	Origin string    `json:"origin,omitempty"`
	At     time.Time `json:"at"`
}

// TriggersReload reports whether listeners should re-fetch their data.
// Only music and profile changes do.
func (u Update) TriggersReload() bool {
	return u.Type == TypeMusic || u.Type == TypeProfile
}

func (u Update) ToJSON() ([]byte, error) {
	return json.Marshal(u)
}

// ParseUpdate decodes a payload. Unknown types decode fine; callers decide
// whether they care via TriggersReload.
func ParseUpdate(data []byte) (Update, error) {
	var u Update
	if err := json.Unmarshal(data, &u); err != nil {
		return Update{}, fmt.Errorf("decode update: %w", err)
	}
	if u.Type == "" {
		return Update{}, fmt.Errorf("decode update: missing type")
	}
	return u, nil
}

// Hub fans updates out to subscribers. Slow subscribers lose updates instead
// of blocking publishers.
type Hub struct {
	origin string
	input  chan Update

	mu          sync.RWMutex
	subscribers map[int]chan Update
	nextID      int
	dropped     atomic.Int64
	closed      bool
}

// NewHub returns a hub stamping local updates with origin.
func NewHub(origin string) *Hub {
	return &Hub{
		origin:      origin,
		input:       make(chan Update, inputBuffer),
		subscribers: make(map[int]chan Update),
	}
}

func (h *Hub) Origin() string {
	return h.origin
}

// Subscribe returns a channel receiving every update and a func that
// unsubscribes and closes it.
func (h *Hub) Subscribe() (<-chan Update, func()) {
	ch := make(chan Update, subscriberBuffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subscribers[id]; ok {
				delete(h.subscribers, id)
				close(c)
			}
		})
	}
}

// Publish queues a local update. Origin and timestamp are filled in when
// missing. Publish never blocks; a full queue drops the update.
func (h *Hub) Publish(u Update) {
	if u.Origin == "" {
		u.Origin = h.origin
	}
	if u.At.IsZero() {
		u.At = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	select {
	case h.input <- u:
	default:
		h.dropped.Add(1)
		slog.Warn("Update queue full, dropping update", "type", u.Type, "id", u.ID)
	}
}

// Dropped returns how many updates were lost to a full queue or slow subscribers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Start broadcasts queued updates until ctx is cancelled, then closes every
// subscriber channel.
func (h *Hub) Start(ctx context.Context) {
	defer h.closeAll()

	for {
		select {
		case <-ctx.Done():
			return
		case u := <-h.input:
			h.broadcast(u)
		}
	}
}

func (h *Hub) broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.subscribers {
		select {
		case ch <- u:
		default:
			n := h.dropped.Add(1)
			slog.Warn("Dropped update for slow subscriber", "type", u.Type, "dropped", n)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}
