// Package telemetry distributes retune lifecycle events to in-process
// subscribers.
//
// Publishing never blocks: a subscriber whose channel is full misses the
// event. The scheduler's work loop runs on a tight tick and must not be
// stalled by a slow consumer.
package telemetry

import (
	"sync"
	"time"
)

// Event types emitted by the scheduler.
const (
	EventRetuneScheduled = "retuneScheduled"
	EventRetuneComplete  = "retuneComplete"
	EventRetuneFault     = "retuneFault"
)

// Event is a single telemetry record.
type Event struct {
	ID   int64          `json:"id"`
	Type string         `json:"type"`
	TS   time.Time      `json:"ts"`
	Data map[string]any `json:"data,omitempty"`
}

// Hub fans events out to subscribers.
type Hub struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	nextSub int
	nextID  int64
	closed  bool
	counts  map[string]uint64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		subs:   make(map[int]chan Event),
		counts: make(map[string]uint64),
	}
}

// Publish assigns the event an ID and timestamp and delivers it to every
// subscriber that has room. Safe to call on a nil hub.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	h.nextID++
	ev.ID = h.nextID
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	h.counts[ev.Type]++

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; drop rather than block the loop.
		}
	}
}

// Subscribe registers a new subscriber with the given channel buffer and
// returns the channel plus a cancel function that unregisters and closes it.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 16
	}
	ch := make(chan Event, buffer)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextSub
	h.nextSub++
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if _, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Counts returns a snapshot of per-type publish counts.
func (h *Hub) Counts() map[string]uint64 {
	if h == nil {
		return nil
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]uint64, len(h.counts))
	for k, v := range h.counts {
		out[k] = v
	}
	return out
}

// Stop closes the hub and all subscriber channels.
func (h *Hub) Stop() {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
