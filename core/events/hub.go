package events

import (
	"sync"

	"vidchain/core/types"
)

// Envelope pairs an emitted event with its position in the global emission
// order so stream consumers can resume from a cursor.
type Envelope struct {
	Sequence uint64       `json:"sequence"`
	Event    *types.Event `json:"event"`
}

// EventType implements the Event interface for envelopes.
func (e Envelope) EventType() string {
	if e.Event == nil {
		return ""
	}
	return e.Event.Type
}

// Hub fans emitted events out to subscribers and retains a bounded backlog
// for late joiners. It implements Emitter, so engines can emit into it
// directly. Slow subscribers are dropped rather than blocking emission.
type Hub struct {
	mu       sync.Mutex
	next     uint64
	backlog  []Envelope
	capacity int
	subs     map[uint64]chan Envelope
	subSeq   uint64
}

const defaultBacklog = 1024

// NewHub constructs a hub retaining up to capacity recent events.
func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = defaultBacklog
	}
	return &Hub{
		capacity: capacity,
		subs:     make(map[uint64]chan Envelope),
	}
}

type rawEvent interface {
	Event() *types.Event
}

// Emit implements the Emitter interface. Events that do not expose a raw
// payload are wrapped with their type only.
func (h *Hub) Emit(evt Event) {
	if h == nil || evt == nil {
		return
	}
	payload := &types.Event{Type: evt.EventType()}
	if raw, ok := evt.(rawEvent); ok && raw.Event() != nil {
		payload = raw.Event().Clone()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	env := Envelope{Sequence: h.next, Event: payload}
	h.backlog = append(h.backlog, env)
	if len(h.backlog) > h.capacity {
		h.backlog = h.backlog[len(h.backlog)-h.capacity:]
	}
	for id, ch := range h.subs {
		select {
		case ch <- env:
		default:
			close(ch)
			delete(h.subs, id)
		}
	}
}

// Subscribe registers a consumer resuming after the supplied sequence cursor
// (zero replays the whole retained backlog). It returns the live channel, the
// replayed backlog, and a cancel function that must be called exactly once.
func (h *Hub) Subscribe(cursor uint64, buffer int) (<-chan Envelope, []Envelope, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	var replay []Envelope
	for _, env := range h.backlog {
		if env.Sequence > cursor {
			replay = append(replay, env)
		}
	}
	h.subSeq++
	id := h.subSeq
	ch := make(chan Envelope, buffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if live, ok := h.subs[id]; ok {
			close(live)
			delete(h.subs, id)
		}
	}
	return ch, replay, cancel
}
