package events

import (
	"testing"

	"vidchain/core/types"
)

type stubEvent struct {
	evt *types.Event
}

func (s stubEvent) EventType() string   { return s.evt.Type }
func (s stubEvent) Event() *types.Event { return s.evt }

func TestHubReplaysBacklogAfterCursor(t *testing.T) {
	hub := NewHub(8)
	for i := 0; i < 5; i++ {
		hub.Emit(stubEvent{evt: &types.Event{Type: "test.event"}})
	}

	_, replay, cancel := hub.Subscribe(2, 4)
	defer cancel()

	if len(replay) != 3 {
		t.Fatalf("expected 3 replayed events, got %d", len(replay))
	}
	if replay[0].Sequence != 3 {
		t.Fatalf("expected replay to start at sequence 3, got %d", replay[0].Sequence)
	}
}

func TestHubDeliversLiveEventsInOrder(t *testing.T) {
	hub := NewHub(8)
	ch, _, cancel := hub.Subscribe(0, 4)
	defer cancel()

	hub.Emit(stubEvent{evt: &types.Event{Type: "a"}})
	hub.Emit(stubEvent{evt: &types.Event{Type: "b"}})

	first := <-ch
	second := <-ch
	if first.Event.Type != "a" || second.Event.Type != "b" {
		t.Fatalf("events out of order: %s then %s", first.Event.Type, second.Event.Type)
	}
	if second.Sequence != first.Sequence+1 {
		t.Fatalf("sequence gap: %d then %d", first.Sequence, second.Sequence)
	}
}

func TestHubTrimsBacklogToCapacity(t *testing.T) {
	hub := NewHub(2)
	for i := 0; i < 5; i++ {
		hub.Emit(stubEvent{evt: &types.Event{Type: "test.event"}})
	}
	_, replay, cancel := hub.Subscribe(0, 4)
	defer cancel()
	if len(replay) != 2 {
		t.Fatalf("expected backlog capped at 2, got %d", len(replay))
	}
}
