package token

import (
	"encoding/hex"
	"errors"

	"vidchain/core/events"
	"vidchain/core/types"
)

var errNilState = errors.New("token ledger: state not configured")

const (
	// EventTypeMinted is emitted when new supply is credited to an account.
	EventTypeMinted = "token.minted"
	// EventTypeBurned is emitted when supply is destroyed.
	EventTypeBurned = "token.burned"
	// EventTypeTransfer is emitted on every internal balance movement.
	EventTypeTransfer = "token.transfer"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

func wrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func hexAddr(addr [20]byte) string {
	return "0x" + hex.EncodeToString(addr[:])
}

func mintedEvent(to, amount, supply string) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"to":     to,
			"amount": amount,
			"supply": supply,
		},
	}
}

func burnedEvent(from, amount, supply string) *types.Event {
	return &types.Event{
		Type: EventTypeBurned,
		Attributes: map[string]string{
			"from":   from,
			"amount": amount,
			"supply": supply,
		},
	}
}

func transferEvent(from, to, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeTransfer,
		Attributes: map[string]string{
			"from":   from,
			"to":     to,
			"amount": amount,
		},
	}
}
