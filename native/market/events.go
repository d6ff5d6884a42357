package market

import (
	"encoding/hex"
	"strconv"

	"vidchain/core/events"
	"vidchain/core/types"
)

const (
	// EventTypeListed is emitted when an asset is put up for sale.
	EventTypeListed = "market.listed"
	// EventTypeUnlisted is emitted when a listing is withdrawn.
	EventTypeUnlisted = "market.unlisted"
	// EventTypeSold is emitted after a completed purchase.
	EventTypeSold = "market.sold"
	// EventTypeTransferred is emitted on direct owner-to-owner transfer.
	EventTypeTransferred = "market.transferred"
	// EventTypeFeeChanged is emitted when fee parameters change.
	EventTypeFeeChanged = "market.fee.changed"
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

func listedEvent(id uint64, seller [20]byte, price string) *types.Event {
	return &types.Event{
		Type: EventTypeListed,
		Attributes: map[string]string{
			"assetId": strconv.FormatUint(id, 10),
			"seller":  hexAddr(seller),
			"price":   price,
		},
	}
}

func unlistedEvent(id uint64, seller [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeUnlisted,
		Attributes: map[string]string{
			"assetId": strconv.FormatUint(id, 10),
			"seller":  hexAddr(seller),
		},
	}
}

func soldEvent(r *Receipt) *types.Event {
	return &types.Event{
		Type: EventTypeSold,
		Attributes: map[string]string{
			"assetId": strconv.FormatUint(r.AssetID, 10),
			"seller":  hexAddr(r.Seller),
			"buyer":   hexAddr(r.Buyer),
			"price":   r.Price.String(),
			"fee":     r.Fee.String(),
			"payout":  r.Payout.String(),
		},
	}
}

func transferredEvent(id uint64, from, to [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeTransferred,
		Attributes: map[string]string{
			"assetId": strconv.FormatUint(id, 10),
			"from":    hexAddr(from),
			"to":      hexAddr(to),
		},
	}
}

func feeChangedEvent(bps uint32, recipient [20]byte) *types.Event {
	return &types.Event{
		Type: EventTypeFeeChanged,
		Attributes: map[string]string{
			"feeBps":    strconv.FormatUint(uint64(bps), 10),
			"recipient": hexAddr(recipient),
		},
	}
}
