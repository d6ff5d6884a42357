package assets

import (
	"encoding/hex"
	"strconv"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"vidchain/core/events"
	"vidchain/core/types"
)

const (
	// EventTypeMinted is emitted when content is tokenized.
	EventTypeMinted = "asset.minted"
	// EventTypeValueUpdated is emitted after an oracle metric update.
	EventTypeValueUpdated = "asset.value.updated"
	// EventTypeBurned is emitted when an asset record is destroyed.
	EventTypeBurned = "asset.burned"
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

// contentHash gives indexers a fixed-width handle for arbitrary content ids.
func contentHash(contentID string) string {
	return "0x" + hex.EncodeToString(ethcrypto.Keccak256([]byte(contentID)))
}

func mintedEvent(asset *Asset) *types.Event {
	return &types.Event{
		Type: EventTypeMinted,
		Attributes: map[string]string{
			"assetId":      strconv.FormatUint(asset.ID, 10),
			"contentId":    asset.ContentID,
			"contentHash":  contentHash(asset.ContentID),
			"creator":      hexAddr(asset.Creator),
			"owner":        hexAddr(asset.Owner),
			"initialValue": asset.InitialValue.String(),
			"uri":          asset.URI,
		},
	}
}

func valueUpdatedEvent(asset *Asset) *types.Event {
	return &types.Event{
		Type: EventTypeValueUpdated,
		Attributes: map[string]string{
			"assetId":      strconv.FormatUint(asset.ID, 10),
			"currentValue": asset.CurrentValue.String(),
			"impact":       strconv.FormatUint(uint64(asset.ImpactScore), 10),
			"engagement":   strconv.FormatUint(uint64(asset.EngagementScore), 10),
			"quality":      strconv.FormatUint(uint64(asset.QualityScore), 10),
			"views":        strconv.FormatUint(asset.ViewCount, 10),
			"actions":      strconv.FormatUint(asset.ActionCount, 10),
		},
	}
}

func burnedEvent(id uint64, contentID string) *types.Event {
	return &types.Event{
		Type: EventTypeBurned,
		Attributes: map[string]string{
			"assetId":     strconv.FormatUint(id, 10),
			"contentId":   contentID,
			"contentHash": contentHash(contentID),
		},
	}
}
