package stake

import (
	"encoding/hex"

	"vidchain/core/events"
	"vidchain/core/types"
)

const (
	// EventTypeStaked is emitted when principal enters a position.
	EventTypeStaked = "stake.opened"
	// EventTypeUnstaked is emitted when principal leaves a position.
	EventTypeUnstaked = "stake.unstaked"
	// EventTypeRewardClaimed is emitted on every reward payout.
	EventTypeRewardClaimed = "stake.reward.claimed"
	// EventTypePoolFunded is emitted when the reward pool is replenished.
	EventTypePoolFunded = "stake.pool.funded"
	// EventTypeRateChanged is emitted when the admin updates the reward rate.
	EventTypeRateChanged = "stake.rate.changed"
	// EventTypeEmergencyWithdraw is emitted when the pool is swept while paused.
	EventTypeEmergencyWithdraw = "stake.pool.emergency_withdraw"
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

func stakedEvent(owner, amount, lock, total string) *types.Event {
	return &types.Event{
		Type: EventTypeStaked,
		Attributes: map[string]string{
			"owner":       owner,
			"amount":      amount,
			"lockSeconds": lock,
			"totalStaked": total,
		},
	}
}

func unstakedEvent(owner, amount, reward, total string) *types.Event {
	return &types.Event{
		Type: EventTypeUnstaked,
		Attributes: map[string]string{
			"owner":       owner,
			"amount":      amount,
			"reward":      reward,
			"totalStaked": total,
		},
	}
}

func rewardClaimedEvent(owner, amount, pool string) *types.Event {
	return &types.Event{
		Type: EventTypeRewardClaimed,
		Attributes: map[string]string{
			"owner":  owner,
			"amount": amount,
			"pool":   pool,
		},
	}
}

func poolFundedEvent(funder, amount, pool string) *types.Event {
	return &types.Event{
		Type: EventTypePoolFunded,
		Attributes: map[string]string{
			"funder": funder,
			"amount": amount,
			"pool":   pool,
		},
	}
}

func rateChangedEvent(bps string) *types.Event {
	return &types.Event{
		Type:       EventTypeRateChanged,
		Attributes: map[string]string{"rateBps": bps},
	}
}

func emergencyWithdrawEvent(to, amount string) *types.Event {
	return &types.Event{
		Type: EventTypeEmergencyWithdraw,
		Attributes: map[string]string{
			"to":     to,
			"amount": amount,
		},
	}
}
