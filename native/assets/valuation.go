package assets

import "math/big"

// Score and multiplier arithmetic stays in basis points. Composite weights
// blend the three oracle scores; the action multiplier adds 1% per recorded
// action up to 100x; value decays 0.5% per day since the last metric update.
const (
	MaxScore       = 10_000
	BpsDenominator = 10_000

	weightImpact     = 40
	weightEngagement = 35
	weightQuality    = 25

	DefaultImpactScore     = 5_000
	DefaultEngagementScore = 5_000
	DefaultQualityScore    = 7_500

	actionStepBps       = 100
	maxActionMultiplier = 1_000_000 // 100x in bps

	decayRateBps       = 9_950
	decayPeriodSeconds = 24 * 60 * 60
	// Decay saturates after ten years of periods; by then the multiplier is
	// far below the value floor for any score combination.
	maxDecayPeriods = 3_650
)

// BaseAssetValue is one whole token; mints below a tenth of it are rejected.
var BaseAssetValue = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// MinInitialValue is the smallest accepted initial value.
var MinInitialValue = new(big.Int).Quo(BaseAssetValue, big.NewInt(10))

var (
	bpsDenom  = big.NewInt(BpsDenominator)
	decayRate = big.NewInt(decayRateBps)
)

func compositeScore(impact, engagement, quality uint32) uint64 {
	return (uint64(impact)*weightImpact + uint64(engagement)*weightEngagement + uint64(quality)*weightQuality) / 100
}

func actionMultiplier(actions uint64) uint64 {
	mult := uint64(BpsDenominator)
	step := actions
	if step > (maxActionMultiplier-BpsDenominator)/actionStepBps {
		return maxActionMultiplier
	}
	mult += step * actionStepBps
	return mult
}

func decayPeriods(elapsed int64) int64 {
	if elapsed <= 0 {
		return 0
	}
	periods := elapsed / decayPeriodSeconds
	if periods > maxDecayPeriods {
		return maxDecayPeriods
	}
	return periods
}

// applyDecay scales value by decayRate^periods / 10000^periods.
func applyDecay(value *big.Int, periods int64) *big.Int {
	if periods <= 0 || value == nil || value.Sign() <= 0 {
		return copyValue(value)
	}
	n := big.NewInt(periods)
	num := new(big.Int).Exp(decayRate, n, nil)
	den := new(big.Int).Exp(bpsDenom, n, nil)
	out := new(big.Int).Mul(value, num)
	return out.Quo(out, den)
}

func copyValue(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func valueFloor(initial *big.Int) *big.Int {
	if initial == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Quo(initial, big.NewInt(10))
}

// ComputeValue recalculates an asset's value from its stored metric fields:
// initial * composite * actionMultiplier * decay, floored at a tenth of the
// initial value. The oracle update path persists the result.
func ComputeValue(asset *Asset, now int64) *big.Int {
	if asset == nil || asset.InitialValue == nil {
		return big.NewInt(0)
	}
	composite := compositeScore(asset.ImpactScore, asset.EngagementScore, asset.QualityScore)
	action := actionMultiplier(asset.ActionCount)

	value := new(big.Int).Mul(asset.InitialValue, new(big.Int).SetUint64(composite))
	value.Mul(value, new(big.Int).SetUint64(action))
	value.Quo(value, new(big.Int).Mul(bpsDenom, bpsDenom))
	value = applyDecay(value, decayPeriods(now-asset.LastValueUpdate))

	floor := valueFloor(asset.InitialValue)
	if value.Cmp(floor) < 0 {
		return floor
	}
	return value
}

// CurrentValue is the read-only valuation: the persisted value with the
// decay term and floor applied for the caller's observation time. It is a
// pure function of stored fields, so repeated queries with no intervening
// mutation return identical results.
func CurrentValue(asset *Asset, now int64) *big.Int {
	if asset == nil || asset.CurrentValue == nil {
		return big.NewInt(0)
	}
	value := applyDecay(asset.CurrentValue, decayPeriods(now-asset.LastValueUpdate))
	floor := valueFloor(asset.InitialValue)
	if value.Cmp(floor) < 0 {
		return floor
	}
	return value
}
