package stake

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	ledgererr "vidchain/core/errors"
	"vidchain/core/events"
	"vidchain/core/types"
	"vidchain/native/common"
	"vidchain/native/token"
)

var (
	errNilState  = errors.New("stake engine: state not configured")
	errNilLedger = errors.New("stake engine: token ledger not configured")
)

// ModuleName keys the pause flag gating staking mutations.
const ModuleName = "staking"

const (
	// MinLockSeconds and MaxLockSeconds bound accepted lock durations.
	MinLockSeconds int64 = 30 * 24 * 60 * 60
	MaxLockSeconds int64 = 365 * 24 * 60 * 60
	// SecondsPerYear is the accrual denominator.
	SecondsPerYear int64 = 365 * 24 * 60 * 60
	// MaxRewardRateBps caps the admin-settable base reward rate at 20%.
	MaxRewardRateBps uint32 = 2000
	// BpsDenominator is the shared basis-point denominator.
	BpsDenominator = 10_000
)

// Lock-length APR bonuses, advertised by the APR query. The accrual formula
// itself runs on the base rate only; this asymmetry is inherited behaviour.
const (
	bonusYearBps    = 500
	bonusHalfBps    = 300
	bonusQuarterBps = 100
)

// CustodyVault holds staked principal; PoolVault holds the reward pool.
var (
	CustodyVault = common.ModuleAddress("staking/custody")
	PoolVault    = common.ModuleAddress("staking/rewardpool")
)

type engineState interface {
	StakePosition(addr [20]byte) (*Position, bool, error)
	SetStakePosition(addr [20]byte, pos *Position) error
	TotalStaked() (*big.Int, error)
	SetTotalStaked(total *big.Int) error
	RewardBalance(addr [20]byte) (*big.Int, error)
	SetRewardBalance(addr [20]byte, amount *big.Int) error
	RewardRateBps() (uint32, error)
	SetRewardRateBps(bps uint32) error
}

// Engine owns stake positions, time-weighted reward accrual, and the reward
// pool. Token movement settles through the fungible ledger; the pool and the
// staked principal live under module custody addresses so they stay inside
// the tracked supply.
type Engine struct {
	state   engineState
	ledger  *token.Ledger
	emitter events.Emitter
	nowFn   func() int64
	pauses  common.PauseView
}

// NewEngine constructs a staking engine with default dependencies.
func NewEngine(ledger *token.Ledger) *Engine {
	return &Engine{
		ledger:  ledger,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses configures the pause view consulted by mutating operations.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

func (e *Engine) emit(evt *types.Event) {
	if e == nil || e.emitter == nil || evt == nil {
		return
	}
	e.emitter.Emit(wrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) ready() error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if e.ledger == nil {
		return errNilLedger
	}
	return nil
}

func (e *Engine) guard() error {
	if err := common.Guard(e.pauses, ModuleName); err != nil {
		return fmt.Errorf("stake: %w", ledgererr.ErrPaused)
	}
	return nil
}

func copyBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

// accrue computes the reward earned by pos between its checkpoint and now:
// amount * rateBps * elapsed / (SecondsPerYear * 10000).
func accrue(pos *Position, rateBps uint32, now int64) *big.Int {
	if pos == nil || pos.Amount == nil || pos.Amount.Sign() <= 0 || rateBps == 0 {
		return big.NewInt(0)
	}
	elapsed := now - pos.Checkpoint
	if elapsed <= 0 {
		return big.NewInt(0)
	}
	accrued := new(big.Int).Mul(pos.Amount, big.NewInt(int64(rateBps)))
	accrued.Mul(accrued, big.NewInt(elapsed))
	accrued.Quo(accrued, new(big.Int).Mul(big.NewInt(SecondsPerYear), big.NewInt(BpsDenominator)))
	return accrued
}

// settlement is the staged result of settling a position's pending accrual.
// Nothing is persisted until the caller commits it.
type settlement struct {
	pos    *Position
	reward *big.Int
}

func (e *Engine) settle(addr [20]byte, now int64) (*settlement, error) {
	pos, ok, err := e.state.StakePosition(addr)
	if err != nil {
		return nil, err
	}
	if !ok || pos == nil {
		pos = &Position{Amount: big.NewInt(0), Checkpoint: now}
	}
	rate, err := e.state.RewardRateBps()
	if err != nil {
		return nil, err
	}
	balance, err := e.state.RewardBalance(addr)
	if err != nil {
		return nil, err
	}
	reward := new(big.Int).Add(copyBigInt(balance), accrue(pos, rate, now))
	pos = pos.Clone()
	pos.Checkpoint = now
	return &settlement{pos: pos, reward: reward}, nil
}

// Stake locks amount of the caller's balance for lockSeconds. Re-staking
// merges into the existing position and resets both the checkpoint and the
// lock duration for the combined principal.
func (e *Engine) Stake(addr [20]byte, amount *big.Int, lockSeconds int64) (*Position, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("stake: amount must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	if lockSeconds < MinLockSeconds || lockSeconds > MaxLockSeconds {
		return nil, fmt.Errorf("stake: lock %ds outside [%d, %d]: %w", lockSeconds, MinLockSeconds, MaxLockSeconds, ledgererr.ErrLockViolation)
	}
	balance, err := e.ledger.BalanceOf(addr)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(amount) < 0 {
		return nil, fmt.Errorf("stake: balance %s below stake %s: %w", balance, amount, ledgererr.ErrInvalidAmount)
	}
	now := e.now()
	settled, err := e.settle(addr, now)
	if err != nil {
		return nil, err
	}
	total, err := e.state.TotalStaked()
	if err != nil {
		return nil, err
	}

	// All preconditions hold; commit.
	if err := e.ledger.Transfer(addr, CustodyVault, amount); err != nil {
		return nil, err
	}
	pos := settled.pos
	pos.Amount = new(big.Int).Add(pos.Amount, amount)
	pos.LockDuration = lockSeconds
	if err := e.state.SetStakePosition(addr, pos); err != nil {
		return nil, err
	}
	if err := e.state.SetRewardBalance(addr, settled.reward); err != nil {
		return nil, err
	}
	newTotal := new(big.Int).Add(copyBigInt(total), amount)
	if err := e.state.SetTotalStaked(newTotal); err != nil {
		return nil, err
	}
	e.emit(stakedEvent(hexAddr(addr), amount.String(), fmt.Sprintf("%d", lockSeconds), newTotal.String()))
	return pos.Clone(), nil
}

// Unstake withdraws amount of principal once the lock has expired, paying
// out the full settled reward in the same operation. If the pool cannot
// cover the reward the whole operation fails and nothing is persisted.
func (e *Engine) Unstake(addr [20]byte, amount *big.Int) (*Position, *big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, nil, err
	}
	if err := e.guard(); err != nil {
		return nil, nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, nil, fmt.Errorf("stake: amount must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	pos, ok, err := e.state.StakePosition(addr)
	if err != nil {
		return nil, nil, err
	}
	if !ok || pos == nil || pos.Amount == nil || pos.Amount.Cmp(amount) < 0 {
		return nil, nil, fmt.Errorf("stake: unstake exceeds position: %w", ledgererr.ErrInvalidAmount)
	}
	now := e.now()
	if now < pos.UnlockTime() {
		return nil, nil, fmt.Errorf("stake: locked until %d: %w", pos.UnlockTime(), ledgererr.ErrLockViolation)
	}
	settled, err := e.settle(addr, now)
	if err != nil {
		return nil, nil, err
	}
	if err := e.checkPool(settled.reward); err != nil {
		return nil, nil, err
	}
	total, err := e.state.TotalStaked()
	if err != nil {
		return nil, nil, err
	}

	// All preconditions hold; commit.
	if settled.reward.Sign() > 0 {
		if err := e.ledger.Transfer(PoolVault, addr, settled.reward); err != nil {
			return nil, nil, err
		}
	}
	if err := e.ledger.Transfer(CustodyVault, addr, amount); err != nil {
		return nil, nil, err
	}
	next := settled.pos
	next.Amount = new(big.Int).Sub(next.Amount, amount)
	if err := e.state.SetStakePosition(addr, next); err != nil {
		return nil, nil, err
	}
	if err := e.state.SetRewardBalance(addr, big.NewInt(0)); err != nil {
		return nil, nil, err
	}
	newTotal := new(big.Int).Sub(copyBigInt(total), amount)
	if err := e.state.SetTotalStaked(newTotal); err != nil {
		return nil, nil, err
	}
	e.emit(unstakedEvent(hexAddr(addr), amount.String(), settled.reward.String(), newTotal.String()))
	return next.Clone(), copyBigInt(settled.reward), nil
}

// ClaimReward settles and pays out the caller's full reward balance.
func (e *Engine) ClaimReward(addr [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if err := e.guard(); err != nil {
		return nil, err
	}
	now := e.now()
	settled, err := e.settle(addr, now)
	if err != nil {
		return nil, err
	}
	if settled.reward.Sign() == 0 {
		// Persist the checkpoint advance so accrual never double counts.
		if err := e.state.SetStakePosition(addr, settled.pos); err != nil {
			return nil, err
		}
		return big.NewInt(0), nil
	}
	if err := e.checkPool(settled.reward); err != nil {
		return nil, err
	}

	if err := e.ledger.Transfer(PoolVault, addr, settled.reward); err != nil {
		return nil, err
	}
	if err := e.state.SetStakePosition(addr, settled.pos); err != nil {
		return nil, err
	}
	if err := e.state.SetRewardBalance(addr, big.NewInt(0)); err != nil {
		return nil, err
	}
	pool, err := e.PoolBalance()
	if err != nil {
		return nil, err
	}
	e.emit(rewardClaimedEvent(hexAddr(addr), settled.reward.String(), pool.String()))
	return copyBigInt(settled.reward), nil
}

func (e *Engine) checkPool(reward *big.Int) error {
	if reward == nil || reward.Sign() == 0 {
		return nil
	}
	pool, err := e.PoolBalance()
	if err != nil {
		return err
	}
	if pool.Cmp(reward) < 0 {
		return fmt.Errorf("stake: pool %s below reward %s: %w", pool, reward, ledgererr.ErrInsufficientPool)
	}
	return nil
}

// FundPool moves amount from the funder's balance into the reward pool.
func (e *Engine) FundPool(funder [20]byte, amount *big.Int) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("stake: fund amount must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	if err := e.ledger.Transfer(funder, PoolVault, amount); err != nil {
		return nil, err
	}
	pool, err := e.PoolBalance()
	if err != nil {
		return nil, err
	}
	e.emit(poolFundedEvent(hexAddr(funder), amount.String(), pool.String()))
	return pool, nil
}

// PoolBalance returns the funded reward pool balance.
func (e *Engine) PoolBalance() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.ledger.BalanceOf(PoolVault)
}

// SetRewardRate updates the base accrual rate, capped at MaxRewardRateBps.
func (e *Engine) SetRewardRate(bps uint32) error {
	if err := e.ready(); err != nil {
		return err
	}
	if bps > MaxRewardRateBps {
		return fmt.Errorf("stake: rate %d above cap %d: %w", bps, MaxRewardRateBps, ledgererr.ErrInvalidAmount)
	}
	if err := e.state.SetRewardRateBps(bps); err != nil {
		return err
	}
	e.emit(rateChangedEvent(fmt.Sprintf("%d", bps)))
	return nil
}

// EmergencyWithdraw sweeps the reward pool to the supplied address. The node
// only routes here for admins while the ledger is paused.
func (e *Engine) EmergencyWithdraw(to [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	amount, err := e.ledger.Sweep(PoolVault, to)
	if err != nil {
		return nil, err
	}
	e.emit(emergencyWithdrawEvent(hexAddr(to), amount.String()))
	return amount, nil
}

// PendingReward returns the settled reward balance plus an as-of-now
// projection without mutating state.
func (e *Engine) PendingReward(addr [20]byte) (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.StakePosition(addr)
	if err != nil {
		return nil, err
	}
	balance, err := e.state.RewardBalance(addr)
	if err != nil {
		return nil, err
	}
	pending := copyBigInt(balance)
	if ok && pos != nil {
		rate, err := e.state.RewardRateBps()
		if err != nil {
			return nil, err
		}
		pending.Add(pending, accrue(pos, rate, e.now()))
	}
	return pending, nil
}

// PositionInfo summarises the caller's staking position.
func (e *Engine) PositionInfo(addr [20]byte) (*Info, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	pos, ok, err := e.state.StakePosition(addr)
	if err != nil {
		return nil, err
	}
	if !ok || pos == nil {
		return &Info{Amount: big.NewInt(0)}, nil
	}
	return &Info{
		Amount:       copyBigInt(pos.Amount),
		Checkpoint:   pos.Checkpoint,
		LockDuration: pos.LockDuration,
		UnlockTime:   pos.UnlockTime(),
		CanUnstake:   e.now() >= pos.UnlockTime() && pos.Amount != nil && pos.Amount.Sign() > 0,
	}, nil
}

// TotalStaked returns the ledger-wide staked principal.
func (e *Engine) TotalStaked() (*big.Int, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	total, err := e.state.TotalStaked()
	if err != nil {
		return nil, err
	}
	return copyBigInt(total), nil
}

// APR reports the advertised annual rate in basis points for a lock length:
// the base rate plus the published lock-length bonus tier.
func (e *Engine) APR(lockSeconds int64) (uint32, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	rate, err := e.state.RewardRateBps()
	if err != nil {
		return 0, err
	}
	switch {
	case lockSeconds >= 365*24*60*60:
		return rate + bonusYearBps, nil
	case lockSeconds >= 180*24*60*60:
		return rate + bonusHalfBps, nil
	case lockSeconds >= 90*24*60*60:
		return rate + bonusQuarterBps, nil
	default:
		return rate, nil
	}
}
