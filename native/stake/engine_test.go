package stake

import (
	"errors"
	"math/big"
	"math/rand"
	"testing"

	ledgererr "vidchain/core/errors"
	"vidchain/core/types"
	"vidchain/native/token"
)

const day = int64(24 * 60 * 60)

type mockState struct {
	accounts  map[[20]byte]*types.Account
	supply    *big.Int
	positions map[[20]byte]*Position
	rewards   map[[20]byte]*big.Int
	total     *big.Int
	rate      uint32
}

func newMockState() *mockState {
	return &mockState{
		accounts:  make(map[[20]byte]*types.Account),
		supply:    big.NewInt(0),
		positions: make(map[[20]byte]*Position),
		rewards:   make(map[[20]byte]*big.Int),
		total:     big.NewInt(0),
	}
}

func (m *mockState) GetAccount(addr [20]byte) (*types.Account, error) {
	if acc, ok := m.accounts[addr]; ok {
		return acc.Clone(), nil
	}
	return nil, nil
}

func (m *mockState) PutAccount(addr [20]byte, account *types.Account) error {
	m.accounts[addr] = account.Clone()
	return nil
}

func (m *mockState) TotalSupply() (*big.Int, error) { return new(big.Int).Set(m.supply), nil }

func (m *mockState) SetTotalSupply(total *big.Int) error {
	m.supply = new(big.Int).Set(total)
	return nil
}

func (m *mockState) StakePosition(addr [20]byte) (*Position, bool, error) {
	pos, ok := m.positions[addr]
	if !ok {
		return nil, false, nil
	}
	return pos.Clone(), true, nil
}

func (m *mockState) SetStakePosition(addr [20]byte, pos *Position) error {
	m.positions[addr] = pos.Clone()
	return nil
}

func (m *mockState) TotalStaked() (*big.Int, error) { return new(big.Int).Set(m.total), nil }

func (m *mockState) SetTotalStaked(total *big.Int) error {
	m.total = new(big.Int).Set(total)
	return nil
}

func (m *mockState) RewardBalance(addr [20]byte) (*big.Int, error) {
	if bal, ok := m.rewards[addr]; ok {
		return new(big.Int).Set(bal), nil
	}
	return big.NewInt(0), nil
}

func (m *mockState) SetRewardBalance(addr [20]byte, amount *big.Int) error {
	m.rewards[addr] = new(big.Int).Set(amount)
	return nil
}

func (m *mockState) RewardRateBps() (uint32, error) { return m.rate, nil }

func (m *mockState) SetRewardRateBps(bps uint32) error {
	m.rate = bps
	return nil
}

func addr(last byte) [20]byte {
	var out [20]byte
	out[19] = last
	return out
}

type fixture struct {
	state  *mockState
	ledger *token.Ledger
	engine *Engine
	now    int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	state := newMockState()
	ledger := token.NewLedger()
	ledger.SetState(state)
	engine := NewEngine(ledger)
	engine.SetState(state)
	f := &fixture{state: state, ledger: ledger, engine: engine, now: 1_000_000}
	engine.SetNowFunc(func() int64 { return f.now })
	return f
}

func (f *fixture) fund(t *testing.T, who [20]byte, amount int64) {
	t.Helper()
	if err := f.ledger.Mint(who, big.NewInt(amount)); err != nil {
		t.Fatalf("mint failed: %v", err)
	}
}

func (f *fixture) sumPositions() *big.Int {
	total := big.NewInt(0)
	for _, pos := range f.state.positions {
		if pos.Amount != nil {
			total.Add(total, pos.Amount)
		}
	}
	return total
}

func TestStakeLockBoundaries(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	f.fund(t, owner, 10_000)

	if _, err := f.engine.Stake(owner, big.NewInt(100), 29*day); !errors.Is(err, ledgererr.ErrLockViolation) {
		t.Fatalf("expected 29d lock rejection, got %v", err)
	}
	if _, err := f.engine.Stake(owner, big.NewInt(100), 30*day); err != nil {
		t.Fatalf("30d lock rejected: %v", err)
	}
	if _, err := f.engine.Stake(owner, big.NewInt(100), 366*day); !errors.Is(err, ledgererr.ErrLockViolation) {
		t.Fatalf("expected 366d lock rejection, got %v", err)
	}
}

func TestPendingRewardOneYearAtOnePercent(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	f.fund(t, owner, 1_000)
	if err := f.engine.SetRewardRate(100); err != nil {
		t.Fatalf("set rate: %v", err)
	}

	if _, err := f.engine.Stake(owner, big.NewInt(500), 30*day); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	f.now += 365 * day

	pending, err := f.engine.PendingReward(owner)
	if err != nil {
		t.Fatalf("pending query failed: %v", err)
	}
	if pending.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected pending 5, got %s", pending)
	}

	// Read-only query must not have advanced the checkpoint.
	again, err := f.engine.PendingReward(owner)
	if err != nil {
		t.Fatalf("second pending query failed: %v", err)
	}
	if again.Cmp(pending) != 0 {
		t.Fatalf("pending reward not stable: %s vs %s", pending, again)
	}
}

func TestClaimFailsAtomicallyOnUnderfundedPool(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	f.fund(t, owner, 1_000_000)
	if err := f.engine.SetRewardRate(2000); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	if _, err := f.engine.Stake(owner, big.NewInt(1_000_000), 30*day); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	f.now += 365 * day

	pending, _ := f.engine.PendingReward(owner)
	if pending.Sign() <= 0 {
		t.Fatalf("expected positive pending reward")
	}

	before, _ := f.state.RewardBalance(owner)
	checkpointBefore := f.state.positions[owner].Checkpoint

	if _, err := f.engine.ClaimReward(owner); !errors.Is(err, ledgererr.ErrInsufficientPool) {
		t.Fatalf("expected insufficient pool, got %v", err)
	}

	after, _ := f.state.RewardBalance(owner)
	if before.Cmp(after) != 0 {
		t.Fatalf("reward balance mutated by failed claim: %s vs %s", before, after)
	}
	if f.state.positions[owner].Checkpoint != checkpointBefore {
		t.Fatalf("checkpoint mutated by failed claim")
	}
}

func TestUnstakeRequiresExpiredLock(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	f.fund(t, owner, 1_000)
	if _, err := f.engine.Stake(owner, big.NewInt(500), 30*day); err != nil {
		t.Fatalf("stake failed: %v", err)
	}

	if _, _, err := f.engine.Unstake(owner, big.NewInt(500)); !errors.Is(err, ledgererr.ErrLockViolation) {
		t.Fatalf("expected lock violation, got %v", err)
	}

	f.now += 30 * day
	pos, reward, err := f.engine.Unstake(owner, big.NewInt(500))
	if err != nil {
		t.Fatalf("unstake after expiry failed: %v", err)
	}
	if pos.Amount.Sign() != 0 {
		t.Fatalf("expected emptied position, got %s", pos.Amount)
	}
	if reward.Sign() != 0 {
		t.Fatalf("no rate configured, expected zero reward, got %s", reward)
	}
	balance, _ := f.ledger.BalanceOf(owner)
	if balance.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("principal not returned, balance %s", balance)
	}
}

func TestRestakeResetsLockForWholePosition(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	f.fund(t, owner, 1_000)
	if _, err := f.engine.Stake(owner, big.NewInt(500), 30*day); err != nil {
		t.Fatalf("first stake failed: %v", err)
	}
	f.now += 29 * day
	if _, err := f.engine.Stake(owner, big.NewInt(10), 90*day); err != nil {
		t.Fatalf("top-up failed: %v", err)
	}
	f.now += 2 * day

	// Original lock would have expired; the top-up re-locked everything.
	if _, _, err := f.engine.Unstake(owner, big.NewInt(100)); !errors.Is(err, ledgererr.ErrLockViolation) {
		t.Fatalf("expected merged position to be re-locked, got %v", err)
	}
	info, err := f.engine.PositionInfo(owner)
	if err != nil {
		t.Fatalf("info query failed: %v", err)
	}
	if info.LockDuration != 90*day {
		t.Fatalf("expected lock 90d, got %d", info.LockDuration)
	}
}

func TestRewardRateCap(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetRewardRate(2001); !errors.Is(err, ledgererr.ErrInvalidAmount) {
		t.Fatalf("expected rate cap rejection, got %v", err)
	}
	if err := f.engine.SetRewardRate(2000); err != nil {
		t.Fatalf("cap-boundary rate rejected: %v", err)
	}
}

func TestAPRBonusTiers(t *testing.T) {
	f := newFixture(t)
	if err := f.engine.SetRewardRate(800); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	cases := []struct {
		lock int64
		want uint32
	}{
		{365 * day, 1300},
		{180 * day, 1100},
		{90 * day, 900},
		{30 * day, 800},
	}
	for _, tc := range cases {
		got, err := f.engine.APR(tc.lock)
		if err != nil {
			t.Fatalf("apr query failed: %v", err)
		}
		if got != tc.want {
			t.Fatalf("lock %d: expected %d bps, got %d", tc.lock, tc.want, got)
		}
	}
}

func TestFundPoolAndClaim(t *testing.T) {
	f := newFixture(t)
	owner := addr(0x01)
	funder := addr(0x02)
	f.fund(t, owner, 1_000)
	f.fund(t, funder, 1_000)
	if err := f.engine.SetRewardRate(100); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	if _, err := f.engine.FundPool(funder, big.NewInt(100)); err != nil {
		t.Fatalf("fund failed: %v", err)
	}
	if _, err := f.engine.Stake(owner, big.NewInt(500), 30*day); err != nil {
		t.Fatalf("stake failed: %v", err)
	}
	f.now += 365 * day

	claimed, err := f.engine.ClaimReward(owner)
	if err != nil {
		t.Fatalf("claim failed: %v", err)
	}
	if claimed.Cmp(big.NewInt(5)) != 0 {
		t.Fatalf("expected claim of 5, got %s", claimed)
	}
	pool, _ := f.engine.PoolBalance()
	if pool.Cmp(big.NewInt(95)) != 0 {
		t.Fatalf("pool not debited correctly: %s", pool)
	}
	pending, _ := f.engine.PendingReward(owner)
	if pending.Sign() != 0 {
		t.Fatalf("reward balance not reset: %s", pending)
	}
}

func TestRandomSequencesPreserveInvariants(t *testing.T) {
	f := newFixture(t)
	rng := rand.New(rand.NewSource(42))
	owners := [][20]byte{addr(0x01), addr(0x02), addr(0x03)}
	for _, owner := range owners {
		f.fund(t, owner, 1_000_000)
	}
	if err := f.engine.SetRewardRate(500); err != nil {
		t.Fatalf("set rate: %v", err)
	}
	if _, err := f.engine.FundPool(owners[0], big.NewInt(500_000)); err != nil {
		t.Fatalf("fund failed: %v", err)
	}

	for i := 0; i < 500; i++ {
		owner := owners[rng.Intn(len(owners))]
		switch rng.Intn(4) {
		case 0:
			amount := big.NewInt(rng.Int63n(10_000) + 1)
			lock := (30 + rng.Int63n(335)) * day
			_, _ = f.engine.Stake(owner, amount, lock)
		case 1:
			amount := big.NewInt(rng.Int63n(10_000) + 1)
			_, _, _ = f.engine.Unstake(owner, amount)
		case 2:
			_, _ = f.engine.ClaimReward(owner)
		case 3:
			f.now += rng.Int63n(40 * day)
		}

		total, err := f.engine.TotalStaked()
		if err != nil {
			t.Fatalf("total query failed: %v", err)
		}
		if total.Sign() < 0 {
			t.Fatalf("totalStaked went negative at step %d: %s", i, total)
		}
		if total.Cmp(f.sumPositions()) != 0 {
			t.Fatalf("totalStaked diverged from positions at step %d: %s vs %s", i, total, f.sumPositions())
		}
		pool, err := f.engine.PoolBalance()
		if err != nil {
			t.Fatalf("pool query failed: %v", err)
		}
		if pool.Sign() < 0 {
			t.Fatalf("pool went negative at step %d: %s", i, pool)
		}
		for _, o := range owners {
			reward, _ := f.state.RewardBalance(o)
			if reward.Sign() < 0 {
				t.Fatalf("reward balance negative at step %d", i)
			}
		}
	}
}
