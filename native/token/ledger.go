package token

import (
	"fmt"
	"math/big"

	ledgererr "vidchain/core/errors"
	"vidchain/core/events"
	"vidchain/core/types"
	"vidchain/native/common"
)

// ModuleName keys the pause flag gating balance movement.
const ModuleName = "token"

// Decimals is the fixed-point scale for all balances.
const Decimals = 18

// MaxSupply caps total outstanding balances at one billion whole tokens.
var MaxSupply = new(big.Int).Mul(big.NewInt(1_000_000_000), new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil))

type ledgerState interface {
	GetAccount(addr [20]byte) (*types.Account, error)
	PutAccount(addr [20]byte, account *types.Account) error
	TotalSupply() (*big.Int, error)
	SetTotalSupply(total *big.Int) error
}

// Ledger tracks fungible balances, enforces the supply cap, and gates
// movement on the module pause flag. The other engines compose with it for
// every token transfer they perform.
type Ledger struct {
	state   ledgerState
	emitter events.Emitter
	pauses  common.PauseView
}

// NewLedger constructs a ledger with default dependencies.
func NewLedger() *Ledger {
	return &Ledger{emitter: events.NoopEmitter{}}
}

// SetState configures the state backend used by the ledger.
func (l *Ledger) SetState(state ledgerState) { l.state = state }

// SetEmitter configures the event emitter used by the ledger.
func (l *Ledger) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		l.emitter = events.NoopEmitter{}
		return
	}
	l.emitter = emitter
}

// SetPauses configures the pause view consulted before balance movement.
func (l *Ledger) SetPauses(p common.PauseView) { l.pauses = p }

func (l *Ledger) emit(evt *types.Event) {
	if l == nil || l.emitter == nil || evt == nil {
		return
	}
	l.emitter.Emit(wrapEvent(evt))
}

func ensureAccount(acc *types.Account) *types.Account {
	if acc == nil {
		return &types.Account{BalanceVID: big.NewInt(0)}
	}
	if acc.BalanceVID == nil {
		acc.BalanceVID = big.NewInt(0)
	}
	return acc
}

func (l *Ledger) guard() error {
	if err := common.Guard(l.pauses, ModuleName); err != nil {
		return fmt.Errorf("token: %w", ledgererr.ErrPaused)
	}
	return nil
}

// BalanceOf returns the balance for addr, zero for unknown accounts.
func (l *Ledger) BalanceOf(addr [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	acc, err := l.state.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(ensureAccount(acc).BalanceVID), nil
}

// Supply returns the current total outstanding supply.
func (l *Ledger) Supply() (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	total, err := l.state.TotalSupply()
	if err != nil {
		return nil, err
	}
	if total == nil {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(total), nil
}

// Mint credits amount to addr, rejecting any breach of the supply cap.
func (l *Ledger) Mint(addr [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token: mint amount must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	total, err := l.Supply()
	if err != nil {
		return err
	}
	next := new(big.Int).Add(total, amount)
	if next.Cmp(MaxSupply) > 0 {
		return fmt.Errorf("token: supply cap %s: %w", MaxSupply, ledgererr.ErrSupplyExceeded)
	}
	acc, err := l.state.GetAccount(addr)
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	acc.BalanceVID = new(big.Int).Add(acc.BalanceVID, amount)
	if err := l.state.PutAccount(addr, acc); err != nil {
		return err
	}
	if err := l.state.SetTotalSupply(next); err != nil {
		return err
	}
	l.emit(mintedEvent(hexAddr(addr), amount.String(), next.String()))
	return nil
}

// Burn debits amount from addr and shrinks the outstanding supply.
func (l *Ledger) Burn(addr [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token: burn amount must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	acc, err := l.state.GetAccount(addr)
	if err != nil {
		return err
	}
	acc = ensureAccount(acc)
	if acc.BalanceVID.Cmp(amount) < 0 {
		return fmt.Errorf("token: burn exceeds balance: %w", ledgererr.ErrInvalidAmount)
	}
	total, err := l.Supply()
	if err != nil {
		return err
	}
	acc.BalanceVID = new(big.Int).Sub(acc.BalanceVID, amount)
	next := new(big.Int).Sub(total, amount)
	if next.Sign() < 0 {
		next = big.NewInt(0)
	}
	if err := l.state.PutAccount(addr, acc); err != nil {
		return err
	}
	if err := l.state.SetTotalSupply(next); err != nil {
		return err
	}
	l.emit(burnedEvent(hexAddr(addr), amount.String(), next.String()))
	return nil
}

// Sweep moves the full balance of from into to, bypassing the pause gate.
// It backs the admin emergency path, which by definition runs while the
// ledger is paused. Returns the amount moved.
func (l *Ledger) Sweep(from, to [20]byte) (*big.Int, error) {
	if l == nil || l.state == nil {
		return nil, errNilState
	}
	fromAcc, err := l.state.GetAccount(from)
	if err != nil {
		return nil, err
	}
	fromAcc = ensureAccount(fromAcc)
	amount := new(big.Int).Set(fromAcc.BalanceVID)
	if amount.Sign() == 0 || from == to {
		return big.NewInt(0), nil
	}
	toAcc, err := l.state.GetAccount(to)
	if err != nil {
		return nil, err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.BalanceVID = big.NewInt(0)
	toAcc.BalanceVID = new(big.Int).Add(toAcc.BalanceVID, amount)
	if err := l.state.PutAccount(from, fromAcc); err != nil {
		return nil, err
	}
	if err := l.state.PutAccount(to, toAcc); err != nil {
		return nil, err
	}
	l.emit(transferEvent(hexAddr(from), hexAddr(to), amount.String()))
	return amount, nil
}

// Transfer moves amount between accounts. It is the internal primitive the
// staking and marketplace engines settle through; the pause flag gates it.
func (l *Ledger) Transfer(from, to [20]byte, amount *big.Int) error {
	if l == nil || l.state == nil {
		return errNilState
	}
	if err := l.guard(); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("token: transfer amount must be positive: %w", ledgererr.ErrInvalidAmount)
	}
	fromAcc, err := l.state.GetAccount(from)
	if err != nil {
		return err
	}
	fromAcc = ensureAccount(fromAcc)
	if fromAcc.BalanceVID.Cmp(amount) < 0 {
		return fmt.Errorf("token: transfer exceeds balance: %w", ledgererr.ErrInvalidAmount)
	}
	if from == to {
		return nil
	}
	toAcc, err := l.state.GetAccount(to)
	if err != nil {
		return err
	}
	toAcc = ensureAccount(toAcc)
	fromAcc.BalanceVID = new(big.Int).Sub(fromAcc.BalanceVID, amount)
	toAcc.BalanceVID = new(big.Int).Add(toAcc.BalanceVID, amount)
	if err := l.state.PutAccount(from, fromAcc); err != nil {
		return err
	}
	if err := l.state.PutAccount(to, toAcc); err != nil {
		return err
	}
	l.emit(transferEvent(hexAddr(from), hexAddr(to), amount.String()))
	return nil
}
