package common

import "errors"

// ErrReentrancy is returned when an operation re-enters a guarded section
// before the initiating call has finalised its state.
var ErrReentrancy = errors.New("reentrant call rejected")

// ReentrancyGuard is a call-depth latch wrapped around any operation that
// moves value out of the ledger. Operations run strictly serialised, so a
// plain flag suffices; the guard exists to stop transfer callbacks from
// re-entering a mutating entry point mid-operation.
type ReentrancyGuard struct {
	entered bool
}

// Enter claims the guard. Callers must release via the returned function on
// every exit path, including errors.
func (g *ReentrancyGuard) Enter() (func(), error) {
	if g == nil {
		return func() {}, nil
	}
	if g.entered {
		return nil, ErrReentrancy
	}
	g.entered = true
	return func() { g.entered = false }, nil
}
