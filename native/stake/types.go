package stake

import "math/big"

// Position captures a single account's staked principal and the accrual
// checkpoint. Re-staking merges into the same record and replaces both the
// checkpoint and the lock duration for the combined principal.
type Position struct {
	Amount       *big.Int `json:"amount"`
	Checkpoint   int64    `json:"checkpoint"`
	LockDuration int64    `json:"lockDuration"`
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Amount != nil {
		clone.Amount = new(big.Int).Set(p.Amount)
	}
	return &clone
}

// UnlockTime derives when the principal becomes withdrawable.
func (p *Position) UnlockTime() int64 {
	if p == nil {
		return 0
	}
	return p.Checkpoint + p.LockDuration
}

// Info summarises a staking position for account queries.
type Info struct {
	Amount       *big.Int `json:"amount"`
	Checkpoint   int64    `json:"checkpoint"`
	LockDuration int64    `json:"lockDuration"`
	UnlockTime   int64    `json:"unlockTime"`
	CanUnstake   bool     `json:"canUnstake"`
}
