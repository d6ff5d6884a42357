package types

import "math/big"

// Account holds the fungible balance tracked by the token ledger. Balances
// carry 18 decimal places and stay on big.Int throughout.
type Account struct {
	BalanceVID *big.Int `json:"balanceVID"`
	Nonce      uint64   `json:"nonce"`
}

// Clone returns a deep copy of the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	clone := *a
	if a.BalanceVID != nil {
		clone.BalanceVID = new(big.Int).Set(a.BalanceVID)
	}
	return &clone
}
