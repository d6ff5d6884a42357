package errors

import stderrors "errors"

// Machine-readable failure kinds shared by every ledger engine. Callers match
// with errors.Is; engines wrap these with module-prefixed context.
var (
	ErrUnauthorized     = stderrors.New("ledger: caller lacks required role")
	ErrInvalidAmount    = stderrors.New("ledger: amount invalid or exceeds balance")
	ErrSupplyExceeded   = stderrors.New("ledger: mint would breach max supply")
	ErrLockViolation    = stderrors.New("ledger: lock duration out of range or not expired")
	ErrNotFound         = stderrors.New("ledger: unknown asset or content id")
	ErrAlreadyExists    = stderrors.New("ledger: identifier already in use")
	ErrInsufficientPool = stderrors.New("ledger: reward pool cannot cover payout")
	ErrPaymentMismatch  = stderrors.New("ledger: payment does not equal list price")
	ErrPaused           = stderrors.New("ledger: operation unavailable in current pause state")
)

// Kind maps a wrapped engine error back onto its taxonomy sentinel, or nil
// when the error does not belong to the taxonomy.
func Kind(err error) error {
	for _, sentinel := range []error{
		ErrUnauthorized,
		ErrInvalidAmount,
		ErrSupplyExceeded,
		ErrLockViolation,
		ErrNotFound,
		ErrAlreadyExists,
		ErrInsufficientPool,
		ErrPaymentMismatch,
		ErrPaused,
	} {
		if stderrors.Is(err, sentinel) {
			return sentinel
		}
	}
	return nil
}
