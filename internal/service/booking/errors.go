package booking

import "errors"

var (
	ErrDraftNotFound = errors.New("draft not found")
	// ErrNotPayable means the draft has not earned the payment step yet
	// (missing slot, incomplete contact details).
	ErrNotPayable = errors.New("draft not ready for payment")
	// ErrNoOrder means a payment outcome arrived for a draft that never
	// created a provider order, so the callback cannot be matched.
	ErrNoOrder     = errors.New("no order on draft")
	ErrBadOutcome  = errors.New("payment outcome carries no payment id")
	ErrRateLimited = errors.New("rate limited")
)
