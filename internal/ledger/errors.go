package ledger

import "errors"

var (
	ErrUnauthorized        = errors.New("unauthorized")
	ErrContractPaused      = errors.New("ledger is paused")
	ErrNotFound            = errors.New("not found")
	ErrDepartureInPast     = errors.New("departure is not in the future")
	ErrCapacityExceeded    = errors.New("flight capacity exceeded")
	ErrSeatUnavailable     = errors.New("seat unavailable")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInvalidSignature    = errors.New("invalid signature")
	ErrNonceReplayed       = errors.New("nonce already used")
	ErrNothingToWithdraw   = errors.New("nothing to withdraw")
	ErrAlreadyInState      = errors.New("already in requested state")
	ErrInvalidArgument     = errors.New("invalid argument")
)
