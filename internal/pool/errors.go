package pool

import (
	"errors"

	"araswap/internal/access"
	"araswap/internal/ledger"
	"araswap/internal/pricing"
)

var (
	ErrAlreadyInitialized  = errors.New("pool already initialized")
	ErrNotInitialized      = errors.New("pool not initialized")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrTokenTransferFailed = errors.New("token transfer failed")
	ErrTransferFailed      = errors.New("transfer failed")
	ErrInsufficientPool    = errors.New("insufficient pool")
	ErrInsufficientOutput  = errors.New("insufficient output")
	ErrInvalidState        = errors.New("invalid pool state")

	ErrReserveUnderflow = ledger.ErrReserveUnderflow
	ErrOverflow         = pricing.ErrOverflow
	ErrDivisionByZero   = pricing.ErrDivisionByZero
	ErrUnauthorized     = access.ErrUnauthorized
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrAlreadyInitialized, "already_initialized"},
	{ErrNotInitialized, "not_initialized"},
	{ErrInvalidAmount, "invalid_amount"},
	{ErrTokenTransferFailed, "token_transfer_failed"},
	{ErrTransferFailed, "transfer_failed"},
	{ErrInsufficientPool, "insufficient_pool"},
	{ErrInsufficientOutput, "insufficient_output"},
	{ErrInvalidState, "invalid_state"},
	{ErrReserveUnderflow, "reserve_underflow"},
	{ErrOverflow, "overflow"},
	{ErrDivisionByZero, "division_by_zero"},
	{ErrUnauthorized, "unauthorized"},
}

// Kind returns a stable name for the error kind carried by err, "" for nil
// and "internal" for anything unrecognized.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "internal"
}

// ledger overflow is reported under the shared overflow kind.
func classify(err error) error {
	if errors.Is(err, ledger.ErrOverflow) {
		return ErrOverflow
	}
	return err
}
