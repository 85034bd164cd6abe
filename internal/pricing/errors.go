package pricing

import "errors"

var (
	ErrDivisionByZero = errors.New("division by zero")
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrInvalidFee     = errors.New("fee must be below 10000 bps")
)
