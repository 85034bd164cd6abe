// Package ledger keeps the pool's two reserve balances.
package ledger

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"

	"araswap/internal/model"
)

var (
	ErrReserveUnderflow = errors.New("reserve underflow")
	ErrOverflow         = errors.New("reserve overflow")
)

// Ledger holds the base and token reserves. It is not safe for concurrent use;
// the pool controller serializes access.
type Ledger struct {
	base  uint256.Int
	token uint256.Int
}

func New() *Ledger {
	return &Ledger{}
}

// Reserves returns a copy of the current balances.
func (l *Ledger) Reserves() model.Reserves {
	return model.NewReserves(&l.base, &l.token)
}

// Set overwrites both reserves.
func (l *Ledger) Set(r model.Reserves) {
	l.base.Set(&r.Base)
	l.token.Set(&r.Token)
}

// ApplyDelta adds signed deltas to both reserves. Either both reserves change
// or neither does.
func (l *Ledger) ApplyDelta(baseDelta, tokenDelta *big.Int) error {
	base, err := addSigned(&l.base, baseDelta)
	if err != nil {
		return err
	}
	token, err := addSigned(&l.token, tokenDelta)
	if err != nil {
		return err
	}
	l.base.Set(base)
	l.token.Set(token)
	return nil
}

func addSigned(reserve *uint256.Int, delta *big.Int) (*uint256.Int, error) {
	if delta == nil || delta.Sign() == 0 {
		return reserve.Clone(), nil
	}
	sum := new(big.Int).Add(reserve.ToBig(), delta)
	if sum.Sign() < 0 {
		return nil, ErrReserveUnderflow
	}
	out, overflow := uint256.FromBig(sum)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// Credit returns a positive delta for amount.
func Credit(amount *uint256.Int) *big.Int {
	return amount.ToBig()
}

// Debit returns a negative delta for amount.
func Debit(amount *uint256.Int) *big.Int {
	return new(big.Int).Neg(amount.ToBig())
}
