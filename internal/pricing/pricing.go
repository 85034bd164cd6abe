// Package pricing holds the pure pool math. Every function rounds down and
// reports overflow instead of wrapping.
package pricing

import (
	"github.com/holiman/uint256"
)

// FeeDenominator is the basis-point scale used by swap fees.
const FeeDenominator = 10_000

// QuoteProportional returns floor(amountIn * reserveOut / reserveIn).
func QuoteProportional(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if reserveIn.IsZero() {
		return nil, ErrDivisionByZero
	}
	out, overflow := new(uint256.Int).MulDivOverflow(amountIn, reserveOut, reserveIn)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}

// QuoteSwapOutput applies the constant-product rule:
//
//	inEff = amountIn * (10000 - feeBps)
//	out   = floor(inEff * reserveOut / (reserveIn*10000 + inEff))
//
// With feeBps == 0 the unscaled floor(amountIn*reserveOut/(reserveIn+amountIn)) is
// computed directly.
func QuoteSwapOutput(amountIn, reserveIn, reserveOut *uint256.Int, feeBps uint64) (*uint256.Int, error) {
	if feeBps >= FeeDenominator {
		return nil, ErrInvalidFee
	}

	inEff, denom := amountIn, reserveIn
	if feeBps > 0 {
		var overflow bool
		inEff, overflow = new(uint256.Int).MulOverflow(amountIn, uint256.NewInt(FeeDenominator-feeBps))
		if overflow {
			return nil, ErrOverflow
		}
		denom, overflow = new(uint256.Int).MulOverflow(reserveIn, uint256.NewInt(FeeDenominator))
		if overflow {
			return nil, ErrOverflow
		}
	}
	denom, overflow := new(uint256.Int).AddOverflow(denom, inEff)
	if overflow {
		return nil, ErrOverflow
	}
	if denom.IsZero() {
		return nil, ErrDivisionByZero
	}
	// the product is taken at 512 bits, so only a result above 2^256-1 overflows
	out, overflow := new(uint256.Int).MulDivOverflow(inEff, reserveOut, denom)
	if overflow {
		return nil, ErrOverflow
	}
	return out, nil
}
