package model

import (
	"math/big"

	"github.com/holiman/uint256"
)

// RatioScale is the number of fractional digits in Ratio.
const RatioScale = 18

// FormatAmount renders value in whole units given the asset's decimals.
func FormatAmount(value *uint256.Int, decimals uint8) string {
	if value == nil {
		return "0"
	}
	if decimals == 0 {
		return value.Dec()
	}
	denom := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	rat := new(big.Rat).SetFrac(value.ToBig(), denom)
	return rat.FloatString(int(decimals))
}

// Ratio returns tokens per base unit, or "" for an empty pool.
func (r Reserves) Ratio() string {
	if r.Base.IsZero() {
		return ""
	}
	rat := new(big.Rat).SetFrac(r.Token.ToBig(), r.Base.ToBig())
	return rat.FloatString(RatioScale)
}
