package pricing

import (
	"github.com/holiman/uint256"

	"araswap/internal/model"
)

// Quote lists every asset leg of an operation from the pool's point of view.
type Quote struct {
	BaseIn   uint256.Int
	TokenIn  uint256.Int
	BaseOut  uint256.Int
	TokenOut uint256.Int
}

// Quoter prices operations against a reserve snapshot.
type Quoter struct {
	FeeBps uint64
}

// NewQuoter validates the swap fee.
func NewQuoter(feeBps uint64) (Quoter, error) {
	if feeBps >= FeeDenominator {
		return Quoter{}, ErrInvalidFee
	}
	return Quoter{FeeBps: feeBps}, nil
}

// Add prices a deposit of baseIn plus the proportional token amount.
func (q Quoter) Add(r model.Reserves, baseIn *uint256.Int) (Quote, error) {
	tokenIn, err := QuoteProportional(baseIn, &r.Base, &r.Token)
	if err != nil {
		return Quote{}, err
	}
	var out Quote
	out.BaseIn.Set(baseIn)
	out.TokenIn.Set(tokenIn)
	return out, nil
}

// Remove prices a withdrawal of baseOut plus the proportional token amount.
func (q Quoter) Remove(r model.Reserves, baseOut *uint256.Int) (Quote, error) {
	tokenOut, err := QuoteProportional(baseOut, &r.Base, &r.Token)
	if err != nil {
		return Quote{}, err
	}
	var out Quote
	out.BaseOut.Set(baseOut)
	out.TokenOut.Set(tokenOut)
	return out, nil
}

// Buy prices spending baseIn for tokens.
func (q Quoter) Buy(r model.Reserves, baseIn *uint256.Int) (Quote, error) {
	tokenOut, err := QuoteSwapOutput(baseIn, &r.Base, &r.Token, q.FeeBps)
	if err != nil {
		return Quote{}, err
	}
	var out Quote
	out.BaseIn.Set(baseIn)
	out.TokenOut.Set(tokenOut)
	return out, nil
}

// Sell prices spending tokenIn for the base asset.
func (q Quoter) Sell(r model.Reserves, tokenIn *uint256.Int) (Quote, error) {
	baseOut, err := QuoteSwapOutput(tokenIn, &r.Token, &r.Base, q.FeeBps)
	if err != nil {
		return Quote{}, err
	}
	var out Quote
	out.TokenIn.Set(tokenIn)
	out.BaseOut.Set(baseOut)
	return out, nil
}
