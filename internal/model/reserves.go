package model

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// Asset names one side of the pool.
type Asset string

const (
	AssetBase  Asset = "base"
	AssetToken Asset = "token"
)

// Reserves is a point-in-time copy of the pool balances.
type Reserves struct {
	Base  uint256.Int
	Token uint256.Int
}

// NewReserves copies base and token into a Reserves value.
func NewReserves(base, token *uint256.Int) Reserves {
	var r Reserves
	r.Base.Set(base)
	r.Token.Set(token)
	return r
}

// Product returns base*token without overflow.
func (r Reserves) Product() *big.Int {
	return new(big.Int).Mul(r.Base.ToBig(), r.Token.ToBig())
}

// Empty reports whether both reserves are zero.
func (r Reserves) Empty() bool {
	return r.Base.IsZero() && r.Token.IsZero()
}

func (r Reserves) String() string {
	return fmt.Sprintf("(%s, %s)", r.Base.Dec(), r.Token.Dec())
}

// State is the full observable pool state.
type State struct {
	Reserves
	Initialized bool
}

// AccountBalance is the persisted form of one participant's holdings.
type AccountBalance struct {
	Address string `json:"address"`
	Base    string `json:"base"`
	Token   string `json:"token"`
}
