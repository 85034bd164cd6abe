package model

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Op identifies a pool operation.
type Op string

const (
	OpInitialize Op = "init"
	OpAdd        Op = "add"
	OpRemove     Op = "remove"
	OpBuy        Op = "buy"
	OpSell       Op = "sell"
)

// Receipt describes an applied operation. Amounts are from the pool's point of view.
type Receipt struct {
	// Seq is the operation's position in the pool's order of applied
	// operations, starting at 1.
	Seq      uint64
	Op       Op
	Caller   common.Address
	BaseIn   uint256.Int
	TokenIn  uint256.Int
	BaseOut  uint256.Int
	TokenOut uint256.Int
	Reserves Reserves
}
