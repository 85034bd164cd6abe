package model

import (
	"fmt"

	"github.com/holiman/uint256"
)

// StateRecord is the persisted form of a pool State.
type StateRecord struct {
	BaseReserve  string `json:"base_reserve"`
	TokenReserve string `json:"token_reserve"`
	Initialized  bool   `json:"initialized"`
	// Seq is the last journal sequence number folded into the state.
	Seq          uint64 `json:"seq"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// RecordFromState converts a State for storage.
func RecordFromState(state State, updatedAt string) StateRecord {
	return StateRecord{
		BaseReserve:  state.Base.Dec(),
		TokenReserve: state.Token.Dec(),
		Initialized:  state.Initialized,
		UpdatedAt:    updatedAt,
	}
}

// State parses the record back into a State.
func (r StateRecord) State() (State, error) {
	base, err := ParseAmount(r.BaseReserve)
	if err != nil {
		return State{}, fmt.Errorf("base reserve: %w", err)
	}
	token, err := ParseAmount(r.TokenReserve)
	if err != nil {
		return State{}, fmt.Errorf("token reserve: %w", err)
	}
	return State{Reserves: NewReserves(base, token), Initialized: r.Initialized}, nil
}

// ParseAmount parses a non-negative decimal amount. An empty string is zero.
func ParseAmount(value string) (*uint256.Int, error) {
	if value == "" {
		return new(uint256.Int), nil
	}
	amount, err := uint256.FromDecimal(value)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", value, err)
	}
	return amount, nil
}
