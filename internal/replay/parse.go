package replay

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"araswap/internal/access"
	"araswap/internal/mirror"
	"araswap/internal/model"
)

// ParseAddresses converts string addresses into common.Address.
func ParseAddresses(inputs []string) ([]common.Address, error) {
	addresses := make([]common.Address, 0, len(inputs))
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		address, err := ParseAddress(input)
		if err != nil {
			return nil, err
		}
		addresses = append(addresses, address)
	}
	return addresses, nil
}

// ParseAddress accepts a hex address, or "any" for access.Any.
func ParseAddress(input string) (common.Address, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "any") {
		return access.Any, nil
	}
	if !common.IsHexAddress(input) {
		return common.Address{}, fmt.Errorf("invalid address: %s", input)
	}
	return common.HexToAddress(input), nil
}

// ParseCommand validates a replay line and converts it for the dispatcher.
func ParseCommand(line model.Command) (mirror.Command, error) {
	op := model.Op(strings.ToLower(strings.TrimSpace(line.Op)))
	switch op {
	case model.OpInitialize, model.OpAdd, model.OpRemove, model.OpBuy, model.OpSell:
	default:
		return mirror.Command{}, fmt.Errorf("unknown op %q", line.Op)
	}

	if !common.IsHexAddress(line.Caller) {
		return mirror.Command{}, fmt.Errorf("invalid caller: %q", line.Caller)
	}

	amount, err := model.ParseAmount(line.Amount)
	if err != nil {
		return mirror.Command{}, fmt.Errorf("amount: %w", err)
	}
	cmd := mirror.Command{
		Op:     op,
		Caller: common.HexToAddress(line.Caller),
		Amount: amount,
	}

	if line.BaseAmount != "" {
		if op != model.OpInitialize {
			return mirror.Command{}, fmt.Errorf("base_amount is only valid for %s", model.OpInitialize)
		}
		if cmd.BaseAmount, err = model.ParseAmount(line.BaseAmount); err != nil {
			return mirror.Command{}, fmt.Errorf("base_amount: %w", err)
		}
	}
	if line.MinOut != "" {
		if op != model.OpBuy && op != model.OpSell {
			return mirror.Command{}, fmt.Errorf("min_out is only valid for buy and sell")
		}
		if cmd.MinOut, err = model.ParseAmount(line.MinOut); err != nil {
			return mirror.Command{}, fmt.Errorf("min_out: %w", err)
		}
	}
	return cmd, nil
}
