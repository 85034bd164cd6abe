package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"

	"araswap/internal/model"
)

// LoadBalances reads a JSON array of account balances.
func LoadBalances(path string) ([]model.AccountBalance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read balances: %w", err)
	}
	var entries []model.AccountBalance
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse balances: %w", err)
	}
	return entries, nil
}

// FundAll credits every entry to the book.
func (b *Book) FundAll(entries []model.AccountBalance) error {
	for _, entry := range entries {
		if !common.IsHexAddress(entry.Address) {
			return fmt.Errorf("invalid address: %s", entry.Address)
		}
		who := common.HexToAddress(entry.Address)

		base, err := model.ParseAmount(entry.Base)
		if err != nil {
			return fmt.Errorf("%s base: %w", entry.Address, err)
		}
		token, err := model.ParseAmount(entry.Token)
		if err != nil {
			return fmt.Errorf("%s token: %w", entry.Address, err)
		}
		if err := b.Fund(model.AssetBase, who, base); err != nil {
			return err
		}
		if err := b.Fund(model.AssetToken, who, token); err != nil {
			return err
		}
	}
	return nil
}

// SaveBalances writes entries as an indented JSON array.
func SaveBalances(path string, entries []model.AccountBalance) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create balances dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal balances: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write balances: %w", err)
	}
	return nil
}
