// Package gateway provides asset transfer gateways for the pool controller.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"araswap/internal/model"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrUnknownAsset        = errors.New("unknown asset")
	ErrBalanceOverflow     = errors.New("balance overflow")
)

// Gateway is the transfer contract the pool controller calls.
type Gateway interface {
	TransferIn(ctx context.Context, asset model.Asset, from common.Address, amount *uint256.Int) error
	TransferOut(ctx context.Context, asset model.Asset, to common.Address, amount *uint256.Int) error
}

// Book is an in-memory balance book. It tracks participant balances and the
// amount held in custody for the pool.
type Book struct {
	mu       sync.Mutex
	balances map[model.Asset]map[common.Address]*uint256.Int
	custody  map[model.Asset]*uint256.Int
	logger   *zap.Logger
}

func NewBook(logger *zap.Logger) *Book {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Book{
		balances: make(map[model.Asset]map[common.Address]*uint256.Int),
		custody:  make(map[model.Asset]*uint256.Int),
		logger:   logger,
	}
	for _, asset := range []model.Asset{model.AssetBase, model.AssetToken} {
		b.balances[asset] = make(map[common.Address]*uint256.Int)
		b.custody[asset] = new(uint256.Int)
	}
	return b
}

// Fund credits who with amount of asset out of thin air.
func (b *Book) Fund(asset model.Asset, who common.Address, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	accounts, ok := b.balances[asset]
	if !ok {
		return fmt.Errorf("%s: %w", asset, ErrUnknownAsset)
	}
	return credit(accounts, who, amount)
}

// SetCustody overwrites the pool's holding of asset, used when a persisted
// pool is restored.
func (b *Book) SetCustody(asset model.Asset, amount *uint256.Int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	held, ok := b.custody[asset]
	if !ok {
		return fmt.Errorf("%s: %w", asset, ErrUnknownAsset)
	}
	held.Set(amount)
	return nil
}

// Balance returns a copy of who's balance.
func (b *Book) Balance(asset model.Asset, who common.Address) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bal, ok := b.balances[asset][who]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

// Custody returns a copy of the pool's holding of asset.
func (b *Book) Custody(asset model.Asset) *uint256.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if held, ok := b.custody[asset]; ok {
		return held.Clone()
	}
	return new(uint256.Int)
}

// Accounts lists every participant balance, sorted by address.
func (b *Book) Accounts() []model.AccountBalance {
	b.mu.Lock()
	defer b.mu.Unlock()

	byAddr := make(map[common.Address]*model.AccountBalance)
	for asset, accounts := range b.balances {
		for who, bal := range accounts {
			entry, ok := byAddr[who]
			if !ok {
				entry = &model.AccountBalance{Address: who.Hex(), Base: "0", Token: "0"}
				byAddr[who] = entry
			}
			switch asset {
			case model.AssetBase:
				entry.Base = bal.Dec()
			case model.AssetToken:
				entry.Token = bal.Dec()
			}
		}
	}

	out := make([]model.AccountBalance, 0, len(byAddr))
	for _, entry := range byAddr {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Address < out[j].Address })
	return out
}

func (b *Book) TransferIn(ctx context.Context, asset model.Asset, from common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	accounts, ok := b.balances[asset]
	if !ok {
		return fmt.Errorf("%s: %w", asset, ErrUnknownAsset)
	}
	held := b.custody[asset]
	if _, overflow := new(uint256.Int).AddOverflow(held, amount); overflow {
		return fmt.Errorf("custody %s: %w", asset, ErrBalanceOverflow)
	}
	if err := debit(accounts[from], amount); err != nil {
		return fmt.Errorf("debit %s %s: %w", from.Hex(), asset, err)
	}
	held.Add(held, amount)

	b.logger.Debug("transfer in",
		zap.String("asset", string(asset)),
		zap.Stringer("from", from),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

func (b *Book) TransferOut(ctx context.Context, asset model.Asset, to common.Address, amount *uint256.Int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	accounts, ok := b.balances[asset]
	if !ok {
		return fmt.Errorf("%s: %w", asset, ErrUnknownAsset)
	}
	if err := debit(b.custody[asset], amount); err != nil {
		return fmt.Errorf("custody %s: %w", asset, err)
	}
	if err := credit(accounts, to, amount); err != nil {
		b.custody[asset].Add(b.custody[asset], amount)
		return err
	}

	b.logger.Debug("transfer out",
		zap.String("asset", string(asset)),
		zap.Stringer("to", to),
		zap.String("amount", amount.Dec()),
	)
	return nil
}

func debit(bal *uint256.Int, amount *uint256.Int) error {
	if bal == nil || bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	bal.Sub(bal, amount)
	return nil
}

func credit(accounts map[common.Address]*uint256.Int, who common.Address, amount *uint256.Int) error {
	bal, ok := accounts[who]
	if !ok {
		accounts[who] = amount.Clone()
		return nil
	}
	if _, overflow := new(uint256.Int).AddOverflow(bal, amount); overflow {
		return ErrBalanceOverflow
	}
	bal.Add(bal, amount)
	return nil
}
