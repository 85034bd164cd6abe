package gateway

import (
	"context"
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"araswap/internal/model"
)

// ErrInjected is returned by Faulty for legs it was told to fail.
var ErrInjected = errors.New("injected transfer failure")

// Direction selects inbound or outbound legs.
type Direction int

const (
	In Direction = iota
	Out
)

type fault struct {
	dir   Direction
	asset model.Asset
}

// Faulty wraps a gateway and fails selected legs once each.
type Faulty struct {
	Gateway

	mu     sync.Mutex
	faults map[fault]int
}

func NewFaulty(inner Gateway) *Faulty {
	return &Faulty{Gateway: inner, faults: make(map[fault]int)}
}

// FailNext makes the next n transfers of asset in direction dir fail.
func (f *Faulty) FailNext(dir Direction, asset model.Asset, n int) {
	f.mu.Lock()
	f.faults[fault{dir: dir, asset: asset}] += n
	f.mu.Unlock()
}

func (f *Faulty) take(dir Direction, asset model.Asset) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := fault{dir: dir, asset: asset}
	if f.faults[key] == 0 {
		return false
	}
	f.faults[key]--
	return true
}

func (f *Faulty) TransferIn(ctx context.Context, asset model.Asset, from common.Address, amount *uint256.Int) error {
	if f.take(In, asset) {
		return ErrInjected
	}
	return f.Gateway.TransferIn(ctx, asset, from, amount)
}

func (f *Faulty) TransferOut(ctx context.Context, asset model.Asset, to common.Address, amount *uint256.Int) error {
	if f.take(Out, asset) {
		return ErrInjected
	}
	return f.Gateway.TransferOut(ctx, asset, to, amount)
}
