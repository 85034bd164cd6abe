package pool

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"araswap/internal/model"
)

// Gateway moves assets between participants and the pool. A non-nil error
// means the leg did not happen.
type Gateway interface {
	TransferIn(ctx context.Context, asset model.Asset, from common.Address, amount *uint256.Int) error
	TransferOut(ctx context.Context, asset model.Asset, to common.Address, amount *uint256.Int) error
}

type leg struct {
	inbound bool
	asset   model.Asset
	party   common.Address
	amount  *uint256.Int
}

// legs records completed transfers so they can be reversed.
type legs struct {
	ctx  context.Context
	gw   Gateway
	done []leg
}

func (l *legs) in(asset model.Asset, from common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.gw.TransferIn(l.ctx, asset, from, amount); err != nil {
		return err
	}
	l.done = append(l.done, leg{inbound: true, asset: asset, party: from, amount: amount})
	return nil
}

func (l *legs) out(asset model.Asset, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	if err := l.gw.TransferOut(l.ctx, asset, to, amount); err != nil {
		return err
	}
	l.done = append(l.done, leg{asset: asset, party: to, amount: amount})
	return nil
}

// reverse undoes completed legs, newest first.
func (l *legs) reverse() []error {
	// compensation must run even if the caller's context is done
	ctx := context.WithoutCancel(l.ctx)
	var errs []error
	for i := len(l.done) - 1; i >= 0; i-- {
		done := l.done[i]
		var err error
		if done.inbound {
			err = l.gw.TransferOut(ctx, done.asset, done.party, done.amount)
		} else {
			err = l.gw.TransferIn(ctx, done.asset, done.party, done.amount)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	l.done = nil
	return errs
}
