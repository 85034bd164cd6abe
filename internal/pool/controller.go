// Package pool runs pool operations as atomic state transitions over the
// ledger, the pricing rules and an asset gateway.
package pool

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"araswap/internal/access"
	"araswap/internal/ledger"
	"araswap/internal/model"
	"araswap/internal/pricing"
)

// Config controls pool behavior.
type Config struct {
	// FeeBps is the swap fee in basis points. Zero reproduces the plain
	// constant-product rule.
	FeeBps     uint64
	Authorizer access.Authorizer
}

// Listener observes applied operations. It runs after the pool lock is
// released and must not block for long. Concurrent callers can deliver
// receipts out of order; Receipt.Seq gives the applied order.
type Listener func(model.Receipt)

// Controller owns one pool. Every operation holds a single lock from
// validation to the final ledger write.
type Controller struct {
	mu          sync.Mutex
	ledger      *ledger.Ledger
	initialized bool
	applied     uint64

	quoter  pricing.Quoter
	gateway Gateway
	auth    access.Authorizer
	logger  *zap.Logger

	listenersMu sync.RWMutex
	listeners   []Listener
}

// NewController builds an empty, uninitialized pool.
func NewController(cfg Config, gateway Gateway, logger *zap.Logger) (*Controller, error) {
	if gateway == nil {
		return nil, fmt.Errorf("gateway is nil")
	}
	quoter, err := pricing.NewQuoter(cfg.FeeBps)
	if err != nil {
		return nil, err
	}
	auth := cfg.Authorizer
	if auth == nil {
		auth = access.AllowAll{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		ledger:  ledger.New(),
		quoter:  quoter,
		gateway: gateway,
		auth:    auth,
		logger:  logger,
	}, nil
}

// OnApplied registers a listener for successful operations.
func (c *Controller) OnApplied(fn Listener) {
	c.listenersMu.Lock()
	c.listeners = append(c.listeners, fn)
	c.listenersMu.Unlock()
}

// State returns the current reserves and lifecycle flag.
func (c *Controller) State() model.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.State{Reserves: c.ledger.Reserves(), Initialized: c.initialized}
}

// Reserves returns the current reserves.
func (c *Controller) Reserves() model.Reserves {
	return c.State().Reserves
}

// Quoter exposes the pricing rules in use.
func (c *Controller) Quoter() pricing.Quoter {
	return c.quoter
}

// Restore loads a persisted state into a fresh pool.
func (c *Controller) Restore(state model.State) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.initialized {
		return ErrAlreadyInitialized
	}
	if state.Initialized {
		if state.Base.IsZero() || state.Token.IsZero() {
			return fmt.Errorf("active pool with empty reserve %s: %w", state.Reserves, ErrInvalidState)
		}
	} else if !state.Empty() {
		return fmt.Errorf("uninitialized pool with reserves %s: %w", state.Reserves, ErrInvalidState)
	}
	c.ledger.Set(state.Reserves)
	c.initialized = state.Initialized
	return nil
}

// InitializePool funds the pool for the first time with tokenAmount tokens
// and baseAmount of the base asset, both taken from caller.
func (c *Controller) InitializePool(ctx context.Context, caller common.Address, tokenAmount, baseAmount *uint256.Int) (model.Receipt, error) {
	return c.run(ctx, operation{
		op:     model.OpInitialize,
		caller: caller,
		role:   access.RoleInitialize,
		init:   true,
		plan: func(model.Reserves) (pricing.Quote, error) {
			if isZero(tokenAmount) || isZero(baseAmount) {
				return pricing.Quote{}, ErrInvalidAmount
			}
			var q pricing.Quote
			q.BaseIn.Set(baseAmount)
			q.TokenIn.Set(tokenAmount)
			return q, nil
		},
	})
}

// AddToPool deposits baseAmountIn plus the proportional token amount.
func (c *Controller) AddToPool(ctx context.Context, caller common.Address, baseAmountIn *uint256.Int) (model.Receipt, error) {
	return c.run(ctx, operation{
		op:     model.OpAdd,
		caller: caller,
		role:   access.RolePool,
		plan: func(r model.Reserves) (pricing.Quote, error) {
			if isZero(baseAmountIn) {
				return pricing.Quote{}, ErrInvalidAmount
			}
			q, err := c.quoter.Add(r, baseAmountIn)
			if err != nil {
				return q, err
			}
			if q.TokenIn.IsZero() {
				return pricing.Quote{}, fmt.Errorf("deposit buys no tokens: %w", ErrInvalidAmount)
			}
			return q, nil
		},
	})
}

// RemoveFromPool withdraws baseAmountOut plus the proportional token amount.
// The base reserve must stay positive.
func (c *Controller) RemoveFromPool(ctx context.Context, caller common.Address, baseAmountOut *uint256.Int) (model.Receipt, error) {
	return c.run(ctx, operation{
		op:     model.OpRemove,
		caller: caller,
		role:   access.RolePool,
		plan: func(r model.Reserves) (pricing.Quote, error) {
			if isZero(baseAmountOut) {
				return pricing.Quote{}, ErrInvalidAmount
			}
			if !baseAmountOut.Lt(&r.Base) {
				return pricing.Quote{}, ErrInsufficientPool
			}
			q, err := c.quoter.Remove(r, baseAmountOut)
			if err != nil {
				return q, err
			}
			if !q.TokenOut.Lt(&r.Token) {
				return pricing.Quote{}, ErrInsufficientPool
			}
			return q, nil
		},
	})
}

// BuyTokens spends baseAmountIn on tokens. A non-nil minTokenOut rejects
// trades that would pay out less.
func (c *Controller) BuyTokens(ctx context.Context, caller common.Address, baseAmountIn, minTokenOut *uint256.Int) (model.Receipt, error) {
	return c.run(ctx, operation{
		op:     model.OpBuy,
		caller: caller,
		role:   access.RoleBuy,
		plan: func(r model.Reserves) (pricing.Quote, error) {
			if isZero(baseAmountIn) {
				return pricing.Quote{}, ErrInvalidAmount
			}
			q, err := c.quoter.Buy(r, baseAmountIn)
			if err != nil {
				return q, err
			}
			return q, checkOutput(&q.TokenOut, &r.Token, minTokenOut)
		},
	})
}

// SellTokens spends tokenAmountIn on the base asset. A non-nil minBaseOut
// rejects trades that would pay out less.
func (c *Controller) SellTokens(ctx context.Context, caller common.Address, tokenAmountIn, minBaseOut *uint256.Int) (model.Receipt, error) {
	return c.run(ctx, operation{
		op:     model.OpSell,
		caller: caller,
		role:   access.RoleSell,
		plan: func(r model.Reserves) (pricing.Quote, error) {
			if isZero(tokenAmountIn) {
				return pricing.Quote{}, ErrInvalidAmount
			}
			q, err := c.quoter.Sell(r, tokenAmountIn)
			if err != nil {
				return q, err
			}
			return q, checkOutput(&q.BaseOut, &r.Base, minBaseOut)
		},
	})
}

// isZero treats a missing amount as zero.
func isZero(v *uint256.Int) bool {
	return v == nil || v.IsZero()
}

func checkOutput(out, reserve, min *uint256.Int) error {
	if out.IsZero() || !out.Lt(reserve) {
		return ErrInsufficientOutput
	}
	if min != nil && out.Lt(min) {
		return fmt.Errorf("output %s below minimum %s: %w", out.Dec(), min.Dec(), ErrInsufficientOutput)
	}
	return nil
}

type operation struct {
	op     model.Op
	caller common.Address
	role   access.Role
	init   bool
	plan   func(model.Reserves) (pricing.Quote, error)
}

func (c *Controller) run(ctx context.Context, o operation) (model.Receipt, error) {
	if err := ctx.Err(); err != nil {
		return model.Receipt{}, fmt.Errorf("%s: %w", o.op, err)
	}
	if err := c.auth.Authorize(o.caller, o.role); err != nil {
		return model.Receipt{}, fmt.Errorf("%s: %w", o.op, err)
	}

	receipt, err := c.apply(ctx, o)
	if err != nil {
		c.logger.Debug("pool op rejected",
			zap.String("op", string(o.op)),
			zap.Stringer("caller", o.caller),
			zap.String("kind", Kind(err)),
			zap.Error(err),
		)
		return model.Receipt{}, err
	}

	c.logger.Debug("pool op applied",
		zap.String("op", string(o.op)),
		zap.Stringer("caller", o.caller),
		zap.Stringer("reserves", receipt.Reserves),
	)
	c.notify(receipt)
	return receipt, nil
}

func (c *Controller) apply(ctx context.Context, o operation) (model.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case o.init && c.initialized:
		return model.Receipt{}, fmt.Errorf("%s: %w", o.op, ErrAlreadyInitialized)
	case !o.init && !c.initialized:
		return model.Receipt{}, fmt.Errorf("%s: %w", o.op, ErrNotInitialized)
	}

	snapshot := c.ledger.Reserves()
	q, err := o.plan(snapshot)
	if err != nil {
		return model.Receipt{}, fmt.Errorf("%s: %w", o.op, classify(err))
	}

	tx := &legs{ctx: ctx, gw: c.gateway}
	if err := tx.in(model.AssetBase, o.caller, &q.BaseIn); err != nil {
		return model.Receipt{}, c.abort(o, tx, snapshot, fmt.Errorf("%s: receive base: %w: %v", o.op, ErrTransferFailed, err))
	}
	if err := tx.in(model.AssetToken, o.caller, &q.TokenIn); err != nil {
		return model.Receipt{}, c.abort(o, tx, snapshot, fmt.Errorf("%s: receive token: %w: %v", o.op, ErrTokenTransferFailed, err))
	}

	if o.init {
		c.ledger.Set(model.NewReserves(&q.BaseIn, &q.TokenIn))
	} else {
		baseDelta := new(big.Int).Add(ledger.Credit(&q.BaseIn), ledger.Debit(&q.BaseOut))
		tokenDelta := new(big.Int).Add(ledger.Credit(&q.TokenIn), ledger.Debit(&q.TokenOut))
		if err := c.ledger.ApplyDelta(baseDelta, tokenDelta); err != nil {
			return model.Receipt{}, c.abort(o, tx, snapshot, fmt.Errorf("%s: %w", o.op, classify(err)))
		}
	}

	if err := tx.out(model.AssetToken, o.caller, &q.TokenOut); err != nil {
		return model.Receipt{}, c.abort(o, tx, snapshot, fmt.Errorf("%s: send token: %w: %v", o.op, ErrTransferFailed, err))
	}
	if err := tx.out(model.AssetBase, o.caller, &q.BaseOut); err != nil {
		return model.Receipt{}, c.abort(o, tx, snapshot, fmt.Errorf("%s: send base: %w: %v", o.op, ErrTransferFailed, err))
	}

	if o.init {
		c.initialized = true
	}

	c.applied++
	receipt := model.Receipt{
		Seq:      c.applied,
		Op:       o.op,
		Caller:   o.caller,
		Reserves: c.ledger.Reserves(),
	}
	receipt.BaseIn.Set(&q.BaseIn)
	receipt.TokenIn.Set(&q.TokenIn)
	receipt.BaseOut.Set(&q.BaseOut)
	receipt.TokenOut.Set(&q.TokenOut)
	return receipt, nil
}

// abort restores the ledger snapshot and reverses completed legs.
func (c *Controller) abort(o operation, tx *legs, snapshot model.Reserves, cause error) error {
	c.ledger.Set(snapshot)
	if errs := tx.reverse(); len(errs) > 0 {
		joined := errors.Join(errs...)
		c.logger.Error("compensation failed",
			zap.String("op", string(o.op)),
			zap.Stringer("caller", o.caller),
			zap.Error(joined),
		)
		return fmt.Errorf("%w (compensation: %v)", cause, joined)
	}
	return cause
}

func (c *Controller) notify(receipt model.Receipt) {
	c.listenersMu.RLock()
	listeners := append([]Listener(nil), c.listeners...)
	c.listenersMu.RUnlock()
	for _, fn := range listeners {
		fn(receipt)
	}
}
