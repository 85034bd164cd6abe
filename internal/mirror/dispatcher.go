package mirror

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"araswap/internal/model"
	"araswap/internal/pool"
)

// ErrStopped is returned for commands submitted to, or left queued in, a
// dispatcher whose Run has returned.
var ErrStopped = errors.New("dispatcher stopped")

// Engine is the pool surface the dispatcher drives.
type Engine interface {
	State() model.State
	OnApplied(fn pool.Listener)
	InitializePool(ctx context.Context, caller common.Address, tokenAmount, baseAmount *uint256.Int) (model.Receipt, error)
	AddToPool(ctx context.Context, caller common.Address, baseAmountIn *uint256.Int) (model.Receipt, error)
	RemoveFromPool(ctx context.Context, caller common.Address, baseAmountOut *uint256.Int) (model.Receipt, error)
	BuyTokens(ctx context.Context, caller common.Address, baseAmountIn, minTokenOut *uint256.Int) (model.Receipt, error)
	SellTokens(ctx context.Context, caller common.Address, tokenAmountIn, minBaseOut *uint256.Int) (model.Receipt, error)
}

// Command is a pool operation waiting to run.
type Command struct {
	Op     model.Op
	Caller common.Address
	// Amount is the token amount for init and sell, the base amount otherwise.
	Amount *uint256.Int
	// BaseAmount is the base asset attached to init.
	BaseAmount *uint256.Int
	// MinOut bounds buy and sell output; nil means unbounded.
	MinOut *uint256.Int
}

// Result is the outcome of one command.
type Result struct {
	Command Command
	Receipt model.Receipt
	Err     error
}

type request struct {
	ctx   context.Context
	cmd   Command
	reply chan Result
}

// Dispatcher feeds commands to the engine from a single goroutine and keeps a
// Store in step with the engine.
type Dispatcher struct {
	engine Engine
	store  *Store
	logger *zap.Logger
	queue  chan request
	done   chan struct{}

	mu      sync.RWMutex
	stopped bool
}

// NewDispatcher wires store to engine and loads the current state.
func NewDispatcher(engine Engine, store *Store, queueSize int, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	store.Load(engine.State())
	engine.OnApplied(store.Apply)
	return &Dispatcher{
		engine: engine,
		store:  store,
		logger: logger,
		queue:  make(chan request, queueSize),
		done:   make(chan struct{}),
	}
}

// Run executes queued commands until ctx is done. Commands still queued when
// it returns are answered with ErrStopped.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-d.queue:
			d.handle(req)
		}
	}
}

// stop rejects new submissions, waits out senders already inside Submit and
// answers everything left in the queue.
func (d *Dispatcher) stop() {
	close(d.done)
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()

	for {
		select {
		case req := <-d.queue:
			d.store.EndSync()
			req.reply <- Result{Command: req.cmd, Err: ErrStopped}
		default:
			return
		}
	}
}

// Submit queues cmd and returns a channel that receives its Result.
func (d *Dispatcher) Submit(ctx context.Context, cmd Command) (<-chan Result, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return nil, ErrStopped
	}

	reply := make(chan Result, 1)
	d.store.BeginSync()
	select {
	case <-d.done:
		d.store.EndSync()
		return nil, ErrStopped
	default:
	}
	select {
	case d.queue <- request{ctx: ctx, cmd: cmd, reply: reply}:
		return reply, nil
	case <-ctx.Done():
		d.store.EndSync()
		return nil, ctx.Err()
	case <-d.done:
		d.store.EndSync()
		return nil, ErrStopped
	}
}

// Do submits cmd and waits for its result.
func (d *Dispatcher) Do(ctx context.Context, cmd Command) Result {
	reply, err := d.Submit(ctx, cmd)
	if err != nil {
		return Result{Command: cmd, Err: err}
	}
	select {
	case res := <-reply:
		return res
	case <-ctx.Done():
		return Result{Command: cmd, Err: ctx.Err()}
	}
}

func (d *Dispatcher) AddToPool(ctx context.Context, caller common.Address, amount *uint256.Int) (<-chan Result, error) {
	return d.Submit(ctx, Command{Op: model.OpAdd, Caller: caller, Amount: amount})
}

func (d *Dispatcher) RemoveFromPool(ctx context.Context, caller common.Address, amount *uint256.Int) (<-chan Result, error) {
	return d.Submit(ctx, Command{Op: model.OpRemove, Caller: caller, Amount: amount})
}

func (d *Dispatcher) BuyTokens(ctx context.Context, caller common.Address, amount *uint256.Int) (<-chan Result, error) {
	return d.Submit(ctx, Command{Op: model.OpBuy, Caller: caller, Amount: amount})
}

func (d *Dispatcher) SellTokens(ctx context.Context, caller common.Address, amount *uint256.Int) (<-chan Result, error) {
	return d.Submit(ctx, Command{Op: model.OpSell, Caller: caller, Amount: amount})
}

func (d *Dispatcher) handle(req request) {
	receipt, err := d.execute(req.ctx, req.cmd)
	if err != nil {
		d.logger.Info("command rejected",
			zap.String("op", string(req.cmd.Op)),
			zap.Stringer("caller", req.cmd.Caller),
			zap.String("kind", pool.Kind(err)),
			zap.Error(err),
		)
	}
	d.store.EndSync()
	req.reply <- Result{Command: req.cmd, Receipt: receipt, Err: err}
}

func (d *Dispatcher) execute(ctx context.Context, cmd Command) (model.Receipt, error) {
	amount := cmd.Amount
	if amount == nil {
		amount = new(uint256.Int)
	}
	switch cmd.Op {
	case model.OpInitialize:
		base := cmd.BaseAmount
		if base == nil {
			base = new(uint256.Int)
		}
		return d.engine.InitializePool(ctx, cmd.Caller, amount, base)
	case model.OpAdd:
		return d.engine.AddToPool(ctx, cmd.Caller, amount)
	case model.OpRemove:
		return d.engine.RemoveFromPool(ctx, cmd.Caller, amount)
	case model.OpBuy:
		return d.engine.BuyTokens(ctx, cmd.Caller, amount, cmd.MinOut)
	case model.OpSell:
		return d.engine.SellTokens(ctx, cmd.Caller, amount, cmd.MinOut)
	default:
		return model.Receipt{}, fmt.Errorf("unknown op %q", cmd.Op)
	}
}
