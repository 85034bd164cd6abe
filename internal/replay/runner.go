package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"araswap/internal/gateway"
	"araswap/internal/mirror"
	"araswap/internal/model"
	"araswap/internal/pool"
	"araswap/internal/storage"
)

// KindInvalidCommand marks replay lines that never reached the pool.
const KindInvalidCommand = "invalid_command"

// RunConfig holds runtime settings for a replay.
type RunConfig struct {
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Summary counts the outcome of a replay.
type Summary struct {
	Total   int
	Applied int
	Failed  int
	LastSeq uint64
	State   model.State
}

// Runner feeds replay commands through a dispatcher and journals the results.
type Runner struct {
	cfg        RunConfig
	controller *pool.Controller
	book       *gateway.Book
	journal    storage.Journal
	snapshots  storage.SnapshotStore
	logger     *zap.Logger
	now        func() time.Time
	seq        uint64
}

// NewRunner builds a Runner. journal and snapshots may be nil.
func NewRunner(cfg RunConfig, controller *pool.Controller, book *gateway.Book, journal storage.Journal, snapshots storage.SnapshotStore, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Runner{
		cfg:        cfg,
		controller: controller,
		book:       book,
		journal:    journal,
		snapshots:  snapshots,
		logger:     logger,
		now:        time.Now,
	}
}

// Restore loads the last snapshot into the controller and moves the matching
// reserves into the book's custody.
func (r *Runner) Restore(ctx context.Context) error {
	if r.snapshots == nil {
		return nil
	}
	rec, ok, err := r.snapshots.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if !ok {
		return nil
	}
	state, err := rec.State()
	if err != nil {
		return fmt.Errorf("parse snapshot: %w", err)
	}
	if err := r.controller.Restore(state); err != nil {
		return fmt.Errorf("restore pool: %w", err)
	}
	if r.book != nil {
		if err := r.book.SetCustody(model.AssetBase, &state.Base); err != nil {
			return err
		}
		if err := r.book.SetCustody(model.AssetToken, &state.Token); err != nil {
			return err
		}
	}
	r.seq = rec.Seq
	r.logger.Info("resume from snapshot",
		zap.Stringer("reserves", state.Reserves),
		zap.Bool("initialized", state.Initialized),
		zap.Uint64("seq", rec.Seq),
	)
	return nil
}

// Run executes every command in in, then saves a snapshot.
func (r *Runner) Run(ctx context.Context, in io.Reader) (Summary, error) {
	if r.controller == nil {
		return Summary{}, fmt.Errorf("controller is nil")
	}

	dispatchCtx, cancel := context.WithCancel(ctx)
	store := mirror.NewStore()
	dispatcher := mirror.NewDispatcher(r.controller, store, r.cfg.BatchSize, r.logger)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		_ = dispatcher.Run(dispatchCtx)
	}()
	defer func() {
		cancel()
		<-stopped
	}()

	scanner := bufio.NewScanner(in)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	var summary Summary
	batch := make([]model.OperationRecord, 0, r.cfg.BatchSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Total++

		rec := r.execute(ctx, dispatcher, line)
		if rec.Failed() {
			summary.Failed++
		} else {
			summary.Applied++
		}
		batch = append(batch, rec)

		if len(batch) >= r.cfg.BatchSize {
			if err := r.flush(ctx, batch); err != nil {
				return summary, err
			}
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return summary, fmt.Errorf("scan input: %w", err)
	}
	if err := r.flush(ctx, batch); err != nil {
		return summary, err
	}

	summary.LastSeq = r.seq
	summary.State = r.controller.State()
	if r.snapshots != nil {
		rec := model.RecordFromState(summary.State, r.timestamp())
		rec.Seq = r.seq
		if err := r.snapshots.Save(ctx, rec); err != nil {
			return summary, fmt.Errorf("save snapshot: %w", err)
		}
	}

	view := store.Snapshot()
	r.logger.Info("replay done",
		zap.Int("total", summary.Total),
		zap.Int("applied", summary.Applied),
		zap.Int("failed", summary.Failed),
		zap.Stringer("reserves", view.Reserves),
		zap.String("ratio", view.Ratio),
	)
	return summary, nil
}

func (r *Runner) execute(ctx context.Context, dispatcher *mirror.Dispatcher, line []byte) model.OperationRecord {
	r.seq++

	var raw model.Command
	if err := json.Unmarshal(line, &raw); err != nil {
		return r.rejected(raw, KindInvalidCommand, err)
	}
	cmd, err := ParseCommand(raw)
	if err != nil {
		return r.rejected(raw, KindInvalidCommand, err)
	}

	res := dispatcher.Do(ctx, cmd)
	if res.Err != nil {
		return r.rejected(raw, pool.Kind(res.Err), res.Err)
	}
	return model.RecordFromReceipt(r.seq, res.Receipt, r.timestamp())
}

func (r *Runner) rejected(raw model.Command, kind string, err error) model.OperationRecord {
	state := r.controller.State()
	return model.OperationRecord{
		Seq:          r.seq,
		Op:           raw.Op,
		Caller:       raw.Caller,
		BaseIn:       "0",
		TokenIn:      "0",
		BaseOut:      "0",
		TokenOut:     "0",
		BaseReserve:  state.Base.Dec(),
		TokenReserve: state.Token.Dec(),
		Initialized:  state.Initialized,
		ErrorKind:    kind,
		Error:        err.Error(),
		AppliedAt:    r.timestamp(),
	}
}

func (r *Runner) flush(ctx context.Context, records []model.OperationRecord) error {
	if r.journal == nil || len(records) == 0 {
		return nil
	}
	err := withRetry(ctx, r.logger, "write journal", r.cfg.MaxRetries, r.cfg.RetryBackoff, func(ctx context.Context) error {
		return r.journal.Append(ctx, records)
	})
	if err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	r.logger.Debug("journal flushed", zap.Int("records", len(records)), zap.Uint64("seq", records[len(records)-1].Seq))
	return nil
}

func (r *Runner) timestamp() string {
	return r.now().UTC().Format(time.RFC3339Nano)
}
