package replay

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"araswap/internal/access"
	"araswap/internal/gateway"
	"araswap/internal/model"
	"araswap/internal/pool"
	"araswap/internal/storage"
)

const (
	ownerHex  = "0x1111111111111111111111111111111111111111"
	traderHex = "0x2222222222222222222222222222222222222222"
)

type memJournal struct {
	records []model.OperationRecord
	fails   int
}

func (m *memJournal) Append(_ context.Context, records []model.OperationRecord) error {
	if m.fails > 0 {
		m.fails--
		return errors.New("journal unavailable")
	}
	m.records = append(m.records, records...)
	return nil
}

func newRunner(t *testing.T, journal storage.Journal, snapshots storage.SnapshotStore) (*Runner, *gateway.Book, *pool.Controller) {
	t.Helper()
	book := gateway.NewBook(zap.NewNop())
	for _, who := range []string{ownerHex, traderHex} {
		addr := common.HexToAddress(who)
		require.NoError(t, book.Fund(model.AssetBase, addr, uint256.NewInt(10_000)))
		require.NoError(t, book.Fund(model.AssetToken, addr, uint256.NewInt(10_000)))
	}
	ctrl, err := pool.NewController(pool.Config{Authorizer: access.DefaultPolicy(common.HexToAddress(ownerHex))}, book, zap.NewNop())
	require.NoError(t, err)
	runner := NewRunner(RunConfig{BatchSize: 2, RetryBackoff: time.Millisecond}, ctrl, book, journal, snapshots, zap.NewNop())
	runner.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return runner, book, ctrl
}

const script = `
{"op":"init","caller":"` + ownerHex + `","amount":"1000","base_amount":"1"}
{"op":"add","caller":"` + traderHex + `","amount":"1"}

{"op":"remove","caller":"` + traderHex + `","amount":"1"}
{"op":"buy","caller":"` + traderHex + `","amount":"1"}
{"op":"init","caller":"` + ownerHex + `","amount":"1","base_amount":"1"}
{"op":"swap","caller":"` + traderHex + `","amount":"1"}
not json
`

func TestRunScript(t *testing.T) {
	journal := &memJournal{}
	snapshots := &storage.SnapshotFile{Path: filepath.Join(t.TempDir(), "state.json")}
	runner, book, ctrl := newRunner(t, journal, snapshots)

	summary, err := runner.Run(context.Background(), strings.NewReader(script))
	require.NoError(t, err)
	assert.Equal(t, 7, summary.Total)
	assert.Equal(t, 4, summary.Applied)
	assert.Equal(t, 3, summary.Failed)
	assert.Equal(t, uint64(7), summary.LastSeq)

	state := ctrl.State()
	assert.True(t, state.Initialized)
	assert.Equal(t, uint64(2), state.Base.Uint64())
	assert.Equal(t, uint64(500), state.Token.Uint64())
	assert.Equal(t, uint64(2), book.Custody(model.AssetBase).Uint64())
	assert.Equal(t, uint64(500), book.Custody(model.AssetToken).Uint64())

	require.Len(t, journal.records, 7)
	for i, rec := range journal.records {
		assert.Equal(t, uint64(i+1), rec.Seq)
	}
	assert.Equal(t, "1000", journal.records[1].TokenIn)
	assert.Equal(t, "500", journal.records[3].TokenOut)
	assert.Equal(t, "already_initialized", journal.records[4].ErrorKind)
	assert.Equal(t, "500", journal.records[4].TokenReserve)
	assert.Equal(t, KindInvalidCommand, journal.records[5].ErrorKind)
	assert.Equal(t, KindInvalidCommand, journal.records[6].ErrorKind)

	rec, ok, err := snapshots.Load(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "2", rec.BaseReserve)
	assert.Equal(t, "500", rec.TokenReserve)
	assert.Equal(t, uint64(7), rec.Seq)
}

func TestRestoreContinuesFromSnapshot(t *testing.T) {
	snapshots := &storage.SnapshotFile{Path: filepath.Join(t.TempDir(), "state.json")}
	first, _, _ := newRunner(t, nil, snapshots)
	_, err := first.Run(context.Background(), strings.NewReader(script))
	require.NoError(t, err)

	journal := &memJournal{}
	second, book, ctrl := newRunner(t, journal, snapshots)
	require.NoError(t, second.Restore(context.Background()))
	assert.Equal(t, uint64(500), book.Custody(model.AssetToken).Uint64())

	summary, err := second.Run(context.Background(), strings.NewReader(
		`{"op":"sell","caller":"`+traderHex+`","amount":"500"}`+"\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Applied)
	require.Len(t, journal.records, 1)
	assert.Equal(t, uint64(8), journal.records[0].Seq)
	assert.Equal(t, "1", journal.records[0].BaseOut)

	state := ctrl.State()
	assert.Equal(t, uint64(1), state.Base.Uint64())
	assert.Equal(t, uint64(1000), state.Token.Uint64())
}

func TestRestoreWithoutSnapshot(t *testing.T) {
	snapshots := &storage.SnapshotFile{Path: filepath.Join(t.TempDir(), "missing.json")}
	runner, _, ctrl := newRunner(t, nil, snapshots)
	require.NoError(t, runner.Restore(context.Background()))
	assert.False(t, ctrl.State().Initialized)
}

func TestJournalRetry(t *testing.T) {
	journal := &memJournal{fails: 2}
	runner, _, _ := newRunner(t, journal, nil)
	runner.cfg.MaxRetries = 3

	_, err := runner.Run(context.Background(), strings.NewReader(script))
	require.NoError(t, err)
	assert.Len(t, journal.records, 7)
}

func TestJournalRetryExhausted(t *testing.T) {
	journal := &memJournal{fails: 10}
	runner, _, _ := newRunner(t, journal, nil)
	runner.cfg.MaxRetries = 1

	_, err := runner.Run(context.Background(), strings.NewReader(script))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write journal")
}

func TestRunCanceled(t *testing.T) {
	runner, _, _ := newRunner(t, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := runner.Run(ctx, strings.NewReader(script))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCommand(t *testing.T) {
	cmd, err := ParseCommand(model.Command{Op: "BUY", Caller: traderHex, Amount: "5", MinOut: "2"})
	require.NoError(t, err)
	assert.Equal(t, model.OpBuy, cmd.Op)
	assert.Equal(t, uint64(5), cmd.Amount.Uint64())
	assert.Equal(t, uint64(2), cmd.MinOut.Uint64())

	cases := []model.Command{
		{Op: "mint", Caller: traderHex, Amount: "1"},
		{Op: "buy", Caller: "bob", Amount: "1"},
		{Op: "buy", Caller: traderHex, Amount: "-1"},
		{Op: "add", Caller: traderHex, Amount: "1", BaseAmount: "1"},
		{Op: "add", Caller: traderHex, Amount: "1", MinOut: "1"},
	}
	for _, c := range cases {
		_, err := ParseCommand(c)
		assert.Error(t, err, "%+v", c)
	}
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{ownerHex, " ", "any"})
	require.NoError(t, err)
	assert.Equal(t, []common.Address{common.HexToAddress(ownerHex), access.Any}, got)

	_, err = ParseAddresses([]string{"0x12"})
	assert.Error(t, err)
}

func TestWithRetry(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	calls := 0
	err := withRetry(context.Background(), zap.New(core), "append", 2, time.Millisecond, func(context.Context) error {
		calls++
		return errors.New("boom")
	})
	assert.Error(t, err)
	assert.Equal(t, 3, calls)

	entries := logs.FilterMessage("retrying").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "append", entries[0].ContextMap()["op"])
	assert.Equal(t, int64(2), entries[1].ContextMap()["attempt"])
}

func TestWithRetryStopsOnContextError(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), zap.NewNop(), "append", 5, time.Millisecond, func(context.Context) error {
		calls++
		return fmt.Errorf("append: %w", context.DeadlineExceeded)
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, calls)
}
