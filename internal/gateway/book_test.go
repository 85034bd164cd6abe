package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"araswap/internal/model"
)

var (
	alice = common.HexToAddress("0x1111111111111111111111111111111111111111")
	bob   = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func TestBookTransfers(t *testing.T) {
	ctx := context.Background()
	b := NewBook(zap.NewNop())
	require.NoError(t, b.Fund(model.AssetToken, alice, uint256.NewInt(100)))

	require.NoError(t, b.TransferIn(ctx, model.AssetToken, alice, uint256.NewInt(40)))
	assert.Equal(t, uint64(60), b.Balance(model.AssetToken, alice).Uint64())
	assert.Equal(t, uint64(40), b.Custody(model.AssetToken).Uint64())

	require.NoError(t, b.TransferOut(ctx, model.AssetToken, bob, uint256.NewInt(15)))
	assert.Equal(t, uint64(15), b.Balance(model.AssetToken, bob).Uint64())
	assert.Equal(t, uint64(25), b.Custody(model.AssetToken).Uint64())
}

func TestBookRejectsOverdraw(t *testing.T) {
	ctx := context.Background()
	b := NewBook(nil)
	require.NoError(t, b.Fund(model.AssetBase, alice, uint256.NewInt(5)))

	err := b.TransferIn(ctx, model.AssetBase, alice, uint256.NewInt(6))
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, uint64(5), b.Balance(model.AssetBase, alice).Uint64())
	assert.True(t, b.Custody(model.AssetBase).IsZero())

	err = b.TransferIn(ctx, model.AssetBase, bob, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = b.TransferOut(ctx, model.AssetBase, alice, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrInsufficientBalance)

	err = b.TransferIn(ctx, model.Asset("gold"), alice, uint256.NewInt(1))
	assert.ErrorIs(t, err, ErrUnknownAsset)
}

func TestBookHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := NewBook(nil)
	require.NoError(t, b.Fund(model.AssetBase, alice, uint256.NewInt(5)))
	assert.ErrorIs(t, b.TransferIn(ctx, model.AssetBase, alice, uint256.NewInt(1)), context.Canceled)
}

func TestFaultyFailsOnce(t *testing.T) {
	ctx := context.Background()
	b := NewBook(nil)
	require.NoError(t, b.Fund(model.AssetToken, alice, uint256.NewInt(10)))
	f := NewFaulty(b)
	f.FailNext(In, model.AssetToken, 1)

	assert.ErrorIs(t, f.TransferIn(ctx, model.AssetToken, alice, uint256.NewInt(1)), ErrInjected)
	assert.NoError(t, f.TransferIn(ctx, model.AssetToken, alice, uint256.NewInt(1)))
	assert.Equal(t, uint64(9), b.Balance(model.AssetToken, alice).Uint64())
}

func TestLoadAndAccounts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.json")
	data := `[
  {"address": "0x2222222222222222222222222222222222222222", "base": "7", "token": ""},
  {"address": "0x1111111111111111111111111111111111111111", "base": "1", "token": "1000"}
]`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	entries, err := LoadBalances(path)
	require.NoError(t, err)

	b := NewBook(nil)
	require.NoError(t, b.FundAll(entries))
	assert.Equal(t, uint64(1000), b.Balance(model.AssetToken, alice).Uint64())

	accounts := b.Accounts()
	require.Len(t, accounts, 2)
	assert.Equal(t, alice.Hex(), accounts[0].Address)
	assert.Equal(t, "1000", accounts[0].Token)
	assert.Equal(t, "7", accounts[1].Base)
	assert.Equal(t, "0", accounts[1].Token)

	assert.Error(t, b.FundAll([]model.AccountBalance{{Address: "nope"}}))
}
