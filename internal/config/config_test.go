package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadReplayDefaults(t *testing.T) {
	cfg, err := LoadReplay("", nil)
	require.NoError(t, err)
	assert.Equal(t, "default", cfg.PoolName)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Nil(t, cfg.BuyRole)
}

func TestLoadReplayFileEnvFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "araswap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
in: commands.jsonl
fee-bps: 30
buy-role:
  - 0x1111111111111111111111111111111111111111
  - " 0x2222222222222222222222222222222222222222 "
`), 0o644))

	t.Setenv("ARASWAP_JOURNAL", "journal.jsonl")

	flags := pflag.NewFlagSet("replay", pflag.ContinueOnError)
	flags.String("in", "", "")
	flags.StringSlice("sell-role", nil, "")
	require.NoError(t, flags.Parse([]string{"--in", "other.jsonl", "--sell-role", "a, ,b"}))

	cfg, err := LoadReplay(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "other.jsonl", cfg.In)
	assert.Equal(t, uint64(30), cfg.FeeBps)
	assert.Equal(t, "journal.jsonl", cfg.Journal)
	assert.Equal(t, []string{
		"0x1111111111111111111111111111111111111111",
		"0x2222222222222222222222222222222222222222",
	}, cfg.BuyRole)
	assert.Equal(t, []string{"a", "b"}, cfg.SellRole)
}

func TestLoadMissingConfigFile(t *testing.T) {
	_, err := LoadQuote(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadStatus(t *testing.T) {
	t.Setenv("ARASWAP_DECIMALS", "6")
	cfg, err := LoadStatus("", nil)
	require.NoError(t, err)
	assert.Equal(t, uint8(6), cfg.Decimals)
	assert.Equal(t, "default", cfg.PoolName)
}

func TestSplitAndClean(t *testing.T) {
	assert.Nil(t, splitAndClean(""))
	assert.Equal(t, []string{"x", "y"}, splitAndClean(" x,,y "))
}
