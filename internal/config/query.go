package config

import (
	"github.com/spf13/pflag"
)

// QuoteConfig holds configuration for the quote command.
type QuoteConfig struct {
	Side         string
	Amount       string
	BaseReserve  string
	TokenReserve string
	FeeBps       uint64
	LogLevel     string
}

// LoadQuote merges config file, environment variables, and flags into QuoteConfig.
func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"side":      "buy",
		"log-level": "info",
	})
	if err != nil {
		return QuoteConfig{}, err
	}

	return QuoteConfig{
		Side:         v.GetString("side"),
		Amount:       v.GetString("amount"),
		BaseReserve:  v.GetString("base-reserve"),
		TokenReserve: v.GetString("token-reserve"),
		FeeBps:       v.GetUint64("fee-bps"),
		LogLevel:     v.GetString("log-level"),
	}, nil
}

// StatusConfig holds configuration for the status command.
type StatusConfig struct {
	Snapshot string
	PGDSN    string
	PoolName string
	Decimals uint8
	LogLevel string
}

// LoadStatus merges config file, environment variables, and flags into StatusConfig.
func LoadStatus(cfgFile string, flags *pflag.FlagSet) (StatusConfig, error) {
	v, err := load(cfgFile, flags, map[string]interface{}{
		"pool-name": "default",
		"decimals":  18,
		"log-level": "info",
	})
	if err != nil {
		return StatusConfig{}, err
	}

	return StatusConfig{
		Snapshot: v.GetString("snapshot"),
		PGDSN:    v.GetString("pg-dsn"),
		PoolName: v.GetString("pool-name"),
		Decimals: uint8(v.GetUint("decimals")),
		LogLevel: v.GetString("log-level"),
	}, nil
}
