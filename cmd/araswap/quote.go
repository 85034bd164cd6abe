package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"araswap/internal/config"
	"araswap/internal/model"
	"araswap/internal/pricing"
)

func runQuote(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.Amount == "" {
		return fmt.Errorf("amount is required")
	}
	amount, err := model.ParseAmount(cfg.Amount)
	if err != nil {
		return err
	}
	base, err := model.ParseAmount(cfg.BaseReserve)
	if err != nil {
		return fmt.Errorf("base reserve: %w", err)
	}
	token, err := model.ParseAmount(cfg.TokenReserve)
	if err != nil {
		return fmt.Errorf("token reserve: %w", err)
	}
	reserves := model.NewReserves(base, token)

	quoter, err := pricing.NewQuoter(cfg.FeeBps)
	if err != nil {
		return err
	}

	var q pricing.Quote
	switch strings.ToLower(cfg.Side) {
	case string(model.OpAdd):
		q, err = quoter.Add(reserves, amount)
	case string(model.OpRemove):
		q, err = quoter.Remove(reserves, amount)
	case string(model.OpBuy):
		q, err = quoter.Buy(reserves, amount)
	case string(model.OpSell):
		q, err = quoter.Sell(reserves, amount)
	default:
		return fmt.Errorf("unknown side %q", cfg.Side)
	}
	if err != nil {
		return fmt.Errorf("quote %s: %w", cfg.Side, err)
	}

	logger.Debug("quote",
		zap.String("side", cfg.Side),
		zap.Stringer("reserves", reserves),
		zap.Uint64("fee_bps", cfg.FeeBps),
	)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "base_in=%s token_in=%s base_out=%s token_out=%s\n",
		q.BaseIn.Dec(), q.TokenIn.Dec(), q.BaseOut.Dec(), q.TokenOut.Dec())
	return nil
}
