package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"araswap/internal/access"
	"araswap/internal/config"
	"araswap/internal/gateway"
	"araswap/internal/pool"
	"araswap/internal/replay"
	"araswap/internal/storage"
	"araswap/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "araswap",
		Short:        "Constant-product pool accounting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Run pool commands from a JSONL script",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("in", "", "input commands JSONL")
	replayCmd.Flags().String("balances", "", "participant balances JSON")
	replayCmd.Flags().String("balances-out", "", "write final participant balances to this path")
	replayCmd.Flags().String("initializer", "", "address allowed to initialize the pool")
	replayCmd.Flags().StringSlice("pool-role", nil, "addresses allowed to add and remove liquidity (default any)")
	replayCmd.Flags().StringSlice("buy-role", nil, "addresses allowed to buy (default any)")
	replayCmd.Flags().StringSlice("sell-role", nil, "addresses allowed to sell (default any)")
	replayCmd.Flags().Uint64("fee-bps", 0, "swap fee in basis points")
	replayCmd.Flags().String("journal", "", "operation journal JSONL path")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN for journal and snapshot")
	replayCmd.Flags().String("pool-name", "default", "pool name used in Postgres")
	replayCmd.Flags().String("snapshot", "", "pool snapshot file path")
	replayCmd.Flags().Int("batch-size", 100, "journal records per write")
	replayCmd.Flags().Int("max-retries", 5, "maximum journal write retries")
	replayCmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	quoteCmd := &cobra.Command{
		Use:   "quote",
		Short: "Price an operation against given reserves",
		RunE:  runQuote,
	}

	quoteCmd.Flags().String("side", "buy", "operation to price (add, remove, buy, sell)")
	quoteCmd.Flags().String("amount", "", "input amount (base for add/remove/buy, token for sell)")
	quoteCmd.Flags().String("base-reserve", "", "base reserve")
	quoteCmd.Flags().String("token-reserve", "", "token reserve")
	quoteCmd.Flags().Uint64("fee-bps", 0, "swap fee in basis points")
	quoteCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(quoteCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the reserves of a saved pool",
		RunE:  runStatus,
	}

	statusCmd.Flags().String("snapshot", "", "pool snapshot file path")
	statusCmd.Flags().String("pg-dsn", "", "Postgres DSN")
	statusCmd.Flags().String("pool-name", "default", "pool name used in Postgres")
	statusCmd.Flags().Uint8("decimals", 18, "decimals used to format amounts")
	statusCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(statusCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReplay(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadReplay(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.In == "" {
		return fmt.Errorf("input path is required")
	}
	if cfg.Initializer == "" {
		return fmt.Errorf("initializer address is required")
	}

	policy, err := buildPolicy(cfg)
	if err != nil {
		return err
	}

	book := gateway.NewBook(logger)
	if cfg.Balances != "" {
		entries, err := gateway.LoadBalances(cfg.Balances)
		if err != nil {
			return err
		}
		if err := book.FundAll(entries); err != nil {
			return fmt.Errorf("fund balances: %w", err)
		}
	}

	controller, err := pool.NewController(pool.Config{FeeBps: cfg.FeeBps, Authorizer: policy}, book, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var journals storage.MultiJournal
	var snapshots storage.SnapshotStore
	if cfg.Journal != "" {
		journals = append(journals, storage.NewJsonlJournal(cfg.Journal))
	}
	if cfg.PGDSN != "" {
		pg, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.PoolName)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		if err := pg.EnsureSchema(ctx); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
		journals = append(journals, pg)
		snapshots = pg
	}
	if cfg.Snapshot != "" {
		snapshots = &storage.SnapshotFile{Path: cfg.Snapshot}
	}

	var journal storage.Journal
	if len(journals) > 0 {
		journal = journals
	}

	runner := replay.NewRunner(replay.RunConfig{
		BatchSize:    cfg.BatchSize,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}, controller, book, journal, snapshots, logger)

	logger.Info("replay start",
		zap.String("in", cfg.In),
		zap.String("initializer", cfg.Initializer),
		zap.Uint64("fee_bps", cfg.FeeBps),
		zap.String("journal", cfg.Journal),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.String("snapshot", cfg.Snapshot),
	)

	if err := runner.Restore(ctx); err != nil {
		return err
	}

	input, err := os.Open(cfg.In)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer input.Close()

	summary, err := runner.Run(ctx, input)
	if err != nil {
		return err
	}

	if cfg.BalancesOut != "" {
		if err := gateway.SaveBalances(cfg.BalancesOut, book.Accounts()); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "commands=%d applied=%d failed=%d reserves=%s\n",
		summary.Total, summary.Applied, summary.Failed, summary.State.Reserves)
	return nil
}

func buildPolicy(cfg config.ReplayConfig) (*access.Policy, error) {
	initializer, err := replay.ParseAddress(cfg.Initializer)
	if err != nil {
		return nil, fmt.Errorf("initializer: %w", err)
	}
	policy := access.DefaultPolicy(initializer)

	roles := []struct {
		role  access.Role
		grant []string
	}{
		{access.RolePool, cfg.PoolRole},
		{access.RoleBuy, cfg.BuyRole},
		{access.RoleSell, cfg.SellRole},
	}
	for _, r := range roles {
		if len(r.grant) == 0 {
			continue
		}
		addresses, err := replay.ParseAddresses(r.grant)
		if err != nil {
			return nil, fmt.Errorf("%s role: %w", r.role, err)
		}
		policy.Revoke(r.role, access.Any)
		for _, who := range addresses {
			policy.Grant(r.role, who)
		}
	}
	return policy, nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}

func redactDSN(dsn string) string {
	if dsn == "" {
		return dsn
	}
	return "***"
}
