package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"araswap/internal/config"
	"araswap/internal/model"
	"araswap/internal/storage"
	"araswap/internal/storage/postgres"
)

func runStatus(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadStatus(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var snapshots storage.SnapshotStore
	switch {
	case cfg.Snapshot != "":
		snapshots = &storage.SnapshotFile{Path: cfg.Snapshot}
	case cfg.PGDSN != "":
		pg, err := postgres.NewStore(ctx, cfg.PGDSN, cfg.PoolName)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pg.Close()
		snapshots = pg
	default:
		return fmt.Errorf("snapshot path or pg dsn is required")
	}

	rec, ok, err := snapshots.Load(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if !ok {
		fmt.Fprintln(out, "pool not found")
		return nil
	}
	state, err := rec.State()
	if err != nil {
		return err
	}

	fmt.Fprint(out, formatStatus(state, rec.Seq, cfg.Decimals))
	return nil
}

func formatStatus(state model.State, seq uint64, decimals uint8) string {
	if !state.Initialized {
		return fmt.Sprintf("initialized=false seq=%d\n", seq)
	}
	return fmt.Sprintf("initialized=true seq=%d\nbase_reserve=%s\ntoken_reserve=%s\nratio=%s\n",
		seq,
		model.FormatAmount(&state.Base, decimals),
		model.FormatAmount(&state.Token, decimals),
		state.Ratio(),
	)
}
