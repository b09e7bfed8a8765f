package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"assetpool/internal/config"
	"assetpool/internal/fixed"
	"assetpool/internal/replay"
	"assetpool/internal/storage/postgres"
)

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

	if !common.IsHexAddress(cfg.Asset) {
		return fmt.Errorf("asset address is required")
	}
	if cfg.Divisibility > uint(fixed.DecimalPlaces) {
		return fmt.Errorf("divisibility must be between 0 and %d", fixed.DecimalPlaces)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store *postgres.Store
	if cfg.PGDSN != "" {
		store, err = postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	r := replay.NewReplayer(replay.Config{
		Asset:             common.HexToAddress(cfg.Asset),
		AssetDivisibility: uint8(cfg.Divisibility),
		Symbol:            cfg.Symbol,
		BatchSize:         cfg.BatchSize,
	}, store, logger)

	logger.Info("replay start",
		zap.String("journal", cfg.Journal),
		zap.String("asset", common.HexToAddress(cfg.Asset).Hex()),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Int("batch_size", cfg.BatchSize),
	)

	res, err := r.Run(ctx, cfg.Journal)
	if err != nil {
		return err
	}

	logger.Info("replay totals",
		zap.Any("operations", res.Totals.Operations),
		zap.String("contributed", res.Totals.Contributed.String()),
		zap.String("redeemed", res.Totals.Redeemed.String()),
		zap.String("flashloan_volume", res.Totals.FlashloanVolume.String()),
		zap.String("flashloan_fees", res.Totals.FlashloanFees.String()),
	)

	return nil
}
