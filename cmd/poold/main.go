package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"assetpool/internal/api"
	"assetpool/internal/config"
	"assetpool/internal/fixed"
	"assetpool/internal/ledger"
	"assetpool/internal/model"
	"assetpool/internal/pool"
	"assetpool/internal/storage"
	"assetpool/internal/storage/postgres"
)

func main() {
	root := &cobra.Command{
		Use:          "poold",
		Short:        "Single-asset liquidity pool service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pool HTTP service",
		RunE:  runServe,
	}

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("asset", "", "pooled asset address (hex)")
	serveCmd.Flags().String("symbol", "ASSET", "pooled asset symbol")
	serveCmd.Flags().Uint("divisibility", 18, "asset divisibility (0-18)")
	serveCmd.Flags().String("api-key", "", "admin API key")
	serveCmd.Flags().String("journal", "./data/journal.jsonl", "operation journal JSONL path")
	serveCmd.Flags().String("snapshot-file", "./data/snapshot.json", "snapshot JSON path (used when pg-dsn is unset)")
	serveCmd.Flags().String("pg-dsn", "", "Postgres DSN for snapshots (optional)")
	serveCmd.Flags().Int("snapshot-retries", 3, "snapshot upsert retry attempts")
	serveCmd.Flags().Duration("snapshot-retry-backoff", 500*time.Millisecond, "initial snapshot retry backoff")
	serveCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	serveCmd.Flags().String("gin-mode", "release", "gin mode (debug, release, test)")

	root.AddCommand(serveCmd)

	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "Rebuild and verify pool state from the journal",
		RunE:  runReplay,
	}

	replayCmd.Flags().String("journal", "./data/journal.jsonl", "operation journal JSONL path")
	replayCmd.Flags().String("asset", "", "pooled asset address (hex)")
	replayCmd.Flags().String("symbol", "ASSET", "pooled asset symbol")
	replayCmd.Flags().Uint("divisibility", 18, "asset divisibility (0-18)")
	replayCmd.Flags().String("pg-dsn", "", "Postgres DSN for the event mirror (optional)")
	replayCmd.Flags().Int("batch-size", 1000, "batch size for DB writes")
	replayCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(replayCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
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
	if cfg.APIKey == "" {
		return fmt.Errorf("api key is required")
	}
	if cfg.Divisibility > uint(fixed.DecimalPlaces) {
		return fmt.Errorf("divisibility must be between 0 and %d", fixed.DecimalPlaces)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gin.SetMode(cfg.GinMode)

	asset := common.HexToAddress(cfg.Asset)
	p := pool.New(asset, uint8(cfg.Divisibility), cfg.Symbol)
	startSeq := uint64(0)

	var snaps ledger.SnapshotStore
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()

		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}

		snap, ok, err := store.LoadSnapshot(ctx, asset.Hex())
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			if p, startSeq, err = restorePool(logger, snap); err != nil {
				return err
			}
		}
		snaps = store
	} else if cfg.SnapshotFile != "" {
		store := storage.NewFileSnapshotStore(cfg.SnapshotFile)

		snap, ok, err := store.Load()
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		if ok {
			if p, startSeq, err = restorePool(logger, snap); err != nil {
				return err
			}
		}
		snaps = store
	}

	reg := prometheus.NewRegistry()
	led := ledger.New(p, ledger.Options{
		StartSequence:      startSeq,
		Journal:            storage.NewJsonlJournal(cfg.Journal),
		Snapshots:          snaps,
		Logger:             logger,
		Metrics:            ledger.NewMetrics(reg),
		SnapshotRetries:    cfg.SnapshotRetries,
		SnapshotRetryDelay: cfg.SnapshotRetryBackoff,
	})

	server := &http.Server{
		Addr:    cfg.Listen,
		Handler: api.NewServer(led, cfg.APIKey, reg).Router(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	logger.Info("serve start",
		zap.String("listen", cfg.Listen),
		zap.String("asset", asset.Hex()),
		zap.String("symbol", cfg.Symbol),
		zap.Uint("divisibility", cfg.Divisibility),
		zap.String("journal", cfg.Journal),
		zap.String("snapshot_file", cfg.SnapshotFile),
		zap.String("pg_dsn", redactDSN(cfg.PGDSN)),
		zap.Uint64("sequence", startSeq),
	)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func restorePool(logger *zap.Logger, snap model.Snapshot) (*pool.AssetPool, uint64, error) {
	st, err := ledger.StateFromSnapshot(snap)
	if err != nil {
		return nil, 0, fmt.Errorf("restore snapshot: %w", err)
	}
	logger.Info("state restored from snapshot",
		zap.Uint64("sequence", snap.Sequence),
		zap.String("custody", snap.Custody),
		zap.String("unit_supply", snap.UnitSupply),
	)
	return pool.Restore(st), snap.Sequence, nil
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
