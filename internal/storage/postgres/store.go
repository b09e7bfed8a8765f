package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"assetpool/internal/model"
)

// Store provides Postgres persistence for pool snapshots and the event mirror.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pool_snapshots (
			asset TEXT PRIMARY KEY,
			asset_divisibility SMALLINT NOT NULL,
			custody TEXT NOT NULL,
			external_liquidity TEXT NOT NULL,
			unit_to_asset_ratio TEXT NOT NULL,
			unit_asset TEXT NOT NULL,
			unit_supply TEXT NOT NULL,
			receipt_kind TEXT NOT NULL,
			sequence BIGINT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create pool_snapshots: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pool_events (
			sequence BIGINT PRIMARY KEY,
			operation TEXT NOT NULL,
			caller TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			amount TEXT,
			withdraw_type TEXT,
			deposit_type TEXT,
			strategy TEXT,
			loan_amount TEXT,
			fee_amount TEXT,
			repay_amount TEXT,
			units_minted TEXT,
			units_burned TEXT,
			amount_out TEXT,
			change TEXT,
			custody TEXT NOT NULL,
			external_liquidity TEXT NOT NULL,
			unit_to_asset_ratio TEXT NOT NULL,
			unit_supply TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create pool_events: %w", err)
	}
	return nil
}

// UpsertSnapshot inserts or updates the snapshot row for the pool's asset.
func (s *Store) UpsertSnapshot(ctx context.Context, snap model.Snapshot) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pool_snapshots (
			asset, asset_divisibility, custody, external_liquidity, unit_to_asset_ratio,
			unit_asset, unit_supply, receipt_kind, sequence, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (asset)
		DO UPDATE SET
			custody = EXCLUDED.custody,
			external_liquidity = EXCLUDED.external_liquidity,
			unit_to_asset_ratio = EXCLUDED.unit_to_asset_ratio,
			unit_supply = EXCLUDED.unit_supply,
			sequence = EXCLUDED.sequence,
			updated_at = EXCLUDED.updated_at
	`,
		snap.Asset,
		snap.AssetDivisibility,
		snap.Custody,
		snap.ExternalLiquidity,
		snap.UnitToAssetRatio,
		snap.UnitAsset,
		snap.UnitSupply,
		snap.ReceiptKind,
		int64(snap.Sequence),
		snap.UpdatedAt,
	)
	return err
}

// InsertEvents mirrors journal events into Postgres. Rows already present
// (same sequence) are left untouched so replays are idempotent.
func (s *Store) InsertEvents(ctx context.Context, events []model.Event) error {
	if len(events) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO pool_events (
				sequence, operation, caller, ts,
				amount, withdraw_type, deposit_type, strategy,
				loan_amount, fee_amount, repay_amount,
				units_minted, units_burned, amount_out, change,
				custody, external_liquidity, unit_to_asset_ratio, unit_supply
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
			ON CONFLICT (sequence) DO NOTHING
		`,
			int64(ev.Sequence),
			ev.Operation,
			ev.Caller,
			ev.Timestamp,
			ev.Amount,
			ev.WithdrawType,
			ev.DepositType,
			ev.Strategy,
			ev.LoanAmount,
			ev.FeeAmount,
			ev.RepayAmount,
			ev.UnitsMinted,
			ev.UnitsBurned,
			ev.AmountOut,
			ev.Change,
			ev.Custody,
			ev.ExternalLiquidity,
			ev.UnitToAssetRatio,
			ev.UnitSupply,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range events {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot returns the snapshot for an asset, if one was stored.
func (s *Store) LoadSnapshot(ctx context.Context, asset string) (model.Snapshot, bool, error) {
	if asset == "" {
		return model.Snapshot{}, false, fmt.Errorf("asset required")
	}
	var snap model.Snapshot
	row := s.pool.QueryRow(ctx, `
		SELECT asset, asset_divisibility, custody, external_liquidity, unit_to_asset_ratio,
			unit_asset, unit_supply, receipt_kind, sequence, updated_at
		FROM pool_snapshots WHERE asset=$1
	`, asset)
	if err := row.Scan(
		&snap.Asset,
		&snap.AssetDivisibility,
		&snap.Custody,
		&snap.ExternalLiquidity,
		&snap.UnitToAssetRatio,
		&snap.UnitAsset,
		&snap.UnitSupply,
		&snap.ReceiptKind,
		&snap.Sequence,
		&snap.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, false, nil
		}
		return model.Snapshot{}, false, err
	}
	return snap, true, nil
}
