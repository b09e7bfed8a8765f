// Package replay rebuilds pool state from the operation journal. Every
// event is reapplied to a fresh pool and checked against the post-state
// it recorded, so a completed run proves the journal is internally
// consistent. The rebuilt state can be mirrored into Postgres.
package replay

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"assetpool/internal/fixed"
	"assetpool/internal/ledger"
	"assetpool/internal/model"
	"assetpool/internal/pool"
	"assetpool/internal/storage"
	"assetpool/internal/storage/postgres"
	"assetpool/internal/token"
	"assetpool/internal/vault"
)

// Config controls replay behavior.
type Config struct {
	Asset             common.Address
	AssetDivisibility uint8
	Symbol            string
	BatchSize         int
}

// Replayer rebuilds a pool from its journal.
type Replayer struct {
	cfg    Config
	store  *postgres.Store
	logger *zap.Logger
	acc    *Accumulator
}

// NewReplayer creates a replayer. store may be nil to skip the Postgres
// mirror.
func NewReplayer(cfg Config, store *postgres.Store, logger *zap.Logger) *Replayer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Replayer{cfg: cfg, store: store, logger: logger, acc: NewAccumulator()}
}

// Result reports what a replay run rebuilt.
type Result struct {
	Events       int
	LastSequence uint64
	Pool         *pool.AssetPool
	Totals       *Accumulator
}

// Run replays the journal at journalPath from sequence one.
func (r *Replayer) Run(ctx context.Context, journalPath string) (*Result, error) {
	if r.cfg.BatchSize <= 0 {
		r.cfg.BatchSize = 1000
	}

	p := pool.New(r.cfg.Asset, r.cfg.AssetDivisibility, r.cfg.Symbol)
	batch := make([]model.Event, 0, r.cfg.BatchSize)
	var lastSeq uint64
	var total int

	err := storage.ReadJournal(journalPath, func(ev model.Event) error {
		if ev.Sequence != lastSeq+1 {
			return fmt.Errorf("event %d: journal gap after sequence %d", ev.Sequence, lastSeq)
		}
		if err := r.applyEvent(p, ev); err != nil {
			return err
		}
		if err := verifyState(p, ev); err != nil {
			return err
		}
		if err := r.acc.Add(ev); err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		lastSeq = ev.Sequence
		total++

		if r.store == nil {
			return nil
		}
		batch = append(batch, ev)
		if len(batch) >= r.cfg.BatchSize {
			if err := r.store.InsertEvents(ctx, batch); err != nil {
				return fmt.Errorf("mirror events: %w", err)
			}
			batch = batch[:0]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if p.OutstandingReceipts() != 0 {
		return nil, fmt.Errorf("replay left %d flash-loan receipts outstanding", p.OutstandingReceipts())
	}

	if r.store != nil {
		if len(batch) > 0 {
			if err := r.store.InsertEvents(ctx, batch); err != nil {
				return nil, fmt.Errorf("mirror events: %w", err)
			}
		}
		snap := ledger.SnapshotFromState(p.State(), lastSeq, time.Now().UTC())
		if err := r.store.UpsertSnapshot(ctx, snap); err != nil {
			return nil, fmt.Errorf("store snapshot: %w", err)
		}
	}

	custody, external := p.PooledAmounts()
	r.logger.Info("replay complete",
		zap.Int("events", total),
		zap.Uint64("sequence", lastSeq),
		zap.String("custody", custody.String()),
		zap.String("external_liquidity", external.String()),
		zap.String("unit_supply", p.UnitSupply().String()),
	)

	return &Result{Events: total, LastSequence: lastSeq, Pool: p, Totals: r.acc}, nil
}

func (r *Replayer) applyEvent(p *pool.AssetPool, ev model.Event) error {
	switch ev.Operation {
	case model.OpContribute:
		assets, err := bucketOf(p.Asset(), ev.Amount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		units, err := p.Contribute(assets)
		if err != nil {
			return fmt.Errorf("event %d: contribute: %w", ev.Sequence, err)
		}
		return verifyAmount(ev.Sequence, "units_minted", ev.UnitsMinted, units.Amount())

	case model.OpRedeem:
		units, err := bucketOf(p.UnitAsset(), ev.UnitsBurned)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		out, err := p.Redeem(units)
		if err != nil {
			return fmt.Errorf("event %d: redeem: %w", ev.Sequence, err)
		}
		return verifyAmount(ev.Sequence, "amount_out", ev.AmountOut, out.Amount())

	case model.OpProtectedWithdraw:
		amount, err := fixed.Parse(ev.Amount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		withdrawType, err := pool.ParseWithdrawType(ev.WithdrawType)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		strategy, err := vault.ParseStrategy(ev.Strategy)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		out, err := p.ProtectedWithdraw(amount, withdrawType, strategy)
		if err != nil {
			return fmt.Errorf("event %d: protected withdraw: %w", ev.Sequence, err)
		}
		return verifyAmount(ev.Sequence, "amount_out", ev.AmountOut, out.Amount())

	case model.OpProtectedDeposit:
		assets, err := bucketOf(p.Asset(), ev.Amount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		depositType, err := pool.ParseDepositType(ev.DepositType)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		if err := p.ProtectedDeposit(assets, depositType); err != nil {
			return fmt.Errorf("event %d: protected deposit: %w", ev.Sequence, err)
		}
		return nil

	case model.OpIncreaseExternal:
		amount, err := fixed.Parse(ev.Amount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		if err := p.IncreaseExternalLiquidity(amount); err != nil {
			return fmt.Errorf("event %d: increase external liquidity: %w", ev.Sequence, err)
		}
		return nil

	case model.OpDecreaseExternal:
		amount, err := fixed.Parse(ev.Amount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		if err := p.DecreaseExternalLiquidity(amount); err != nil {
			return fmt.Errorf("event %d: decrease external liquidity: %w", ev.Sequence, err)
		}
		return nil

	case model.OpFlashloan:
		loanAmount, err := fixed.Parse(ev.LoanAmount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		feeAmount, err := fixed.Parse(ev.FeeAmount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		_, receipt, err := p.TakeFlashloan(loanAmount, feeAmount)
		if err != nil {
			return fmt.Errorf("event %d: take flashloan: %w", ev.Sequence, err)
		}
		repayment, err := bucketOf(p.Asset(), ev.RepayAmount)
		if err != nil {
			return fmt.Errorf("event %d: %w", ev.Sequence, err)
		}
		change, err := p.RepayFlashloan(repayment, receipt)
		if err != nil {
			return fmt.Errorf("event %d: repay flashloan: %w", ev.Sequence, err)
		}
		return verifyAmount(ev.Sequence, "change", ev.Change, change.Amount())

	default:
		return fmt.Errorf("event %d: unknown operation %q", ev.Sequence, ev.Operation)
	}
}

func verifyState(p *pool.AssetPool, ev model.Event) error {
	custody, external := p.PooledAmounts()
	if got := custody.String(); got != ev.Custody {
		return fmt.Errorf("event %d: custody diverged: journal %s, replay %s", ev.Sequence, ev.Custody, got)
	}
	if got := external.String(); got != ev.ExternalLiquidity {
		return fmt.Errorf("event %d: external liquidity diverged: journal %s, replay %s", ev.Sequence, ev.ExternalLiquidity, got)
	}
	if got := p.UnitRatio().String(); got != ev.UnitToAssetRatio {
		return fmt.Errorf("event %d: unit ratio diverged: journal %s, replay %s", ev.Sequence, ev.UnitToAssetRatio, got)
	}
	if got := p.UnitSupply().String(); got != ev.UnitSupply {
		return fmt.Errorf("event %d: unit supply diverged: journal %s, replay %s", ev.Sequence, ev.UnitSupply, got)
	}
	return nil
}

func verifyAmount(seq uint64, field, recorded string, got fixed.Decimal) error {
	if recorded == "" {
		return nil
	}
	if got.String() != recorded {
		return fmt.Errorf("event %d: %s diverged: journal %s, replay %s", seq, field, recorded, got)
	}
	return nil
}

func bucketOf(asset common.Address, amount string) (token.Bucket, error) {
	value, err := fixed.Parse(amount)
	if err != nil {
		return token.Bucket{}, err
	}
	return token.NewBucket(asset, value)
}
