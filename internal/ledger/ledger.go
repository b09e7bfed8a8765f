// Package ledger is the atomic operation boundary around a pool. Every
// operation runs on a private clone of the pool state; the clone
// replaces the live pool only if the operation finishes without error,
// leaves no flash-loan receipt outstanding, and its event reaches the
// journal. A failure at any of those points discards the clone whole.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"assetpool/internal/auth"
	"assetpool/internal/fixed"
	"assetpool/internal/model"
	"assetpool/internal/pool"
	"assetpool/internal/storage"
	"assetpool/internal/token"
	"assetpool/internal/vault"
)

var ErrDanglingReceipt = errors.New("ledger: flash-loan receipt outstanding at commit")

// SnapshotStore persists the latest pool snapshot. It holds derived
// data: the journal stays the source of truth.
type SnapshotStore interface {
	UpsertSnapshot(ctx context.Context, snap model.Snapshot) error
}

// Options carries the ledger's collaborators. Journal, Snapshots and
// Metrics may each be nil; Logger defaults to a no-op logger.
type Options struct {
	StartSequence      uint64
	Journal            storage.Journal
	Snapshots          SnapshotStore
	Logger             *zap.Logger
	Metrics            *Metrics
	SnapshotRetries    int
	SnapshotRetryDelay time.Duration
}

// Ledger serializes operations against one pool.
type Ledger struct {
	mu      sync.Mutex
	pool    *pool.AssetPool
	seq     uint64
	journal storage.Journal
	snaps   SnapshotStore
	log     *zap.Logger
	metrics *Metrics

	snapRetries int
	snapDelay   time.Duration
}

func New(p *pool.AssetPool, opts Options) *Ledger {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	retries := opts.SnapshotRetries
	if retries < 0 {
		retries = 0
	}
	delay := opts.SnapshotRetryDelay
	if delay <= 0 {
		delay = 100 * time.Millisecond
	}
	return &Ledger{
		pool:        p,
		seq:         opts.StartSequence,
		journal:     opts.Journal,
		snaps:       opts.Snapshots,
		log:         log,
		metrics:     opts.Metrics,
		snapRetries: retries,
		snapDelay:   delay,
	}
}

// Session is one operation's private view of the pool. Everything it
// mutates stays invisible until the ledger commits it.
type Session struct {
	*pool.AssetPool
}

// Borrower receives the flash-loaned assets and must hand back the
// repayment. It runs inside the loan's atomic operation, the only
// window in which the receipt exists.
type Borrower func(loan token.Bucket, term token.FlashloanTerm) (token.Bucket, error)

// Execute runs fn as one named atomic operation and reports the pool
// state it committed. It is the entry point for composite flows; the
// typed operations below cover the standard ones.
func (l *Ledger) Execute(ctx context.Context, caller auth.Caller, op string, fn func(s *Session) error) (model.PoolStatus, error) {
	return l.run(ctx, caller, op, func(s *Session, _ *model.Event) error {
		return fn(s)
	})
}

// run executes one operation and, on commit, returns the exact state
// that operation left behind, which may differ from the live pool by
// the time the caller looks.
func (l *Ledger) run(ctx context.Context, caller auth.Caller, op string, fn func(*Session, *model.Event) error) (model.PoolStatus, error) {
	if err := auth.Require(caller, auth.RoleAdmin); err != nil {
		l.metrics.Operation(op, "denied")
		return model.PoolStatus{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	start := time.Now()
	s := &Session{AssetPool: l.pool.Clone()}
	ev := model.Event{
		Sequence:  l.seq + 1,
		Operation: op,
		Caller:    caller.Name,
		Timestamp: start.UTC(),
	}

	if err := fn(s, &ev); err != nil {
		l.metrics.Operation(op, "aborted")
		l.metrics.Duration(op, time.Since(start))
		l.log.Warn("operation aborted",
			zap.String("op", op),
			zap.String("caller", caller.Name),
			zap.Error(err))
		return model.PoolStatus{}, err
	}
	if n := s.OutstandingReceipts(); n > 0 {
		err := fmt.Errorf("%w: %d outstanding", ErrDanglingReceipt, n)
		l.metrics.Operation(op, "aborted")
		l.metrics.Duration(op, time.Since(start))
		l.log.Warn("operation aborted",
			zap.String("op", op),
			zap.String("caller", caller.Name),
			zap.Error(err))
		return model.PoolStatus{}, err
	}

	st := s.State()
	ev.Custody = st.Custody.String()
	ev.ExternalLiquidity = st.ExternalLiquidity.String()
	ev.UnitToAssetRatio = st.UnitToAssetRatio.String()
	ev.UnitSupply = st.UnitSupply.String()

	if l.journal != nil {
		if err := l.journal.Append(ev); err != nil {
			l.metrics.Operation(op, "failed")
			l.metrics.Duration(op, time.Since(start))
			l.log.Error("journal append failed", zap.String("op", op), zap.Error(err))
			return model.PoolStatus{}, fmt.Errorf("append journal: %w", err)
		}
	}

	l.pool = s.AssetPool
	l.seq = ev.Sequence

	if l.snaps != nil {
		l.persistSnapshot(ctx, SnapshotFromState(st, ev.Sequence, ev.Timestamp))
	}

	l.metrics.Operation(op, "committed")
	l.metrics.Duration(op, time.Since(start))
	l.metrics.State(st)
	l.log.Info("operation committed",
		zap.Uint64("sequence", ev.Sequence),
		zap.String("op", op),
		zap.String("caller", caller.Name),
		zap.String("custody", ev.Custody),
		zap.String("external_liquidity", ev.ExternalLiquidity),
		zap.String("unit_supply", ev.UnitSupply))
	return statusOf(st, ev.Sequence), nil
}

// persistSnapshot upserts the snapshot, backing off exponentially on
// failure. The journal entry is already committed at this point, so a
// store that stays down costs the snapshot, not the operation.
func (l *Ledger) persistSnapshot(ctx context.Context, snap model.Snapshot) {
	delay := l.snapDelay
	var err error
	for attempt := 0; attempt <= l.snapRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				l.log.Warn("snapshot upsert abandoned",
					zap.Uint64("sequence", snap.Sequence),
					zap.Int("attempts", attempt),
					zap.Error(ctx.Err()))
				return
			case <-time.After(delay):
			}
			delay *= 2
		}
		if err = l.snaps.UpsertSnapshot(ctx, snap); err == nil {
			return
		}
	}
	l.log.Warn("snapshot upsert failed",
		zap.Uint64("sequence", snap.Sequence),
		zap.Int("attempts", l.snapRetries+1),
		zap.Error(err))
}

// Contribute deposits amount of the pooled asset and reports the pool
// units minted for it along with the committed state.
func (l *Ledger) Contribute(ctx context.Context, caller auth.Caller, amount fixed.Decimal) (fixed.Decimal, model.PoolStatus, error) {
	var minted fixed.Decimal
	st, err := l.run(ctx, caller, model.OpContribute, func(s *Session, ev *model.Event) error {
		assets, err := token.NewBucket(s.Asset(), amount)
		if err != nil {
			return err
		}
		units, err := s.Contribute(assets)
		if err != nil {
			return err
		}
		minted = units.Amount()
		ev.Amount = amount.String()
		ev.UnitsMinted = minted.String()
		return nil
	})
	if err != nil {
		return fixed.Decimal{}, model.PoolStatus{}, err
	}
	return minted, st, nil
}

// Redeem burns units pool units and reports the assets paid out along
// with the committed state.
func (l *Ledger) Redeem(ctx context.Context, caller auth.Caller, units fixed.Decimal) (fixed.Decimal, model.PoolStatus, error) {
	var out fixed.Decimal
	st, err := l.run(ctx, caller, model.OpRedeem, func(s *Session, ev *model.Event) error {
		b, err := token.NewBucket(s.UnitAsset(), units)
		if err != nil {
			return err
		}
		paid, err := s.Redeem(b)
		if err != nil {
			return err
		}
		out = paid.Amount()
		ev.UnitsBurned = units.String()
		ev.AmountOut = out.String()
		return nil
	})
	if err != nil {
		return fixed.Decimal{}, model.PoolStatus{}, err
	}
	return out, st, nil
}

// ProtectedWithdraw removes liquidity and reports the amount withdrawn
// along with the committed state.
func (l *Ledger) ProtectedWithdraw(ctx context.Context, caller auth.Caller, amount fixed.Decimal, withdrawType pool.WithdrawType, strategy vault.WithdrawStrategy) (fixed.Decimal, model.PoolStatus, error) {
	var out fixed.Decimal
	st, err := l.run(ctx, caller, model.OpProtectedWithdraw, func(s *Session, ev *model.Event) error {
		assets, err := s.ProtectedWithdraw(amount, withdrawType, strategy)
		if err != nil {
			return err
		}
		out = assets.Amount()
		ev.Amount = amount.String()
		ev.WithdrawType = withdrawType.String()
		ev.Strategy = strategy.String()
		ev.AmountOut = out.String()
		return nil
	})
	if err != nil {
		return fixed.Decimal{}, model.PoolStatus{}, err
	}
	return out, st, nil
}

// ProtectedDeposit returns liquidity to custody.
func (l *Ledger) ProtectedDeposit(ctx context.Context, caller auth.Caller, amount fixed.Decimal, depositType pool.DepositType) (model.PoolStatus, error) {
	return l.run(ctx, caller, model.OpProtectedDeposit, func(s *Session, ev *model.Event) error {
		assets, err := token.NewBucket(s.Asset(), amount)
		if err != nil {
			return err
		}
		if err := s.ProtectedDeposit(assets, depositType); err != nil {
			return err
		}
		ev.Amount = amount.String()
		ev.DepositType = depositType.String()
		return nil
	})
}

// IncreaseExternalLiquidity records externally realized gains.
func (l *Ledger) IncreaseExternalLiquidity(ctx context.Context, caller auth.Caller, amount fixed.Decimal) (model.PoolStatus, error) {
	return l.run(ctx, caller, model.OpIncreaseExternal, func(s *Session, ev *model.Event) error {
		if err := s.IncreaseExternalLiquidity(amount); err != nil {
			return err
		}
		ev.Amount = amount.String()
		return nil
	})
}

// DecreaseExternalLiquidity records externally realized losses.
func (l *Ledger) DecreaseExternalLiquidity(ctx context.Context, caller auth.Caller, amount fixed.Decimal) (model.PoolStatus, error) {
	return l.run(ctx, caller, model.OpDecreaseExternal, func(s *Session, ev *model.Event) error {
		if err := s.DecreaseExternalLiquidity(amount); err != nil {
			return err
		}
		ev.Amount = amount.String()
		return nil
	})
}

// Flashloan lends, hands the assets to borrower, and settles the
// receipt, all in one atomic operation. It reports the change returned
// to the borrower after repayment along with the committed state.
func (l *Ledger) Flashloan(ctx context.Context, caller auth.Caller, loanAmount, feeAmount fixed.Decimal, borrower Borrower) (fixed.Decimal, model.PoolStatus, error) {
	if borrower == nil {
		return fixed.Decimal{}, model.PoolStatus{}, errors.New("ledger: nil borrower")
	}
	var change fixed.Decimal
	st, err := l.run(ctx, caller, model.OpFlashloan, func(s *Session, ev *model.Event) error {
		loan, receipt, err := s.TakeFlashloan(loanAmount, feeAmount)
		if err != nil {
			return err
		}
		repayment, err := borrower(loan, receipt.Term())
		if err != nil {
			return fmt.Errorf("borrower: %w", err)
		}
		repayAmount := repayment.Amount()
		ch, err := s.RepayFlashloan(repayment, receipt)
		if err != nil {
			return err
		}
		change = ch.Amount()
		ev.LoanAmount = loanAmount.String()
		ev.FeeAmount = feeAmount.String()
		ev.RepayAmount = repayAmount.String()
		ev.Change = change.String()
		return nil
	})
	if err != nil {
		return fixed.Decimal{}, model.PoolStatus{}, err
	}
	l.metrics.FlashloanVolume(loanAmount)
	return change, st, nil
}

// Status snapshots the pool for read-only callers. It takes the same
// lock as operations, so it never observes a half-applied state.
func (l *Ledger) Status() model.PoolStatus {
	l.mu.Lock()
	defer l.mu.Unlock()
	return statusOf(l.pool.State(), l.seq)
}

func statusOf(st pool.State, seq uint64) model.PoolStatus {
	return model.PoolStatus{
		Asset:             st.Asset.Hex(),
		AssetDivisibility: st.AssetDivisibility,
		UnitAsset:         st.UnitAsset.Hex(),
		UnitToAssetRatio:  st.UnitToAssetRatio.String(),
		UnitSupply:        st.UnitSupply.String(),
		Custody:           st.Custody.String(),
		ExternalLiquidity: st.ExternalLiquidity.String(),
		Sequence:          seq,
	}
}

// Sequence returns the sequence number of the last committed operation.
func (l *Ledger) Sequence() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}
