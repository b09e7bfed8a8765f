package replay

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"assetpool/internal/auth"
	"assetpool/internal/fixed"
	"assetpool/internal/ledger"
	"assetpool/internal/model"
	"assetpool/internal/pool"
	"assetpool/internal/storage"
	"assetpool/internal/token"
	"assetpool/internal/vault"
)

var testAdmin = auth.Caller{Name: "treasury", Role: auth.RoleAdmin}

// writeJournal runs one of every operation through a live ledger and
// returns the ledger plus the journal it wrote.
func writeJournal(t *testing.T) (*ledger.Ledger, *storage.JsonlJournal, string, common.Address) {
	t.Helper()
	ctx := context.Background()

	asset := token.NewResourceAddress("replay asset")
	path := filepath.Join(t.TempDir(), "journal.jsonl")
	journal := storage.NewJsonlJournal(path)
	l := ledger.New(pool.New(asset, 18, "RPL"), ledger.Options{Journal: journal, Logger: zap.NewNop()})

	_, _, err := l.Contribute(ctx, testAdmin, fixed.FromInt64(1000))
	require.NoError(t, err)
	_, _, err = l.ProtectedWithdraw(ctx, testAdmin, fixed.FromInt64(100), pool.ForTemporaryUse, vault.WithdrawExact)
	require.NoError(t, err)
	_, err = l.ProtectedDeposit(ctx, testAdmin, fixed.FromInt64(40), pool.FromTemporaryUse)
	require.NoError(t, err)
	_, err = l.DecreaseExternalLiquidity(ctx, testAdmin, fixed.FromInt64(60))
	require.NoError(t, err)
	_, _, err = l.Flashloan(ctx, testAdmin, fixed.FromInt64(200), fixed.FromInt64(5),
		func(loan token.Bucket, term token.FlashloanTerm) (token.Bucket, error) {
			return token.NewBucket(loan.Asset(), term.LoanAmount.Add(term.FeeAmount).Add(fixed.FromInt64(5)))
		})
	require.NoError(t, err)
	_, _, err = l.ProtectedWithdraw(ctx, testAdmin, fixed.MustParse("50.5"), pool.LiquidityWithdrawal, vault.WithdrawRoundedDown)
	require.NoError(t, err)
	_, _, err = l.Redeem(ctx, testAdmin, fixed.FromInt64(100))
	require.NoError(t, err)
	_, _, err = l.Contribute(ctx, testAdmin, fixed.MustParse("123.456"))
	require.NoError(t, err)

	return l, journal, path, asset
}

func TestReplayRebuildsLedgerState(t *testing.T) {
	ctx := context.Background()
	l, _, path, asset := writeJournal(t)

	r := NewReplayer(Config{Asset: asset, AssetDivisibility: 18, Symbol: "RPL"}, nil, zap.NewNop())
	res, err := r.Run(ctx, path)
	require.NoError(t, err)

	status := l.Status()
	assert.Equal(t, 8, res.Events)
	assert.Equal(t, status.Sequence, res.LastSequence)

	custody, external := res.Pool.PooledAmounts()
	assert.Equal(t, status.Custody, custody.String())
	assert.Equal(t, status.ExternalLiquidity, external.String())
	assert.Equal(t, status.UnitSupply, res.Pool.UnitSupply().String())
	assert.Equal(t, status.UnitToAssetRatio, res.Pool.UnitRatio().String())

	assert.Equal(t, uint64(2), res.Totals.Operations[model.OpContribute])
	assert.Equal(t, uint64(2), res.Totals.Operations[model.OpProtectedWithdraw])
	assert.Equal(t, uint64(1), res.Totals.Operations[model.OpFlashloan])
	assert.Equal(t, "1123.456", res.Totals.Contributed.String())
	assert.Equal(t, "200", res.Totals.FlashloanVolume.String())
	assert.Equal(t, "5", res.Totals.FlashloanFees.String())
}

func TestReplayDetectsTampering(t *testing.T) {
	ctx := context.Background()
	l, journal, path, asset := writeJournal(t)

	forged := model.Event{
		Sequence:          l.Sequence() + 1,
		Operation:         model.OpContribute,
		Caller:            "treasury",
		Timestamp:         time.Now().UTC(),
		Amount:            "10",
		Custody:           "999999",
		ExternalLiquidity: "0",
		UnitToAssetRatio:  "1",
		UnitSupply:        "0",
	}
	require.NoError(t, journal.Append(forged))

	r := NewReplayer(Config{Asset: asset, AssetDivisibility: 18, Symbol: "RPL"}, nil, zap.NewNop())
	_, err := r.Run(ctx, path)
	assert.ErrorContains(t, err, "custody diverged")
}

func TestReplayDetectsSequenceGap(t *testing.T) {
	ctx := context.Background()
	l, journal, path, asset := writeJournal(t)

	skipped := model.Event{
		Sequence:  l.Sequence() + 3,
		Operation: model.OpContribute,
		Amount:    "10",
	}
	require.NoError(t, journal.Append(skipped))

	r := NewReplayer(Config{Asset: asset, AssetDivisibility: 18, Symbol: "RPL"}, nil, zap.NewNop())
	_, err := r.Run(ctx, path)
	assert.ErrorContains(t, err, "journal gap")
}

func TestReplayRejectsUnknownOperation(t *testing.T) {
	ctx := context.Background()
	l, journal, path, asset := writeJournal(t)

	unknown := model.Event{
		Sequence:  l.Sequence() + 1,
		Operation: "mystery",
	}
	require.NoError(t, journal.Append(unknown))

	r := NewReplayer(Config{Asset: asset, AssetDivisibility: 18, Symbol: "RPL"}, nil, zap.NewNop())
	_, err := r.Run(ctx, path)
	assert.ErrorContains(t, err, "unknown operation")
}
