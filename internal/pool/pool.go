// Package pool implements the accounting core of a single-asset
// liquidity pool. The pool accepts contributions of one asset, issues
// proportional pool units against them, tracks liquidity temporarily
// lent out, and supports flash loans repaid within the same operation.
//
// Methods mutate the pool directly and may leave partial state behind
// when they fail; callers are expected to run every operation inside a
// ledger session and discard the session on any error, which is what
// makes each operation all-or-nothing.
package pool

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"assetpool/internal/fixed"
	"assetpool/internal/token"
	"assetpool/internal/vault"
)

// AssetPool holds one asset in custody, the issuer of its pool units,
// and the issuer of its flash-loan receipts.
//
// unitToAssetRatio is a cache. It tracks supply/(custody+external) but
// is recomputed only on liquidity withdrawals, liquidity additions and
// external-liquidity adjustments; contributions, redemptions and flash
// loans deliberately leave it untouched.
type AssetPool struct {
	liquidity         *vault.Vault
	externalLiquidity fixed.Decimal
	unitToAssetRatio  fixed.Ratio
	units             *token.FungibleIssuer
	receipts          *token.ReceiptIssuer
}

// New creates an empty pool for asset. The pool-unit and receipt
// resources are created alongside it with fresh addresses; units use
// maximum divisibility regardless of the asset's.
func New(asset common.Address, assetDivisibility uint8, symbol string) *AssetPool {
	return &AssetPool{
		liquidity:        vault.New(asset, assetDivisibility),
		unitToAssetRatio: fixed.RatioOne(),
		units:            token.NewFungibleIssuer(symbol+" pool unit", fixed.DecimalPlaces),
		receipts:         token.NewReceiptIssuer(symbol + " flashloan receipt"),
	}
}

// State is the complete persistent state of a pool.
type State struct {
	Asset             common.Address
	AssetDivisibility uint8
	Custody           fixed.Decimal
	ExternalLiquidity fixed.Decimal
	UnitToAssetRatio  fixed.Ratio
	UnitAsset         common.Address
	UnitSupply        fixed.Decimal
	ReceiptKind       common.Address
}

// Restore rebuilds a pool from persisted state. Receipts never survive
// an operation, so the restored pool starts with none outstanding.
func Restore(st State) *AssetPool {
	return &AssetPool{
		liquidity:         vault.Restore(st.Asset, st.AssetDivisibility, st.Custody),
		externalLiquidity: st.ExternalLiquidity,
		unitToAssetRatio:  st.UnitToAssetRatio,
		units:             token.RestoreFungibleIssuer(st.UnitAsset, fixed.DecimalPlaces, st.UnitSupply),
		receipts:          token.RestoreReceiptIssuer(st.ReceiptKind),
	}
}

// State snapshots the pool's persistent fields.
func (p *AssetPool) State() State {
	return State{
		Asset:             p.liquidity.Asset(),
		AssetDivisibility: p.liquidity.Divisibility(),
		Custody:           p.liquidity.Balance(),
		ExternalLiquidity: p.externalLiquidity,
		UnitToAssetRatio:  p.unitToAssetRatio,
		UnitAsset:         p.units.Asset(),
		UnitSupply:        p.units.TotalSupply(),
		ReceiptKind:       p.receipts.Kind(),
	}
}

// Clone returns a deep copy. Sessions mutate the clone and throw it
// away on failure.
func (p *AssetPool) Clone() *AssetPool {
	return &AssetPool{
		liquidity:         p.liquidity.Clone(),
		externalLiquidity: p.externalLiquidity,
		unitToAssetRatio:  p.unitToAssetRatio,
		units:             p.units.Clone(),
		receipts:          p.receipts.Clone(),
	}
}

func (p *AssetPool) Asset() common.Address     { return p.liquidity.Asset() }
func (p *AssetPool) AssetDivisibility() uint8  { return p.liquidity.Divisibility() }
func (p *AssetPool) UnitAsset() common.Address { return p.units.Asset() }
func (p *AssetPool) ReceiptKind() common.Address {
	return p.receipts.Kind()
}

// UnitRatio returns the cached unit/asset ratio.
func (p *AssetPool) UnitRatio() fixed.Ratio { return p.unitToAssetRatio }

// UnitSupply returns the current pool-unit supply.
func (p *AssetPool) UnitSupply() fixed.Decimal { return p.units.TotalSupply() }

// PooledAmounts returns custody balance and external liquidity.
func (p *AssetPool) PooledAmounts() (custody, external fixed.Decimal) {
	return p.liquidity.Balance(), p.externalLiquidity
}

// OutstandingReceipts returns how many flash-loan receipts are live.
func (p *AssetPool) OutstandingReceipts() int { return p.receipts.Outstanding() }

// Contribute deposits assets and mints pool units against them at the
// cached unit/asset ratio, truncating in the pool's favor.
func (p *AssetPool) Contribute(assets token.Bucket) (token.Bucket, error) {
	if assets.Asset() != p.liquidity.Asset() {
		return token.Bucket{}, fmt.Errorf("%w: contributed %s, pool holds %s", ErrResourceMismatch, assets.Asset(), p.liquidity.Asset())
	}
	if !assets.Amount().IsPositive() {
		return token.Bucket{}, fmt.Errorf("%w: contribution must be greater than zero, got %s", ErrInvalidAmount, assets.Amount())
	}
	unitAmount := assets.Amount().MulRatio(p.unitToAssetRatio).Decimal()
	if err := p.liquidity.Put(assets); err != nil {
		return token.Bucket{}, err
	}
	return p.units.Mint(unitAmount)
}

// Redeem burns pool units and pays out the matching share of custody,
// converted through the cached ratio and truncated in the pool's favor.
func (p *AssetPool) Redeem(units token.Bucket) (token.Bucket, error) {
	if units.Asset() != p.units.Asset() {
		return token.Bucket{}, fmt.Errorf("%w: redeemed %s, pool units are %s", ErrResourceMismatch, units.Asset(), p.units.Asset())
	}
	if !units.Amount().IsPositive() {
		return token.Bucket{}, fmt.Errorf("%w: redemption must be greater than zero, got %s", ErrInvalidAmount, units.Amount())
	}
	q, err := units.Amount().QuoRatio(p.unitToAssetRatio)
	if err != nil {
		return token.Bucket{}, fmt.Errorf("%w: unit/asset ratio is zero", ErrInvalidState)
	}
	amount := q.Decimal()
	if err := p.units.Burn(units); err != nil {
		return token.Bucket{}, err
	}
	if amount.Cmp(p.liquidity.Balance()) > 0 {
		return token.Bucket{}, fmt.Errorf("%w: redeem %s of %s", ErrInsufficientLiquidity, amount, p.liquidity.Balance())
	}
	return p.liquidity.Take(amount, vault.WithdrawRoundedDown)
}

// ProtectedWithdraw removes liquidity from custody on behalf of a
// privileged caller. ForTemporaryUse grows external liquidity by the
// requested amount; LiquidityWithdrawal recomputes the cached ratio.
func (p *AssetPool) ProtectedWithdraw(amount fixed.Decimal, withdrawType WithdrawType, strategy vault.WithdrawStrategy) (token.Bucket, error) {
	if amount.IsNegative() {
		return token.Bucket{}, fmt.Errorf("%w: withdraw %s", ErrInvalidAmount, amount)
	}
	assets, err := p.liquidity.Take(amount, strategy)
	if err != nil {
		if errors.Is(err, token.ErrInsufficientBalance) {
			return token.Bucket{}, fmt.Errorf("%w: withdraw %s of %s", ErrInsufficientLiquidity, amount, p.liquidity.Balance())
		}
		return token.Bucket{}, err
	}
	switch withdrawType {
	case ForTemporaryUse:
		p.externalLiquidity = p.externalLiquidity.Add(amount)
	case LiquidityWithdrawal:
		p.recomputeRatio()
	default:
		return token.Bucket{}, fmt.Errorf("pool: unknown withdraw type %s", withdrawType)
	}
	return assets, nil
}

// ProtectedDeposit returns liquidity to custody on behalf of a
// privileged caller. FromTemporaryUse shrinks external liquidity by
// the deposited amount without a floor check; LiquidityAddition
// recomputes the cached ratio.
func (p *AssetPool) ProtectedDeposit(assets token.Bucket, depositType DepositType) error {
	amount := assets.Amount()
	if err := p.liquidity.Put(assets); err != nil {
		return err
	}
	switch depositType {
	case FromTemporaryUse:
		p.externalLiquidity = p.externalLiquidity.Sub(amount)
	case LiquidityAddition:
		p.recomputeRatio()
	default:
		return fmt.Errorf("pool: unknown deposit type %s", depositType)
	}
	return nil
}

// IncreaseExternalLiquidity records liquidity gains realized outside
// custody, such as accrued interest, and recomputes the cached ratio.
func (p *AssetPool) IncreaseExternalLiquidity(amount fixed.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: increase by %s", ErrInvalidAmount, amount)
	}
	p.externalLiquidity = p.externalLiquidity.Add(amount)
	p.recomputeRatio()
	return nil
}

// DecreaseExternalLiquidity records liquidity losses realized outside
// custody and recomputes the cached ratio. The decrease cannot exceed
// what is currently marked external.
func (p *AssetPool) DecreaseExternalLiquidity(amount fixed.Decimal) error {
	if amount.IsNegative() {
		return fmt.Errorf("%w: decrease by %s", ErrInvalidAmount, amount)
	}
	if amount.Cmp(p.externalLiquidity) > 0 {
		return fmt.Errorf("%w: decrease %s of %s", ErrOverdrawnExternalLiquidity, amount, p.externalLiquidity)
	}
	p.externalLiquidity = p.externalLiquidity.Sub(amount)
	p.recomputeRatio()
	return nil
}

// TakeFlashloan lends loanAmount from custody against a receipt
// obligating repayment of loanAmount+feeAmount before the enclosing
// operation ends. The cached ratio is left alone.
func (p *AssetPool) TakeFlashloan(loanAmount, feeAmount fixed.Decimal) (token.Bucket, *token.Receipt, error) {
	if !loanAmount.IsPositive() {
		return token.Bucket{}, nil, fmt.Errorf("%w: loan must be greater than zero, got %s", ErrInvalidAmount, loanAmount)
	}
	if feeAmount.IsNegative() {
		return token.Bucket{}, nil, fmt.Errorf("%w: fee %s", ErrInvalidAmount, feeAmount)
	}
	if loanAmount.Cmp(p.liquidity.Balance()) > 0 {
		return token.Bucket{}, nil, fmt.Errorf("%w: loan %s of %s", ErrInsufficientLiquidity, loanAmount, p.liquidity.Balance())
	}
	receipt := p.receipts.MintUnique(token.FlashloanTerm{LoanAmount: loanAmount, FeeAmount: feeAmount})
	loan, err := p.liquidity.Take(loanAmount, vault.WithdrawRoundedDown)
	if err != nil {
		return token.Bucket{}, nil, err
	}
	return loan, receipt, nil
}

// RepayFlashloan settles a receipt. The repayment must cover
// loan+fee; exactly that much, fitted to the asset's divisibility,
// moves into custody and the rest is returned as change. The cached
// ratio is left alone, so the fee shows up only at the next recompute.
func (p *AssetPool) RepayFlashloan(repayment token.Bucket, receipt *token.Receipt) (token.Bucket, error) {
	if receipt == nil {
		return token.Bucket{}, fmt.Errorf("%w: nil receipt", token.ErrUnknownReceipt)
	}
	term := receipt.Term()
	due := term.LoanAmount.Add(term.FeeAmount)
	if repayment.Amount().Cmp(due) < 0 {
		return token.Bucket{}, fmt.Errorf("%w: %s due, %s given", ErrInsufficientRepayment, due, repayment.Amount())
	}
	owed, err := repayment.Take(due.TruncateToDivisibility(p.liquidity.Divisibility()))
	if err != nil {
		return token.Bucket{}, err
	}
	if err := p.liquidity.Put(owed); err != nil {
		return token.Bucket{}, err
	}
	if err := p.receipts.Burn(receipt); err != nil {
		return token.Bucket{}, err
	}
	return repayment, nil
}

func (p *AssetPool) recomputeRatio() {
	supply := p.units.TotalSupply()
	total := p.liquidity.Balance().Add(p.externalLiquidity)
	if total.IsZero() {
		p.unitToAssetRatio = fixed.RatioOne()
		return
	}
	r, err := fixed.RatioOf(supply, total)
	if err != nil {
		// total is non-zero here, so RatioOf cannot fail.
		panic(fmt.Sprintf("pool: recompute ratio %s/%s: %v", supply, total, err))
	}
	p.unitToAssetRatio = r
}
