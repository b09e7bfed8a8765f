package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"assetpool/internal/fixed"
)

// FungibleIssuer controls the supply of one fungible resource. The pool
// keeps the issuer of its pool units to itself, so nothing else can
// mint or burn them.
type FungibleIssuer struct {
	asset        common.Address
	divisibility uint8
	supply       fixed.Decimal
}

// NewFungibleIssuer creates a resource with a fresh address and zero supply.
func NewFungibleIssuer(name string, divisibility uint8) *FungibleIssuer {
	return &FungibleIssuer{asset: NewResourceAddress(name), divisibility: divisibility}
}

// RestoreFungibleIssuer rebuilds an issuer from persisted identity and supply.
func RestoreFungibleIssuer(asset common.Address, divisibility uint8, supply fixed.Decimal) *FungibleIssuer {
	return &FungibleIssuer{asset: asset, divisibility: divisibility, supply: supply}
}

func (f *FungibleIssuer) Asset() common.Address      { return f.asset }
func (f *FungibleIssuer) Divisibility() uint8        { return f.divisibility }
func (f *FungibleIssuer) TotalSupply() fixed.Decimal { return f.supply }

// Mint creates amount new tokens and returns them in a bucket.
func (f *FungibleIssuer) Mint(amount fixed.Decimal) (Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, fmt.Errorf("%w: mint %s", ErrInvalidAmount, amount)
	}
	if !amount.FitsDivisibility(f.divisibility) {
		return Bucket{}, fmt.Errorf("%w: mint %s at divisibility %d", ErrIndivisibleAmount, amount, f.divisibility)
	}
	f.supply = f.supply.Add(amount)
	return Bucket{asset: f.asset, amount: amount}, nil
}

// Burn destroys the bucket's tokens. The bucket must hold this issuer's
// resource; supply never burns below zero.
func (f *FungibleIssuer) Burn(b Bucket) error {
	if b.asset != f.asset {
		return fmt.Errorf("%w: burn %s via issuer of %s", ErrResourceMismatch, b.asset, f.asset)
	}
	if b.amount.Cmp(f.supply) > 0 {
		return fmt.Errorf("%w: burn %s of supply %s", ErrInsufficientBalance, b.amount, f.supply)
	}
	f.supply = f.supply.Sub(b.amount)
	return nil
}

// Clone returns an independent copy for use inside an operation session.
func (f *FungibleIssuer) Clone() *FungibleIssuer {
	c := *f
	return &c
}
