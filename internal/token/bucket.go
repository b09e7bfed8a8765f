package token

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"assetpool/internal/fixed"
)

// Bucket is a fungible amount of one resource in transit between a
// caller and a vault. Buckets are the only values custody accepts;
// receipts are a separate type entirely and therefore can never be
// deposited anywhere.
type Bucket struct {
	asset  common.Address
	amount fixed.Decimal
}

// NewBucket wraps amount of asset. The amount must not be negative.
func NewBucket(asset common.Address, amount fixed.Decimal) (Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	return Bucket{asset: asset, amount: amount}, nil
}

func (b Bucket) Asset() common.Address { return b.asset }
func (b Bucket) Amount() fixed.Decimal { return b.amount }
func (b Bucket) IsEmpty() bool         { return b.amount.IsZero() }

// Take splits amount off the bucket, leaving the remainder behind.
func (b *Bucket) Take(amount fixed.Decimal) (Bucket, error) {
	if amount.IsNegative() {
		return Bucket{}, fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if amount.Cmp(b.amount) > 0 {
		return Bucket{}, fmt.Errorf("%w: take %s of %s", ErrInsufficientBalance, amount, b.amount)
	}
	b.amount = b.amount.Sub(amount)
	return Bucket{asset: b.asset, amount: amount}, nil
}

// Merge folds other into b. Both buckets must hold the same resource.
func (b *Bucket) Merge(other Bucket) error {
	if other.asset != b.asset {
		return fmt.Errorf("%w: %s into %s", ErrResourceMismatch, other.asset, b.asset)
	}
	b.amount = b.amount.Add(other.amount)
	return nil
}
