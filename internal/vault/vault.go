// Package vault implements custody for a single fungible resource.
package vault

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"assetpool/internal/fixed"
	"assetpool/internal/token"
)

// WithdrawStrategy controls how a requested amount is fitted onto the
// resource's divisibility grid.
type WithdrawStrategy uint8

const (
	// WithdrawExact refuses amounts that need more fractional digits
	// than the resource allows.
	WithdrawExact WithdrawStrategy = iota
	// WithdrawRoundedDown truncates the requested amount toward zero
	// onto the divisibility grid before withdrawing.
	WithdrawRoundedDown
)

func (s WithdrawStrategy) String() string {
	switch s {
	case WithdrawExact:
		return "exact"
	case WithdrawRoundedDown:
		return "rounded_down"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// ParseStrategy reads the wire form produced by String.
func ParseStrategy(s string) (WithdrawStrategy, error) {
	switch s {
	case "exact":
		return WithdrawExact, nil
	case "rounded_down":
		return WithdrawRoundedDown, nil
	default:
		return 0, fmt.Errorf("vault: unknown withdraw strategy %q", s)
	}
}

// Vault holds the balance of exactly one resource. It accepts deposits
// of that resource only and hands out withdrawals as buckets.
type Vault struct {
	asset        common.Address
	divisibility uint8
	balance      fixed.Decimal
}

// New creates an empty vault for asset.
func New(asset common.Address, divisibility uint8) *Vault {
	return &Vault{asset: asset, divisibility: divisibility}
}

// Restore rebuilds a vault from persisted identity and balance.
func Restore(asset common.Address, divisibility uint8, balance fixed.Decimal) *Vault {
	return &Vault{asset: asset, divisibility: divisibility, balance: balance}
}

func (v *Vault) Asset() common.Address  { return v.asset }
func (v *Vault) Divisibility() uint8    { return v.divisibility }
func (v *Vault) Balance() fixed.Decimal { return v.balance }

// Put deposits the bucket. The bucket must hold this vault's resource.
func (v *Vault) Put(b token.Bucket) error {
	if b.Asset() != v.asset {
		return fmt.Errorf("%w: deposit %s into vault of %s", token.ErrResourceMismatch, b.Asset(), v.asset)
	}
	v.balance = v.balance.Add(b.Amount())
	return nil
}

// Take withdraws amount, fitted to the divisibility grid per strategy.
// The withdrawal fails if the fitted amount exceeds the balance.
func (v *Vault) Take(amount fixed.Decimal, strategy WithdrawStrategy) (token.Bucket, error) {
	if amount.IsNegative() {
		return token.Bucket{}, fmt.Errorf("%w: withdraw %s", token.ErrInvalidAmount, amount)
	}
	switch strategy {
	case WithdrawExact:
		if !amount.FitsDivisibility(v.divisibility) {
			return token.Bucket{}, fmt.Errorf("%w: withdraw %s at divisibility %d", token.ErrIndivisibleAmount, amount, v.divisibility)
		}
	case WithdrawRoundedDown:
		amount = amount.TruncateToDivisibility(v.divisibility)
	default:
		return token.Bucket{}, fmt.Errorf("vault: unknown withdraw strategy %s", strategy)
	}
	if amount.Cmp(v.balance) > 0 {
		return token.Bucket{}, fmt.Errorf("%w: withdraw %s of %s", token.ErrInsufficientBalance, amount, v.balance)
	}
	v.balance = v.balance.Sub(amount)
	b, err := token.NewBucket(v.asset, amount)
	if err != nil {
		return token.Bucket{}, err
	}
	return b, nil
}

// Clone returns an independent copy for use inside an operation session.
func (v *Vault) Clone() *Vault {
	c := *v
	return &c
}
