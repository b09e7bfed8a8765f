package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assetpool/internal/fixed"
)

func TestNewResourceAddressUnique(t *testing.T) {
	a := NewResourceAddress("pool unit")
	b := NewResourceAddress("pool unit")
	assert.NotEqual(t, a, b, "same name must still yield distinct addresses")
}

func TestBucketTakeAndMerge(t *testing.T) {
	asset := NewResourceAddress("asset")
	b, err := NewBucket(asset, fixed.FromInt64(10))
	require.NoError(t, err)

	part, err := b.Take(fixed.FromInt64(4))
	require.NoError(t, err)
	assert.Equal(t, "4", part.Amount().String())
	assert.Equal(t, "6", b.Amount().String())

	_, err = b.Take(fixed.FromInt64(7))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, "6", b.Amount().String(), "failed take must not change the bucket")

	_, err = b.Take(fixed.FromInt64(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	require.NoError(t, b.Merge(part))
	assert.Equal(t, "10", b.Amount().String())

	foreign, err := NewBucket(NewResourceAddress("other"), fixed.FromInt64(1))
	require.NoError(t, err)
	assert.ErrorIs(t, b.Merge(foreign), ErrResourceMismatch)

	_, err = NewBucket(asset, fixed.FromInt64(-5))
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestFungibleIssuerLifecycle(t *testing.T) {
	iss := NewFungibleIssuer("pool unit", 18)
	assert.True(t, iss.TotalSupply().IsZero())

	minted, err := iss.Mint(fixed.FromInt64(100))
	require.NoError(t, err)
	assert.Equal(t, iss.Asset(), minted.Asset())
	assert.Equal(t, "100", iss.TotalSupply().String())

	_, err = iss.Mint(fixed.FromInt64(-1))
	assert.ErrorIs(t, err, ErrInvalidAmount)

	part, err := minted.Take(fixed.FromInt64(40))
	require.NoError(t, err)
	require.NoError(t, iss.Burn(part))
	assert.Equal(t, "60", iss.TotalSupply().String())

	foreign, err := NewBucket(NewResourceAddress("other"), fixed.FromInt64(1))
	require.NoError(t, err)
	assert.ErrorIs(t, iss.Burn(foreign), ErrResourceMismatch)

	over, err := NewBucket(iss.Asset(), fixed.FromInt64(1000))
	require.NoError(t, err)
	assert.ErrorIs(t, iss.Burn(over), ErrInsufficientBalance)
	assert.Equal(t, "60", iss.TotalSupply().String())
}

func TestFungibleIssuerDivisibility(t *testing.T) {
	iss := NewFungibleIssuer("coarse", 2)
	_, err := iss.Mint(fixed.MustParse("1.25"))
	require.NoError(t, err)

	_, err = iss.Mint(fixed.MustParse("1.255"))
	assert.ErrorIs(t, err, ErrIndivisibleAmount)
}

func TestReceiptLifecycle(t *testing.T) {
	iss := NewReceiptIssuer("flashloan receipt")
	term := FlashloanTerm{LoanAmount: fixed.FromInt64(200), FeeAmount: fixed.FromInt64(5)}

	r := iss.MintUnique(term)
	assert.Equal(t, iss.Kind(), r.Kind())
	assert.Equal(t, 0, r.Term().LoanAmount.Cmp(fixed.FromInt64(200)))
	assert.Equal(t, 1, iss.Outstanding())

	other := iss.MintUnique(term)
	assert.NotEqual(t, r.ID(), other.ID())
	assert.Equal(t, 2, iss.Outstanding())

	require.NoError(t, iss.Burn(r))
	assert.Equal(t, 1, iss.Outstanding())

	err := iss.Burn(r)
	assert.ErrorIs(t, err, ErrUnknownReceipt, "double burn must fail")

	foreign := NewReceiptIssuer("other receipt").MintUnique(term)
	assert.ErrorIs(t, iss.Burn(foreign), ErrResourceMismatch)

	assert.ErrorIs(t, iss.Burn(nil), ErrUnknownReceipt)
}

func TestReceiptIssuerCloneIndependence(t *testing.T) {
	iss := NewReceiptIssuer("flashloan receipt")
	r := iss.MintUnique(FlashloanTerm{LoanAmount: fixed.FromInt64(1)})

	clone := iss.Clone()
	require.NoError(t, clone.Burn(r))
	assert.Equal(t, 0, clone.Outstanding())
	assert.Equal(t, 1, iss.Outstanding(), "burn in the clone must not touch the original")
}

func TestFungibleIssuerCloneIndependence(t *testing.T) {
	iss := NewFungibleIssuer("pool unit", 18)
	_, err := iss.Mint(fixed.FromInt64(10))
	require.NoError(t, err)

	clone := iss.Clone()
	_, err = clone.Mint(fixed.FromInt64(5))
	require.NoError(t, err)

	assert.Equal(t, "15", clone.TotalSupply().String())
	assert.Equal(t, "10", iss.TotalSupply().String())
}
