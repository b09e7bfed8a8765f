package pool

import (
	"errors"

	"assetpool/internal/token"
)

var (
	// Shared with the token layer: mismatches and bad amounts raised by
	// buckets, issuers and vaults match the same sentinels.
	ErrResourceMismatch = token.ErrResourceMismatch
	ErrInvalidAmount    = token.ErrInvalidAmount

	ErrInsufficientLiquidity      = errors.New("pool: not enough liquidity to withdraw this amount")
	ErrInsufficientRepayment      = errors.New("pool: insufficient repayment for loan")
	ErrOverdrawnExternalLiquidity = errors.New("pool: amount greater than external liquidity")
	ErrInvalidState               = errors.New("pool: invalid pool state")
)
