package model

import "time"

// Snapshot is the pool's complete persistent state after a committed
// operation, keyed by the pooled asset's address.
type Snapshot struct {
	Asset             string    `json:"asset"`
	AssetDivisibility uint8     `json:"asset_divisibility"`
	Custody           string    `json:"custody"`
	ExternalLiquidity string    `json:"external_liquidity"`
	UnitToAssetRatio  string    `json:"unit_to_asset_ratio"`
	UnitAsset         string    `json:"unit_asset"`
	UnitSupply        string    `json:"unit_supply"`
	ReceiptKind       string    `json:"receipt_kind"`
	Sequence          uint64    `json:"sequence"`
	UpdatedAt         time.Time `json:"updated_at"`
}
