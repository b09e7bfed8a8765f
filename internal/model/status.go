package model

// PoolStatus is the read-only view served to API clients.
type PoolStatus struct {
	Asset             string `json:"asset"`
	AssetDivisibility uint8  `json:"asset_divisibility"`
	UnitAsset         string `json:"unit_asset"`
	UnitToAssetRatio  string `json:"unit_to_asset_ratio"`
	UnitSupply        string `json:"unit_supply"`
	Custody           string `json:"custody"`
	ExternalLiquidity string `json:"external_liquidity"`
	Sequence          uint64 `json:"sequence"`
}
