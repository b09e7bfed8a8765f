package ledger

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"assetpool/internal/fixed"
	"assetpool/internal/model"
	"assetpool/internal/pool"
)

// SnapshotFromState converts pool state into its storage form.
func SnapshotFromState(st pool.State, seq uint64, at time.Time) model.Snapshot {
	return model.Snapshot{
		Asset:             st.Asset.Hex(),
		AssetDivisibility: st.AssetDivisibility,
		Custody:           st.Custody.String(),
		ExternalLiquidity: st.ExternalLiquidity.String(),
		UnitToAssetRatio:  st.UnitToAssetRatio.String(),
		UnitAsset:         st.UnitAsset.Hex(),
		UnitSupply:        st.UnitSupply.String(),
		ReceiptKind:       st.ReceiptKind.Hex(),
		Sequence:          seq,
		UpdatedAt:         at,
	}
}

// StateFromSnapshot parses a stored snapshot back into pool state.
func StateFromSnapshot(snap model.Snapshot) (pool.State, error) {
	var st pool.State
	for _, a := range []struct {
		name  string
		value string
		dst   *common.Address
	}{
		{"asset", snap.Asset, &st.Asset},
		{"unit_asset", snap.UnitAsset, &st.UnitAsset},
		{"receipt_kind", snap.ReceiptKind, &st.ReceiptKind},
	} {
		if !common.IsHexAddress(a.value) {
			return pool.State{}, fmt.Errorf("snapshot: invalid %s address %q", a.name, a.value)
		}
		*a.dst = common.HexToAddress(a.value)
	}

	custody, err := fixed.Parse(snap.Custody)
	if err != nil {
		return pool.State{}, fmt.Errorf("snapshot custody: %w", err)
	}
	external, err := fixed.Parse(snap.ExternalLiquidity)
	if err != nil {
		return pool.State{}, fmt.Errorf("snapshot external liquidity: %w", err)
	}
	ratio, err := fixed.ParseRatio(snap.UnitToAssetRatio)
	if err != nil {
		return pool.State{}, fmt.Errorf("snapshot ratio: %w", err)
	}
	supply, err := fixed.Parse(snap.UnitSupply)
	if err != nil {
		return pool.State{}, fmt.Errorf("snapshot unit supply: %w", err)
	}

	st.AssetDivisibility = snap.AssetDivisibility
	st.Custody = custody
	st.ExternalLiquidity = external
	st.UnitToAssetRatio = ratio
	st.UnitSupply = supply
	return st, nil
}
