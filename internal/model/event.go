// Package model defines the wire and storage shapes shared by the
// journal, the snapshot store and the HTTP API. Amounts are always
// carried as decimal strings.
package model

import "time"

// Operation names as they appear in journal events.
const (
	OpContribute        = "contribute"
	OpRedeem            = "redeem"
	OpProtectedWithdraw = "protected_withdraw"
	OpProtectedDeposit  = "protected_deposit"
	OpIncreaseExternal  = "increase_external_liquidity"
	OpDecreaseExternal  = "decrease_external_liquidity"
	OpFlashloan         = "flashloan"
)

// Event is one committed pool operation as recorded in the journal.
// Input and output fields are set per operation; the post-state fields
// are always present and describe the pool right after the commit.
type Event struct {
	Sequence  uint64    `json:"sequence"`
	Operation string    `json:"operation"`
	Caller    string    `json:"caller"`
	Timestamp time.Time `json:"timestamp"`

	Amount       string `json:"amount,omitempty"`
	WithdrawType string `json:"withdraw_type,omitempty"`
	DepositType  string `json:"deposit_type,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	LoanAmount   string `json:"loan_amount,omitempty"`
	FeeAmount    string `json:"fee_amount,omitempty"`
	RepayAmount  string `json:"repay_amount,omitempty"`

	UnitsMinted string `json:"units_minted,omitempty"`
	UnitsBurned string `json:"units_burned,omitempty"`
	AmountOut   string `json:"amount_out,omitempty"`
	Change      string `json:"change,omitempty"`

	Custody           string `json:"custody"`
	ExternalLiquidity string `json:"external_liquidity"`
	UnitToAssetRatio  string `json:"unit_to_asset_ratio"`
	UnitSupply        string `json:"unit_supply"`
}
