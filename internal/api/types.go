package api

import "assetpool/internal/model"

// APIRespond is the envelope for every endpoint.
type APIRespond struct {
	Result interface{} `json:"result"`
	Error  *string     `json:"error"`
}

type AmountRequest struct {
	Amount string `json:"amount"`
}

type WithdrawRequest struct {
	Amount       string `json:"amount"`
	WithdrawType string `json:"withdraw_type"`
	Strategy     string `json:"strategy"`
}

type DepositRequest struct {
	Amount      string `json:"amount"`
	DepositType string `json:"deposit_type"`
}

type FlashloanRequest struct {
	LoanAmount  string `json:"loan_amount"`
	FeeAmount   string `json:"fee_amount"`
	RepayAmount string `json:"repay_amount"`
}

// Mutation responses carry the pool state committed by that operation,
// not a later read of the pool.
type ContributeRespond struct {
	UnitsMinted string           `json:"units_minted"`
	Pool        model.PoolStatus `json:"pool"`
}

type RedeemRespond struct {
	AmountOut string           `json:"amount_out"`
	Pool      model.PoolStatus `json:"pool"`
}

type WithdrawRespond struct {
	AmountOut string           `json:"amount_out"`
	Pool      model.PoolStatus `json:"pool"`
}

// PoolRespond answers mutations whose only output is the new state.
type PoolRespond struct {
	Pool model.PoolStatus `json:"pool"`
}

type FlashloanRespond struct {
	Change string           `json:"change"`
	Pool   model.PoolStatus `json:"pool"`
}
