package replay

import (
	"assetpool/internal/fixed"
	"assetpool/internal/model"
)

// Accumulator totals journal activity by operation.
type Accumulator struct {
	Operations        map[string]uint64
	Contributed       fixed.Decimal
	UnitsMinted       fixed.Decimal
	UnitsBurned       fixed.Decimal
	Redeemed          fixed.Decimal
	Withdrawn         fixed.Decimal
	Deposited         fixed.Decimal
	ExternalIncreased fixed.Decimal
	ExternalDecreased fixed.Decimal
	FlashloanVolume   fixed.Decimal
	FlashloanFees     fixed.Decimal
}

func NewAccumulator() *Accumulator {
	return &Accumulator{Operations: make(map[string]uint64)}
}

func (a *Accumulator) Add(ev model.Event) error {
	a.Operations[ev.Operation]++

	var err error
	switch ev.Operation {
	case model.OpContribute:
		if a.Contributed, err = addAmount(a.Contributed, ev.Amount); err != nil {
			return err
		}
		a.UnitsMinted, err = addAmount(a.UnitsMinted, ev.UnitsMinted)
	case model.OpRedeem:
		if a.UnitsBurned, err = addAmount(a.UnitsBurned, ev.UnitsBurned); err != nil {
			return err
		}
		a.Redeemed, err = addAmount(a.Redeemed, ev.AmountOut)
	case model.OpProtectedWithdraw:
		a.Withdrawn, err = addAmount(a.Withdrawn, ev.AmountOut)
	case model.OpProtectedDeposit:
		a.Deposited, err = addAmount(a.Deposited, ev.Amount)
	case model.OpIncreaseExternal:
		a.ExternalIncreased, err = addAmount(a.ExternalIncreased, ev.Amount)
	case model.OpDecreaseExternal:
		a.ExternalDecreased, err = addAmount(a.ExternalDecreased, ev.Amount)
	case model.OpFlashloan:
		if a.FlashloanVolume, err = addAmount(a.FlashloanVolume, ev.LoanAmount); err != nil {
			return err
		}
		a.FlashloanFees, err = addAmount(a.FlashloanFees, ev.FeeAmount)
	}
	return err
}

func addAmount(total fixed.Decimal, value string) (fixed.Decimal, error) {
	if value == "" {
		return total, nil
	}
	amount, err := fixed.Parse(value)
	if err != nil {
		return total, err
	}
	return total.Add(amount), nil
}
