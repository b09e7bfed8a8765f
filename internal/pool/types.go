package pool

import "fmt"

// WithdrawType states what a privileged withdrawal means for pool
// accounting.
type WithdrawType uint8

const (
	// ForTemporaryUse marks liquidity that leaves custody but stays
	// pooled: the requested amount is added to external liquidity and
	// the cached ratio is left alone.
	ForTemporaryUse WithdrawType = iota
	// LiquidityWithdrawal permanently removes liquidity and recomputes
	// the unit/asset ratio.
	LiquidityWithdrawal
)

func (t WithdrawType) String() string {
	switch t {
	case ForTemporaryUse:
		return "for_temporary_use"
	case LiquidityWithdrawal:
		return "liquidity_withdrawal"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseWithdrawType reads the wire form produced by String.
func ParseWithdrawType(s string) (WithdrawType, error) {
	switch s {
	case "for_temporary_use":
		return ForTemporaryUse, nil
	case "liquidity_withdrawal":
		return LiquidityWithdrawal, nil
	default:
		return 0, fmt.Errorf("pool: unknown withdraw type %q", s)
	}
}

// DepositType states what a privileged deposit means for pool
// accounting.
type DepositType uint8

const (
	// FromTemporaryUse returns previously lent-out liquidity: the
	// amount is subtracted from external liquidity, no ratio update.
	FromTemporaryUse DepositType = iota
	// LiquidityAddition permanently injects liquidity and recomputes
	// the unit/asset ratio.
	LiquidityAddition
)

func (t DepositType) String() string {
	switch t {
	case FromTemporaryUse:
		return "from_temporary_use"
	case LiquidityAddition:
		return "liquidity_addition"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// ParseDepositType reads the wire form produced by String.
func ParseDepositType(s string) (DepositType, error) {
	switch s {
	case "from_temporary_use":
		return FromTemporaryUse, nil
	case "liquidity_addition":
		return LiquidityAddition, nil
	default:
		return 0, fmt.Errorf("pool: unknown deposit type %q", s)
	}
}
