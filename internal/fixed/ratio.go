package fixed

import (
	"fmt"
	"math/big"
)

// Ratio is a signed fixed-point number with 36 fractional digits. It is
// the precision at which unit/asset exchange ratios are cached and
// applied; amounts are narrowed back to Decimal only at the edge of an
// operation. Like Decimal, values are immutable.
type Ratio struct {
	raw *big.Int
}

// RatioOne returns the ratio 1, the defined exchange rate of an empty pool.
func RatioOne() Ratio {
	return Ratio{raw: new(big.Int).Set(ratioUnit)}
}

// ParseRatio reads a decimal string with at most 36 fractional digits.
func ParseRatio(s string) (Ratio, error) {
	raw, err := parseScaled(s, RatioPlaces)
	if err != nil {
		return Ratio{}, err
	}
	return Ratio{raw: raw}, nil
}

// MustParseRatio is ParseRatio for literals known to be well formed.
func MustParseRatio(s string) Ratio {
	r, err := ParseRatio(s)
	if err != nil {
		panic(err)
	}
	return r
}

func (r Ratio) bi() *big.Int {
	if r.raw == nil {
		return new(big.Int)
	}
	return r.raw
}

// Decimal truncates r toward zero to working precision.
func (r Ratio) Decimal() Decimal {
	return Decimal{raw: new(big.Int).Quo(r.bi(), promote)}
}

// Cmp compares r and o, returning -1, 0 or 1.
func (r Ratio) Cmp(o Ratio) int { return r.bi().Cmp(o.bi()) }

func (r Ratio) IsZero() bool { return r.bi().Sign() == 0 }

// Equal reports whether r and o are numerically identical.
func (r Ratio) Equal(o Ratio) bool { return r.Cmp(o) == 0 }

// String renders r without trailing fractional zeros.
func (r Ratio) String() string {
	return formatScaled(r.bi(), ratioUnit, RatioPlaces)
}

// MarshalJSON encodes r as a decimal string.
func (r Ratio) MarshalJSON() ([]byte, error) {
	return []byte(`"` + r.String() + `"`), nil
}

func (r *Ratio) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("fixed: ratio must be a JSON string, got %s", s)
	}
	v, err := ParseRatio(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*r = v
	return nil
}
