// Package fixed implements the fixed-point arithmetic used for asset
// amounts. Decimal carries 18 fractional digits and is the working
// precision for balances and supplies. Ratio carries 36 and is reserved
// for unit/asset exchange ratios, where the extra digits keep repeated
// conversions from drifting. Narrowing always truncates toward zero, so
// rounding error stays with the pool rather than the caller.
package fixed

import (
	"fmt"
	"math/big"
	"strings"
)

const (
	// DecimalPlaces is the fractional resolution of Decimal.
	DecimalPlaces = 18
	// RatioPlaces is the fractional resolution of Ratio.
	RatioPlaces = 36
)

var (
	decUnit   = pow10(DecimalPlaces)
	ratioUnit = pow10(RatioPlaces)
	promote   = pow10(RatioPlaces - DecimalPlaces)
	quoShift  = pow10(RatioPlaces + DecimalPlaces)
)

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// Decimal is a signed fixed-point number with 18 fractional digits.
// The zero value is 0. Values are immutable: every operation allocates
// its result and never modifies an operand, so Decimals may be freely
// copied and shared.
type Decimal struct {
	raw *big.Int
}

// FromInt64 returns v as a Decimal.
func FromInt64(v int64) Decimal {
	return Decimal{raw: new(big.Int).Mul(big.NewInt(v), decUnit)}
}

// Parse reads a plain decimal string such as "1050" or "-0.25".
// At most 18 fractional digits are accepted.
func Parse(s string) (Decimal, error) {
	raw, err := parseScaled(s, DecimalPlaces)
	if err != nil {
		return Decimal{}, err
	}
	return Decimal{raw: raw}, nil
}

// MustParse is Parse for literals known to be well formed.
func MustParse(s string) Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Decimal) bi() *big.Int {
	if d.raw == nil {
		return new(big.Int)
	}
	return d.raw
}

// Add returns d+o.
func (d Decimal) Add(o Decimal) Decimal {
	return Decimal{raw: new(big.Int).Add(d.bi(), o.bi())}
}

// Sub returns d-o.
func (d Decimal) Sub(o Decimal) Decimal {
	return Decimal{raw: new(big.Int).Sub(d.bi(), o.bi())}
}

// Cmp compares d and o, returning -1, 0 or 1.
func (d Decimal) Cmp(o Decimal) int { return d.bi().Cmp(o.bi()) }

// Sign returns -1, 0 or 1 depending on the sign of d.
func (d Decimal) Sign() int { return d.bi().Sign() }

func (d Decimal) IsZero() bool     { return d.Sign() == 0 }
func (d Decimal) IsPositive() bool { return d.Sign() > 0 }
func (d Decimal) IsNegative() bool { return d.Sign() < 0 }

// MulRatio returns d*r at ratio precision.
func (d Decimal) MulRatio(r Ratio) Ratio {
	p := new(big.Int).Mul(d.bi(), r.bi())
	return Ratio{raw: p.Quo(p, decUnit)}
}

// QuoRatio returns d/r at ratio precision, truncated toward zero.
// r must be non-zero.
func (d Decimal) QuoRatio(r Ratio) (Ratio, error) {
	if r.IsZero() {
		return Ratio{}, fmt.Errorf("fixed: division by zero ratio")
	}
	p := new(big.Int).Mul(d.bi(), quoShift)
	return Ratio{raw: p.Quo(p, r.bi())}, nil
}

// RatioOf returns a/b at ratio precision, truncated toward zero.
// b must be non-zero.
func RatioOf(a, b Decimal) (Ratio, error) {
	if b.IsZero() {
		return Ratio{}, fmt.Errorf("fixed: division by zero")
	}
	p := new(big.Int).Mul(a.bi(), ratioUnit)
	return Ratio{raw: p.Quo(p, b.bi())}, nil
}

// TruncateToDivisibility cuts d toward zero onto multiples of 10^-div.
// Divisibilities of 18 or more leave d unchanged.
func (d Decimal) TruncateToDivisibility(div uint8) Decimal {
	step := divisibilityStep(div)
	q := new(big.Int).Quo(d.bi(), step)
	return Decimal{raw: q.Mul(q, step)}
}

// FitsDivisibility reports whether d needs at most div fractional digits.
func (d Decimal) FitsDivisibility(div uint8) bool {
	return new(big.Int).Rem(d.bi(), divisibilityStep(div)).Sign() == 0
}

func divisibilityStep(div uint8) *big.Int {
	if int(div) >= DecimalPlaces {
		return big.NewInt(1)
	}
	return pow10(DecimalPlaces - int(div))
}

// String renders d without trailing fractional zeros.
func (d Decimal) String() string {
	return formatScaled(d.bi(), decUnit, DecimalPlaces)
}

// MarshalJSON encodes d as a decimal string, never a JSON number.
func (d Decimal) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Decimal) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("fixed: decimal must be a JSON string, got %s", s)
	}
	v, err := Parse(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func parseScaled(s string, places int) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("fixed: empty decimal")
	}
	body := s
	neg := false
	if body[0] == '-' {
		neg = true
		body = body[1:]
	}
	intPart, fracPart := body, ""
	if i := strings.IndexByte(body, '.'); i >= 0 {
		intPart, fracPart = body[:i], body[i+1:]
		if fracPart == "" {
			return nil, fmt.Errorf("fixed: malformed decimal %q", s)
		}
	}
	if intPart == "" || !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, fmt.Errorf("fixed: malformed decimal %q", s)
	}
	if len(fracPart) > places {
		return nil, fmt.Errorf("fixed: %q exceeds %d fractional digits", s, places)
	}
	digits := intPart + fracPart + strings.Repeat("0", places-len(fracPart))
	raw, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("fixed: malformed decimal %q", s)
	}
	if neg {
		raw.Neg(raw)
	}
	return raw, nil
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func formatScaled(raw, unit *big.Int, places int) string {
	sign := ""
	abs := new(big.Int).Abs(raw)
	if raw.Sign() < 0 {
		sign = "-"
	}
	q, r := new(big.Int).QuoRem(abs, unit, new(big.Int))
	if r.Sign() == 0 {
		return sign + q.String()
	}
	frac := strings.TrimRight(fmt.Sprintf("%0*d", places, r), "0")
	return sign + q.String() + "." + frac
}
