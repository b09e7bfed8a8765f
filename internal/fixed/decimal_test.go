package fixed

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "integer", in: "1050", want: "1050"},
		{name: "fraction", in: "0.25", want: "0.25"},
		{name: "negative", in: "-3.5", want: "-3.5"},
		{name: "trailing zeros trimmed", in: "1.230000", want: "1.23"},
		{name: "max fractional digits", in: "0.000000000000000001", want: "0.000000000000000001"},
		{name: "zero", in: "0", want: "0"},
		{name: "negative zero collapses", in: "-0.0", want: "0"},
		{name: "too many fractional digits", in: "0.0000000000000000001", wantErr: true},
		{name: "empty", in: "", wantErr: true},
		{name: "bare sign", in: "-", wantErr: true},
		{name: "trailing dot", in: "1.", wantErr: true},
		{name: "leading dot", in: ".5", wantErr: true},
		{name: "garbage", in: "12a4", wantErr: true},
		{name: "double dot", in: "1.2.3", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.String())
		})
	}
}

func TestArithmetic(t *testing.T) {
	a := MustParse("10.5")
	b := MustParse("0.25")

	assert.Equal(t, "10.75", a.Add(b).String())
	assert.Equal(t, "10.25", a.Sub(b).String())
	assert.Equal(t, "-10.25", b.Sub(a).String())
	assert.Equal(t, 1, a.Cmp(b))
	assert.Equal(t, -1, b.Cmp(a))
	assert.Equal(t, 0, a.Cmp(MustParse("10.50")))

	var zero Decimal
	assert.True(t, zero.IsZero())
	assert.Equal(t, "10.5", a.Add(zero).String(), "zero value must behave as 0")
	assert.True(t, b.Sub(a).IsNegative())
	assert.True(t, a.IsPositive())
}

func TestTruncateToDivisibility(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		div  uint8
		want string
		fits bool
	}{
		{name: "no-op at 18", in: "1.000000000000000001", div: 18, want: "1.000000000000000001", fits: true},
		{name: "cut to 6", in: "1.2345678901", div: 6, want: "1.234567", fits: false},
		{name: "cut to 0", in: "9.99", div: 0, want: "9", fits: false},
		{name: "already fits", in: "5.25", div: 2, want: "5.25", fits: true},
		{name: "negative truncates toward zero", in: "-1.239", div: 2, want: "-1.23", fits: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d := MustParse(tc.in)
			assert.Equal(t, tc.want, d.TruncateToDivisibility(tc.div).String())
			assert.Equal(t, tc.fits, d.FitsDivisibility(tc.div))
		})
	}
}

func TestMulRatioTruncates(t *testing.T) {
	// 1/3 at ratio precision, then times 1: the product keeps all 36 digits
	// and the narrowing to Decimal drops half of them, toward zero.
	third, err := RatioOf(FromInt64(1), FromInt64(3))
	require.NoError(t, err)
	got := FromInt64(1).MulRatio(third).Decimal()
	assert.Equal(t, "0.333333333333333333", got.String())

	neg := FromInt64(-1).MulRatio(third).Decimal()
	assert.Equal(t, "-0.333333333333333333", neg.String())
}

func TestQuoRatio(t *testing.T) {
	// The redeem path: units divided by a cached supply/total ratio must
	// return the full pooled total when all units are redeemed, with the
	// ratio's truncation loss vanishing in the final narrowing.
	ratio, err := RatioOf(FromInt64(100), FromInt64(1050))
	require.NoError(t, err)

	out, err := FromInt64(100).QuoRatio(ratio)
	require.NoError(t, err)
	assert.Equal(t, "1050", out.Decimal().String())

	_, err = FromInt64(1).QuoRatio(Ratio{})
	require.Error(t, err)
}

func TestRatioOf(t *testing.T) {
	r, err := RatioOf(FromInt64(1), FromInt64(2))
	require.NoError(t, err)
	assert.Equal(t, "0.5", r.String())
	assert.True(t, r.Cmp(RatioOne()) < 0)

	_, err = RatioOf(FromInt64(1), Decimal{})
	require.Error(t, err)
}

func TestRatioDecimalTruncation(t *testing.T) {
	r := MustParseRatio("1.999999999999999999999999999999999999")
	assert.Equal(t, "1.999999999999999999", r.Decimal().String())

	one := RatioOne()
	assert.True(t, one.Equal(MustParseRatio("1")))
	assert.Equal(t, "1", one.Decimal().String())
}

func TestJSONRoundTrip(t *testing.T) {
	type wrapper struct {
		Amount Decimal `json:"amount"`
		Ratio  Ratio   `json:"ratio"`
	}

	w := wrapper{Amount: MustParse("1050.000000000000000001"), Ratio: MustParseRatio("0.5")}
	b, err := json.Marshal(w)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"1050.000000000000000001","ratio":"0.5"}`, string(b))

	var back wrapper
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, 0, back.Amount.Cmp(w.Amount))
	assert.True(t, back.Ratio.Equal(w.Ratio))

	var d Decimal
	require.Error(t, json.Unmarshal([]byte(`42`), &d), "bare numbers are rejected")
}
