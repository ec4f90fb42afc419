package fpdec

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
)

func TestParseString(t *testing.T) {
	type TC struct {
		name string
		in   string
		out  string
	}

	tcs := []TC{
		{name: "integer", in: "42", out: "42"},
		{name: "fraction", in: "1.2345", out: "1.2345"},
		{name: "negative fraction", in: "-0.5", out: "-0.5"},
		{name: "trailing zeros", in: "3.1400", out: "3.14"},
		{name: "negative zero", in: "-0", out: "0"},
		{name: "smallest unit", in: "0.000000000000000001", out: "0.000000000000000001"},
		{name: "truncates past 18 digits", in: "0.1234567890123456789", out: "0.123456789012345678"},
		{name: "leading zeros", in: "007.5", out: "7.5"},
		{
			name: "max",
			in:   "115792089237316195423570985008687907853269984665640564039457.584007913129639935",
			out:  "115792089237316195423570985008687907853269984665640564039457.584007913129639935",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			d, err := Parse(tc.in)
			require.NoError(t, err)
			require.Equal(t, tc.out, d.String())
		})
	}
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{"", "-", "abc", "1.2.3", "1.", ".5", "1,5", "+1", "1e5", "--1", " 1"} {
		_, err := Parse(in)
		require.Error(t, err, in)
		require.True(t, ParseError.Has(err), "%q: %v", in, err)
	}

	_, err := Parse("115792089237316195423570985008687907853269984665640564039458")
	require.Error(t, err)
	require.True(t, ArithmeticError.Has(err))
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestRoundTrip(t *testing.T) {
	values := []FPDecimal{
		Zero, One, One.Neg(), E, E10, Ln10, Ln1_5, MaxValue, MinValue,
		MustParse("-123456789.000000000000000001"),
		NewFromInt64(math.MinInt64),
		NewFromUint64(math.MaxUint64),
	}
	for _, v := range values {
		got, err := Parse(v.String())
		require.NoError(t, err)
		require.True(t, got.Equal(v), "%s != %s", got, v)
	}
}

func TestJSON(t *testing.T) {
	type wrapper struct {
		V FPDecimal `json:"v"`
	}

	data, err := json.Marshal(wrapper{V: MustParse("-2.75")})
	require.NoError(t, err)
	require.JSONEq(t, `{"v":"-2.75"}`, string(data))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"v":"0.125"}`), &w))
	require.Equal(t, "0.125", w.V.String())

	require.NoError(t, json.Unmarshal([]byte(`{"v":7.5}`), &w))
	require.Equal(t, "7.5", w.V.String())

	require.Error(t, json.Unmarshal([]byte(`{"v":"seven"}`), &w))
}

func TestAddSub(t *testing.T) {
	type TC struct {
		x, y, sum, diff string
	}

	tcs := []TC{
		{"1", "2", "3", "-1"},
		{"-1", "-2", "-3", "1"},
		{"5", "-3", "2", "8"},
		{"-5", "3", "-2", "-8"},
		{"3", "-5", "-2", "8"},
		{"0.1", "0.2", "0.3", "-0.1"},
		{"2.5", "-2.5", "0", "5"},
	}

	for _, tc := range tcs {
		x, y := MustParse(tc.x), MustParse(tc.y)
		require.Equal(t, tc.sum, x.Add(y).String(), "%s + %s", tc.x, tc.y)
		require.Equal(t, tc.diff, x.Sub(y).String(), "%s - %s", tc.x, tc.y)
	}

	// x + (0 - x) is a non-negative zero.
	x := MustParse("-17.25")
	z := x.Add(Zero.Sub(x))
	require.True(t, z.IsZero())
	require.False(t, z.IsNegative())
	require.Equal(t, 0, z.Sign())
}

func TestMul(t *testing.T) {
	type TC struct {
		x, y, out string
	}

	tcs := []TC{
		{"1.5", "1.5", "2.25"},
		{"0.1", "0.1", "0.01"},
		{"-2", "3", "-6"},
		{"-2", "-3", "6"},
		{"123.456", "0", "0"},
		{"-123.456", "0", "0"},
		{"0.123456789123456789", "0.987654321987654321", "0.121932631356500531"},
		{"1000000000.000000001", "1000000000", "1000000000000000001"},
		{"0.000000000000000001", "0.5", "0"},
	}

	for _, tc := range tcs {
		got := MustParse(tc.x).Mul(MustParse(tc.y))
		require.Equal(t, tc.out, got.String(), "%s * %s", tc.x, tc.y)
	}

	x := MustParse("-98765.4321")
	require.True(t, x.Mul(One).Equal(x))
	require.True(t, x.Mul(Zero).Equal(Zero))
	require.False(t, x.Mul(Zero).IsNegative())
}

func TestMulOverflowPanics(t *testing.T) {
	require.Panics(t, func() { MaxValue.Mul(Two) })
	require.Panics(t, func() { MaxValue.Add(One) })
	require.Panics(t, func() { MinValue.Sub(One) })

	overflow := func() (err error) {
		defer Catch(&err)
		MaxValue.Mul(Ten)
		return nil
	}
	err := overflow()
	require.Error(t, err)
	require.True(t, ArithmeticError.Has(err))
}

func TestCatchRepanicsForeignPanics(t *testing.T) {
	require.PanicsWithValue(t, "boom", func() {
		var err error
		defer Catch(&err)
		panic("boom")
	})
}

func TestDiv(t *testing.T) {
	got, err := NewFromInt64(6).Div(NewFromInt64(3))
	require.NoError(t, err)
	require.True(t, got.Equal(NewFromInt64(2)))

	got, err = NewFromInt64(1).Div(NewFromInt64(3))
	require.NoError(t, err)
	require.Equal(t, "0.333333333333333333", got.String())

	got, err = MustParse("-7.5").Div(MustParse("2.5"))
	require.NoError(t, err)
	require.Equal(t, "-3", got.String())

	x := MustParse("42.42")
	got, err = x.Div(One)
	require.NoError(t, err)
	require.True(t, got.Equal(x))

	_, err = x.Div(Zero)
	require.Error(t, err)
	require.True(t, ArithmeticError.Has(err))
	require.True(t, errors.Is(err, ErrDivideByZero))

	_, err = MaxValue.Div(MustParse("0.5"))
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestDivMulIdentity(t *testing.T) {
	pairs := [][2]string{{"6", "3"}, {"10", "4"}, {"-9", "0.25"}, {"1.44", "1.2"}, {"1000000", "0.001"}}
	for _, p := range pairs {
		x, y := MustParse(p[0]), MustParse(p[1])
		q, err := x.Div(y)
		require.NoError(t, err)
		require.True(t, q.Mul(y).Equal(x), "(%s / %s) * %s = %s", x, y, y, q.Mul(y))
	}
}

func TestReciprocal(t *testing.T) {
	r, err := NewFromInt64(4).Reciprocal()
	require.NoError(t, err)
	require.Equal(t, "0.25", r.String())

	r, err = NewFromInt64(-8).Reciprocal()
	require.NoError(t, err)
	require.Equal(t, "-0.125", r.String())

	_, err = Zero.Reciprocal()
	require.True(t, errors.Is(err, ErrDivideByZero))
}

func TestIntFractionCeil(t *testing.T) {
	type TC struct {
		in, intPart, frac, ceil string
	}

	tcs := []TC{
		{"3.75", "3", "0.75", "4"},
		{"-3.75", "-3", "-0.75", "-3"},
		{"5", "5", "0", "5"},
		{"0.000000000000000001", "0", "0.000000000000000001", "1"},
		{"-0.5", "0", "-0.5", "0"},
	}

	for _, tc := range tcs {
		x := MustParse(tc.in)
		require.Equal(t, tc.intPart, x.Int().String(), tc.in)
		require.Equal(t, tc.frac, x.Fraction().String(), tc.in)
		require.Equal(t, tc.ceil, x.Ceil().String(), tc.in)
		require.True(t, x.Int().Add(x.Fraction()).Equal(x), tc.in)
	}
}

func TestOrdering(t *testing.T) {
	ordered := []FPDecimal{
		MinValue, MustParse("-10"), MustParse("-0.5"), Zero, MustParse("0.000000000000000001"), One, E, MaxValue,
	}
	for i := range ordered {
		for j := range ordered {
			want := 0
			if i < j {
				want = -1
			} else if i > j {
				want = 1
			}
			require.Equal(t, want, ordered[i].Cmp(ordered[j]), "%s cmp %s", ordered[i], ordered[j])
		}
	}

	require.True(t, Min(One, Two).Equal(One))
	require.True(t, Max(One.Neg(), Zero).Equal(Zero))
	require.True(t, Zero.Neg().Equal(Zero))
	require.False(t, Zero.Neg().IsNegative())
}

func TestConversions(t *testing.T) {
	v, err := MustParse("12345.9999").Uint256()
	require.NoError(t, err)
	require.Equal(t, uint64(12345), v.Uint64())

	_, err = MustParse("-1").Uint256()
	require.True(t, errors.Is(err, ErrUnderflow))

	_, err = MustParse("18446744073709551616").Uint64()
	require.True(t, errors.Is(err, ErrOverflow))

	u, err := MustParse("18446744073709551615.9").Uint64()
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64), u)

	i, err := MustParse("-42.9").Int64()
	require.NoError(t, err)
	require.Equal(t, int64(-42), i)

	i, err = NewFromInt64(math.MinInt64).Int64()
	require.NoError(t, err)
	require.Equal(t, int64(math.MinInt64), i)

	_, err = MustParse("9223372036854775808").Int64()
	require.True(t, errors.Is(err, ErrOverflow))

	_, err = MustParse("-9223372036854775809").Int64()
	require.True(t, errors.Is(err, ErrUnderflow))

	require.Equal(t, "-7", MustParse("-7.99").BigInt().String())

	d, err := NewFromUint256(uint256.NewInt(1_000_000))
	require.NoError(t, err)
	require.Equal(t, "1000000", d.String())

	_, err = NewFromUint256(new(uint256.Int).Lsh(uint256.NewInt(1), 250))
	require.True(t, errors.Is(err, ErrOverflow))

	b, _ := new(big.Int).SetString("-340282366920938463463374607431768211455", 10)
	d, err = NewFromBigInt(b)
	require.NoError(t, err)
	require.Equal(t, "-340282366920938463463374607431768211455", d.String())
}

func TestDeterminism(t *testing.T) {
	x := MustParse("3.14159")
	a, err := x.Pow(MustParse("2.5"))
	require.NoError(t, err)
	b, err := x.Pow(MustParse("2.5"))
	require.NoError(t, err)
	require.Equal(t, a, b)
	require.Equal(t, a.String(), b.String())
}

func TestRaw(t *testing.T) {
	x := MustParse("-1.5")
	require.Equal(t, "1500000000000000000", x.Raw().Dec())
	require.True(t, FromRaw(x.Raw(), true).Equal(x))
	require.False(t, FromRaw(uint256.NewInt(0), true).IsNegative())
}
