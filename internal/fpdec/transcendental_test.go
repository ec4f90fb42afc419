package fpdec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

// requireClose asserts |got - want| <= tol.
func requireClose(t *testing.T, want, got, tol FPDecimal) {
	t.Helper()
	require.True(t, got.Sub(want).Abs().LTE(tol), "want %s, got %s (tolerance %s)", want, got, tol)
}

func TestLn(t *testing.T) {
	type TC struct {
		name string
		in   string
		out  string
	}

	tcs := []TC{
		{name: "one", in: "1", out: "0"},
		{name: "e", in: E.String(), out: "1"},
		{name: "e^10", in: E10.String(), out: "10"},
		{name: "ten", in: "10", out: Ln10.String()},
		{name: "one and a half", in: "1.5", out: Ln1_5.String()},
		{name: "two", in: "2", out: "0.693147180559945298"},
		{name: "smallest unit", in: "0.000000000000000001", out: "-41.446531673892822312"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MustParse(tc.in).Ln()
			require.NoError(t, err)
			require.Equal(t, tc.out, got.String())
		})
	}
}

func TestLnAccuracy(t *testing.T) {
	type TC struct {
		in, out string
	}

	// Reference values rounded to 18 digits.
	tcs := []TC{
		{"2", "0.693147180559945309"},
		{"5", "1.609437912434100375"},
		{"0.5", "-0.693147180559945309"},
		{"100", "4.605170185988091368"},
		{"123456.789", "11.723646487185880981"},
	}

	tol := MustParse("0.00000000000000005")
	for _, tc := range tcs {
		got, err := MustParse(tc.in).Ln()
		require.NoError(t, err)
		requireClose(t, MustParse(tc.out), got, tol)
	}
}

func TestLnNonPositive(t *testing.T) {
	for _, in := range []FPDecimal{Zero, One.Neg(), MustParse("-0.000000000000000001")} {
		_, err := in.Ln()
		require.Error(t, err)
		require.True(t, ArithmeticError.Has(err))
		require.True(t, errors.Is(err, ErrNonPositive))
	}
}

func TestExp(t *testing.T) {
	type TC struct {
		name string
		in   string
		out  string
	}

	tcs := []TC{
		{name: "zero", in: "0", out: "1"},
		{name: "one", in: "1", out: E.String()},
		{name: "ten", in: "10", out: E10.String()},
		{name: "minus one", in: "-1", out: "0.367879441171442321"},
		{name: "two", in: "2", out: "7.389056098930650225"},
		{name: "half", in: "0.5", out: "1.648721270700128139"},
		{name: "far negative", in: "-43", out: "0"},
		{name: "very far negative", in: "-1000000", out: "0"},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MustParse(tc.in).Exp()
			require.NoError(t, err)
			require.Equal(t, tc.out, got.String())
		})
	}
}

func TestExpOverflow(t *testing.T) {
	_, err := MustParse("135").Exp()
	require.NoError(t, err)

	_, err = MustParse("200").Exp()
	require.Error(t, err)
	require.True(t, ArithmeticError.Has(err))
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestExpLnInverse(t *testing.T) {
	for _, in := range []string{"2", "5", "0.25", "1000", "3.3", "123.456", "100000000"} {
		x := MustParse(in)
		l, err := x.Ln()
		require.NoError(t, err)
		back, err := l.Exp()
		require.NoError(t, err)

		// Worst case is x=2 at 1.55*10^-17 relative.
		tol := x.Mul(MustParse("0.00000000000000002"))
		requireClose(t, x, back, tol)
	}

	back, err := MustParse("123.456").Ln()
	require.NoError(t, err)
	back, err = back.Exp()
	require.NoError(t, err)
	require.Equal(t, "123.456000000000000509", back.String())
}

func TestPow(t *testing.T) {
	got, err := Two.Pow(Ten)
	require.NoError(t, err)
	require.Equal(t, "1023.999999999999878821", got.String())
	requireClose(t, NewFromUint64(1024), got, MustParse("0.000000000001"))

	got, err = Two.Pow(MustParse("0.5"))
	require.NoError(t, err)
	require.Equal(t, "1.414213562373095036", got.String())

	got, err = MustParse("7.77").Pow(Zero)
	require.NoError(t, err)
	require.True(t, got.Equal(One))

	got, err = Two.Pow(One.Neg())
	require.NoError(t, err)
	requireClose(t, MustParse("0.5"), got, MustParse("0.000000000000001"))

	_, err = Zero.Pow(Two)
	require.True(t, errors.Is(err, ErrNonPositive))

	_, err = NewFromUint64(1000).Pow(NewFromUint64(100))
	require.True(t, errors.Is(err, ErrOverflow))
}

func TestTanh(t *testing.T) {
	type TC struct {
		in, out string
	}

	tcs := []TC{
		{"0", "0"},
		{"1", "0.761594155955764888"},
		{"0.5", "0.462117157260009755"},
		{"-1", "-0.761594155955764888"},
		{"22", "1"},
		{"-30", "-1"},
	}

	for _, tc := range tcs {
		require.Equal(t, tc.out, MustParse(tc.in).Tanh().String(), "tanh(%s)", tc.in)
	}
}

func TestTanhOddAndBounded(t *testing.T) {
	for _, in := range []string{"0.001", "0.3", "2", "7.5", "15", "21.99"} {
		x := MustParse(in)
		p, n := x.Tanh(), x.Neg().Tanh()
		require.True(t, p.Equal(n.Neg()), "tanh(%s)", in)
		require.True(t, p.IsPositive())
		require.True(t, p.LTE(One))
	}
}
