package penalty

import (
	"github.com/holiman/uint256"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// The helpers below operate positionally and assume equal lengths; the
// exported engine entry points check lengths before calling them.

// Dot returns a · b.
func Dot(a, b []fpdec.FPDecimal) fpdec.FPDecimal {
	sum := fpdec.Zero
	for i := range a {
		sum = sum.Add(a[i].Mul(b[i]))
	}
	return sum
}

// Hadamard returns the element-wise product a ⊙ b.
func Hadamard(a, b []fpdec.FPDecimal) []fpdec.FPDecimal {
	out := make([]fpdec.FPDecimal, len(a))
	for i := range a {
		out[i] = a[i].Mul(b[i])
	}
	return out
}

// AddVec returns a + b.
func AddVec(a, b []fpdec.FPDecimal) []fpdec.FPDecimal {
	out := make([]fpdec.FPDecimal, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

// SubVec returns a - b.
func SubVec(a, b []fpdec.FPDecimal) []fpdec.FPDecimal {
	out := make([]fpdec.FPDecimal, len(a))
	for i := range a {
		out[i] = a[i].Sub(b[i])
	}
	return out
}

// Scale returns k * a.
func Scale(a []fpdec.FPDecimal, k fpdec.FPDecimal) []fpdec.FPDecimal {
	out := make([]fpdec.FPDecimal, len(a))
	for i := range a {
		out[i] = a[i].Mul(k)
	}
	return out
}

// Sum returns the sum of the elements of a.
func Sum(a []fpdec.FPDecimal) fpdec.FPDecimal {
	sum := fpdec.Zero
	for _, v := range a {
		sum = sum.Add(v)
	}
	return sum
}

// AbsVec returns |a| element-wise.
func AbsVec(a []fpdec.FPDecimal) []fpdec.FPDecimal {
	out := make([]fpdec.FPDecimal, len(a))
	for i := range a {
		out[i] = a[i].Abs()
	}
	return out
}

// FromInts converts on-chain integer amounts into decimals.
func FromInts(xs []*uint256.Int) ([]fpdec.FPDecimal, error) {
	out := make([]fpdec.FPDecimal, len(xs))
	for i, x := range xs {
		if x == nil {
			x = new(uint256.Int)
		}
		d, err := fpdec.NewFromUint256(x)
		if err != nil {
			return nil, err
		}
		out[i] = d
	}
	return out, nil
}

func sameLength(n int, vs ...int) error {
	for _, v := range vs {
		if v != n {
			return DomainError.New("got %d and %d elements: %w", n, v, ErrLengthMismatch)
		}
	}
	return nil
}
