package fpdec

import (
	"github.com/holiman/uint256"
)

// Neg returns -x.
func (x FPDecimal) Neg() FPDecimal {
	return fromRaw(&x.num, !x.neg)
}

// Abs returns |x|.
func (x FPDecimal) Abs() FPDecimal {
	return fromRaw(&x.num, false)
}

// Add returns x + y. It panics with an ArithmeticError if the magnitude
// overflows 256 bits; see Catch.
func (x FPDecimal) Add(y FPDecimal) FPDecimal {
	var z uint256.Int
	if x.neg == y.neg {
		if _, o := z.AddOverflow(&x.num, &y.num); o {
			panic(overflow("add"))
		}
		return fromRaw(&z, x.neg)
	}
	// Signs differ: the larger magnitude decides the sign.
	switch x.num.Cmp(&y.num) {
	case 0:
		return Zero
	case 1:
		z.Sub(&x.num, &y.num)
		return fromRaw(&z, x.neg)
	default:
		z.Sub(&y.num, &x.num)
		return fromRaw(&z, y.neg)
	}
}

// Sub returns x - y.
func (x FPDecimal) Sub(y FPDecimal) FPDecimal {
	return x.Add(y.Neg())
}

// Mul returns x * y truncated to 18 digits.
//
// Each operand is split at 10^18 into an integer part and a fraction
// (x = x1*10^18 + x2) and the four partial products are summed:
//
//	x1*y1*10^18 + x1*y2 + x2*y1 + x2*y2/10^18
//
// x2*y2 is below 10^36, so only x1*y1*10^18 can overflow; that panics with an
// ArithmeticError.
func (x FPDecimal) Mul(y FPDecimal) FPDecimal {
	var x1, x2, y1, y2 uint256.Int
	x1.Div(&x.num, oneRaw)
	x2.Mod(&x.num, oneRaw)
	y1.Div(&y.num, oneRaw)
	y2.Mod(&y.num, oneRaw)

	var acc, t uint256.Int
	if _, o := acc.MulOverflow(&x1, &y1); o {
		panic(overflow("mul"))
	}
	if _, o := acc.MulOverflow(&acc, oneRaw); o {
		panic(overflow("mul"))
	}

	t.Mul(&x1, &y2)
	if _, o := acc.AddOverflow(&acc, &t); o {
		panic(overflow("mul"))
	}
	t.Mul(&x2, &y1)
	if _, o := acc.AddOverflow(&acc, &t); o {
		panic(overflow("mul"))
	}
	t.Mul(&x2, &y2)
	t.Div(&t, oneRaw)
	if _, o := acc.AddOverflow(&acc, &t); o {
		panic(overflow("mul"))
	}

	return fromRaw(&acc, x.neg != y.neg)
}

// Div returns x / y truncated to 18 digits. The quotient is formed as
// x*10^18/y over a 512-bit intermediate, so exact quotients are exact.
func (x FPDecimal) Div(y FPDecimal) (FPDecimal, error) {
	if y.IsZero() {
		return Zero, ArithmeticError.New("%s / 0: %w", x, ErrDivideByZero)
	}
	if y.Equal(One) {
		return x, nil
	}
	var z uint256.Int
	if _, o := z.MulDivOverflow(&x.num, oneRaw, &y.num); o {
		return Zero, ArithmeticError.New("%s / %s: %w", x, y, ErrOverflow)
	}
	return fromRaw(&z, x.neg != y.neg), nil
}

// Reciprocal returns 1/x.
func (x FPDecimal) Reciprocal() (FPDecimal, error) {
	if x.IsZero() {
		return Zero, ArithmeticError.New("reciprocal of 0: %w", ErrDivideByZero)
	}
	var z uint256.Int
	z.Div(oneSqRaw, &x.num)
	return fromRaw(&z, x.neg), nil
}

// Int returns the integer part of x, truncated toward zero.
func (x FPDecimal) Int() FPDecimal {
	var z uint256.Int
	z.Div(&x.num, oneRaw)
	z.Mul(&z, oneRaw)
	return fromRaw(&z, x.neg)
}

// Fraction returns x - x.Int(); it carries the sign of x.
func (x FPDecimal) Fraction() FPDecimal {
	var z uint256.Int
	z.Mod(&x.num, oneRaw)
	return fromRaw(&z, x.neg)
}

// Ceil returns the smallest integral value not less than x.
func (x FPDecimal) Ceil() FPDecimal {
	if x.Fraction().IsZero() || x.neg {
		return x.Int()
	}
	return x.Int().Add(One)
}

// MulInt returns x * n.
func (x FPDecimal) MulInt(n uint64) FPDecimal {
	var z uint256.Int
	if _, o := z.MulOverflow(&x.num, uint256.NewInt(n)); o {
		panic(overflow("mul"))
	}
	return fromRaw(&z, x.neg)
}

// QuoInt returns x / n truncated toward zero. n must be non-zero.
func (x FPDecimal) QuoInt(n uint64) FPDecimal {
	var z uint256.Int
	z.Div(&x.num, uint256.NewInt(n))
	return fromRaw(&z, x.neg)
}
