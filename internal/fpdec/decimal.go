// Package fpdec implements FPDecimal, a signed fixed-point decimal number
// with 18 fractional digits whose magnitude lives in a 256-bit unsigned
// integer.
//
// Everything is integer arithmetic over uint256 limbs (little-endian
// [4]uint64), so the same inputs give the same bits on every machine. There
// is no float64 anywhere in this package. Values are immutable: every
// operation returns a new FPDecimal.
package fpdec

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Digits is the number of fractional decimal digits carried by FPDecimal.
const Digits = 18

// FPDecimal is magnitude * 10^-18 with an explicit sign. Zero is always
// stored as non-negative. The zero value is 0.
type FPDecimal struct {
	num uint256.Int
	neg bool
}

var (
	oneRaw    = uint256.NewInt(1_000_000_000_000_000_000)
	oneSqRaw  = mustRaw("1000000000000000000000000000000000000")
	e10Raw    = mustRaw("22026465794806716516958")
	maxRaw    = mustRaw("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	expFloorX = NewFromUint64(42)
	tanhLimit = NewFromUint64(22)
)

var (
	Zero         = FPDecimal{}
	One          = FPDecimal{num: *oneRaw}
	Two          = NewFromUint64(2)
	Ten          = NewFromUint64(10)
	OnePointFive = FPDecimal{num: *uint256.NewInt(1_500_000_000_000_000_000)}

	// E is Euler's number to 18 digits.
	E = FPDecimal{num: *uint256.NewInt(2_718_281_828_459_045_235)}
	// E10 is e^10 to 18 digits.
	E10 = FPDecimal{num: *e10Raw}
	// Ln10 is ln(10) to 18 digits.
	Ln10 = FPDecimal{num: *uint256.NewInt(2_302_585_092_994_045_684)}
	// Ln1_5 is ln(1.5) to 18 digits.
	Ln1_5 = FPDecimal{num: *uint256.NewInt(405_465_108_108_164_382)}

	// MaxValue and MinValue are the largest and smallest representable values.
	MaxValue = FPDecimal{num: *maxRaw}
	MinValue = FPDecimal{num: *maxRaw, neg: true}
)

func mustRaw(s string) *uint256.Int {
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("fpdec: bad constant " + s)
	}
	v, overflow := uint256.FromBig(b)
	if overflow {
		panic("fpdec: constant overflows 256 bits: " + s)
	}
	return v
}

// fromRaw builds a value from a scaled magnitude, normalising negative zero.
func fromRaw(num *uint256.Int, neg bool) FPDecimal {
	d := FPDecimal{num: *num, neg: neg}
	if d.num.IsZero() {
		d.neg = false
	}
	return d
}

// FromRaw builds a value from a magnitude already scaled by 10^18.
func FromRaw(magnitude *uint256.Int, negative bool) FPDecimal {
	return fromRaw(magnitude, negative)
}

// Raw returns a copy of the scaled magnitude.
func (x FPDecimal) Raw() *uint256.Int {
	return new(uint256.Int).Set(&x.num)
}

// NewFromUint64 returns v as an FPDecimal. It cannot overflow.
func NewFromUint64(v uint64) FPDecimal {
	var z uint256.Int
	z.Mul(uint256.NewInt(v), oneRaw)
	return fromRaw(&z, false)
}

// NewFromInt64 returns v as an FPDecimal. It cannot overflow.
func NewFromInt64(v int64) FPDecimal {
	if v >= 0 {
		return NewFromUint64(uint64(v))
	}
	return NewFromUint64(uint64(-(v+1)) + 1).Neg()
}

// NewFromUint256 scales an integer amount into an FPDecimal. It fails when
// v * 10^18 does not fit in 256 bits.
func NewFromUint256(v *uint256.Int) (FPDecimal, error) {
	var z uint256.Int
	if _, overflow := z.MulOverflow(v, oneRaw); overflow {
		return Zero, ArithmeticError.New("integer %s: %w", v.ToBig(), ErrOverflow)
	}
	return fromRaw(&z, false), nil
}

// NewFromBigInt scales a signed integer into an FPDecimal.
func NewFromBigInt(v *big.Int) (FPDecimal, error) {
	mag, overflow := uint256.FromBig(new(big.Int).Abs(v))
	if overflow {
		return Zero, ArithmeticError.New("integer %s: %w", v, ErrOverflow)
	}
	d, err := NewFromUint256(mag)
	if err != nil {
		return Zero, err
	}
	if v.Sign() < 0 {
		return d.Neg(), nil
	}
	return d, nil
}

// Sign returns -1, 0 or +1.
func (x FPDecimal) Sign() int {
	switch {
	case x.num.IsZero():
		return 0
	case x.neg:
		return -1
	default:
		return 1
	}
}

func (x FPDecimal) IsZero() bool     { return x.num.IsZero() }
func (x FPDecimal) IsNegative() bool { return x.neg }
func (x FPDecimal) IsPositive() bool { return !x.neg && !x.num.IsZero() }

// Cmp compares x and y and returns -1, 0 or +1.
func (x FPDecimal) Cmp(y FPDecimal) int {
	switch {
	case x.neg && !y.neg:
		return -1
	case !x.neg && y.neg:
		return 1
	case x.neg:
		return y.num.Cmp(&x.num)
	default:
		return x.num.Cmp(&y.num)
	}
}

func (x FPDecimal) Equal(y FPDecimal) bool { return x.Cmp(y) == 0 }
func (x FPDecimal) LT(y FPDecimal) bool    { return x.Cmp(y) < 0 }
func (x FPDecimal) LTE(y FPDecimal) bool   { return x.Cmp(y) <= 0 }
func (x FPDecimal) GT(y FPDecimal) bool    { return x.Cmp(y) > 0 }
func (x FPDecimal) GTE(y FPDecimal) bool   { return x.Cmp(y) >= 0 }

// Min returns the smaller of x and y.
func Min(x, y FPDecimal) FPDecimal {
	if x.LT(y) {
		return x
	}
	return y
}

// Max returns the larger of x and y.
func Max(x, y FPDecimal) FPDecimal {
	if x.GT(y) {
		return x
	}
	return y
}
