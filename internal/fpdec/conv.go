package fpdec

import (
	"math"
	"math/big"

	"github.com/holiman/uint256"
)

// Uint256 truncates x to an unsigned integer. Negative values fail with
// ErrUnderflow.
func (x FPDecimal) Uint256() (*uint256.Int, error) {
	if x.neg {
		return nil, ArithmeticError.New("%s to unsigned: %w", x, ErrUnderflow)
	}
	return new(uint256.Int).Div(&x.num, oneRaw), nil
}

// Uint64 truncates x to a uint64.
func (x FPDecimal) Uint64() (uint64, error) {
	v, err := x.Uint256()
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, ArithmeticError.New("%s to uint64: %w", x, ErrOverflow)
	}
	return v.Uint64(), nil
}

// Int64 truncates x toward zero to an int64.
func (x FPDecimal) Int64() (int64, error) {
	var mag uint256.Int
	mag.Div(&x.num, oneRaw)
	if !mag.IsUint64() {
		return 0, ArithmeticError.New("%s to int64: %w", x, ErrOverflow)
	}
	m := mag.Uint64()
	switch {
	case !x.neg && m > math.MaxInt64:
		return 0, ArithmeticError.New("%s to int64: %w", x, ErrOverflow)
	case x.neg && m > math.MaxInt64+1:
		return 0, ArithmeticError.New("%s to int64: %w", x, ErrUnderflow)
	case x.neg && m == math.MaxInt64+1:
		return math.MinInt64, nil
	case x.neg:
		return -int64(m), nil
	default:
		return int64(m), nil
	}
}

// BigInt truncates x toward zero.
func (x FPDecimal) BigInt() *big.Int {
	var mag uint256.Int
	mag.Div(&x.num, oneRaw)
	b := mag.ToBig()
	if x.neg {
		b.Neg(b)
	}
	return b
}
