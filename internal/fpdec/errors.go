package fpdec

import (
	"errors"

	"github.com/zeebo/errs"
)

var (
	// ArithmeticError classifies failures of the arithmetic itself: division
	// by zero, logarithms of non-positive numbers, and values that do not fit
	// the destination width.
	ArithmeticError = errs.Class("arithmetic")

	// ParseError classifies malformed decimal strings.
	ParseError = errs.Class("parse")
)

var (
	ErrDivideByZero = errors.New("division by zero")
	ErrOverflow     = errors.New("overflow")
	ErrUnderflow    = errors.New("underflow")
	ErrNonPositive  = errors.New("argument must be positive")
)

// overflow is raised (via panic) by Add, Sub and Mul when the 256-bit
// magnitude wraps. Catch turns it back into an error.
func overflow(op string) error {
	return ArithmeticError.New("%s: %w", op, ErrOverflow)
}

// Catch recovers an arithmetic panic raised by this package and stores it in
// *err. Any other panic is re-raised. Use it as
//
//	defer fpdec.Catch(&err)
//
// at the top of functions that chain arithmetic on untrusted magnitudes.
func Catch(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if e, ok := r.(error); ok && ArithmeticError.Has(e) {
		*err = e
		return
	}
	panic(r)
}
