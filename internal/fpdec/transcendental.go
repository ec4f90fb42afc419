package fpdec

// expTerms bounds the Taylor expansion used by Exp.
const expTerms = 2*Digits + 1

// Ln returns the natural logarithm of x. x must be positive.
//
// The argument is scaled by powers of ten into [1, 10), then divided by e
// until it lies in [1, e]. What remains is expanded around 1.5:
//
//	ln(v) = ln(1.5) + 2*atanh((v-1.5)/(v+1.5))
//
// and the odd-power atanh series is summed until its terms vanish at 18
// digits.
func (x FPDecimal) Ln() (res FPDecimal, err error) {
	if !x.IsPositive() {
		return Zero, ArithmeticError.New("ln(%s): %w", x, ErrNonPositive)
	}
	switch {
	case x.Equal(One):
		return Zero, nil
	case x.Equal(E):
		return One, nil
	case x.Equal(E10):
		return Ten, nil
	case x.Equal(Ten):
		return Ln10, nil
	case x.Equal(OnePointFive):
		return Ln1_5, nil
	}
	defer Catch(&err)

	v, r := x, Zero
	for v.LT(One) {
		v = v.MulInt(10)
		r = r.Sub(Ln10)
	}
	for v.GTE(Ten) {
		v = v.QuoInt(10)
		r = r.Add(Ln10)
	}
	for v.GT(E) {
		if v, err = v.Div(E); err != nil {
			return Zero, err
		}
		r = r.Add(One)
	}
	switch {
	case v.Equal(One):
		return r, nil
	case v.Equal(E):
		return r.Add(One), nil
	}

	z, err := v.Sub(OnePointFive).Div(v.Add(OnePointFive))
	if err != nil {
		return Zero, err
	}
	z2 := z.Mul(z)
	sum, term := z, z
	for k := uint64(3); ; k += 2 {
		term = term.Mul(z2)
		t := term.QuoInt(k)
		if t.IsZero() {
			break
		}
		sum = sum.Add(t)
	}

	return r.Add(Ln1_5).Add(sum.MulInt(2)), nil
}

// Exp returns e^x. It fails only when the result does not fit in 256 bits.
//
// |x| is reduced by whole tens (multiplying by E10) and then whole units
// (multiplying by E); the remainder in [0, 1) goes through a Taylor series.
// Negative exponents take the reciprocal at the end.
func (x FPDecimal) Exp() (res FPDecimal, err error) {
	if x.IsZero() {
		return One, nil
	}
	a := x.Abs()
	if x.neg && a.GT(expFloorX) {
		// e^-42 is below 10^-18.
		return Zero, nil
	}
	defer Catch(&err)

	acc := One
	for a.GTE(Ten) {
		acc = acc.Mul(E10)
		a = a.Sub(Ten)
	}
	for a.GTE(One) {
		acc = acc.Mul(E)
		a = a.Sub(One)
	}

	sum, term := One, One
	for i := uint64(1); i <= expTerms; i++ {
		term = term.Mul(a).QuoInt(i)
		if term.IsZero() {
			break
		}
		sum = sum.Add(term)
	}

	res = acc.Mul(sum)
	if x.neg {
		return res.Reciprocal()
	}
	return res, nil
}

// Pow returns x^y as exp(ln(x) * y). x must be positive.
func (x FPDecimal) Pow(y FPDecimal) (res FPDecimal, err error) {
	l, err := x.Ln()
	if err != nil {
		return Zero, err
	}
	defer Catch(&err)
	return l.Mul(y).Exp()
}

// Tanh returns the hyperbolic tangent of x,
//
//	(e^x - e^-x) / (e^x + e^-x)
//
// saturating to ±1 once |x| >= 22, where the difference from 1 is below
// 10^-18.
func (x FPDecimal) Tanh() FPDecimal {
	if x.IsZero() {
		return Zero
	}
	if x.Abs().GTE(tanhLimit) {
		if x.neg {
			return One.Neg()
		}
		return One
	}
	// Neither exponential can overflow below the saturation bound and the
	// denominator is at least 2, so the errors below are always nil.
	ep, _ := x.Exp()
	en, _ := x.Neg().Exp()
	r, _ := ep.Sub(en).Div(ep.Add(en))
	return r
}
