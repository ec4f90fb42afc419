package fpdec

import (
	"math/big"
	"strconv"
	"strings"

	"github.com/holiman/uint256"
)

// Parse reads a decimal string such as "1.2345" or "-0.5". Fractional
// digits past the 18th are truncated.
func Parse(s string) (FPDecimal, error) {
	if s == "" {
		return Zero, ParseError.New("empty string")
	}

	str, neg := s, false
	if str[0] == '-' {
		str, neg = str[1:], true
	}

	parts := strings.Split(str, ".")
	if len(parts) > 2 {
		return Zero, ParseError.New("%q: too many decimal points", s)
	}
	if !isDigits(parts[0]) {
		return Zero, ParseError.New("%q: invalid integer part", s)
	}

	ip, _ := new(big.Int).SetString(parts[0], 10)
	num, o := uint256.FromBig(ip)
	if o {
		return Zero, ArithmeticError.New("%q: %w", s, ErrOverflow)
	}
	if _, o := num.MulOverflow(num, oneRaw); o {
		return Zero, ArithmeticError.New("%q: %w", s, ErrOverflow)
	}

	if len(parts) == 2 {
		frac := parts[1]
		if !isDigits(frac) {
			return Zero, ParseError.New("%q: invalid fractional part", s)
		}
		if len(frac) > Digits {
			frac = frac[:Digits]
		} else {
			frac += strings.Repeat("0", Digits-len(frac))
		}
		fv, err := strconv.ParseUint(frac, 10, 64)
		if err != nil {
			return Zero, ParseError.Wrap(err)
		}
		if _, o := num.AddOverflow(num, uint256.NewInt(fv)); o {
			return Zero, ArithmeticError.New("%q: %w", s, ErrOverflow)
		}
	}

	return fromRaw(num, neg), nil
}

// MustParse is Parse for constants and tests. It panics on error.
func MustParse(s string) FPDecimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// String renders x with trailing fractional zeros removed: "1.2345", "-0.5", "2".
func (x FPDecimal) String() string {
	var ip, fp uint256.Int
	ip.Div(&x.num, oneRaw)
	fp.Mod(&x.num, oneRaw)

	var sb strings.Builder
	if x.neg {
		sb.WriteByte('-')
	}
	sb.WriteString(ip.ToBig().String())
	if !fp.IsZero() {
		frac := strconv.FormatUint(fp.Uint64(), 10)
		sb.WriteByte('.')
		sb.WriteString(strings.Repeat("0", Digits-len(frac)))
		sb.WriteString(strings.TrimRight(frac, "0"))
	}
	return sb.String()
}

// MarshalJSON encodes x as a JSON string.
func (x FPDecimal) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(x.String())), nil
}

// UnmarshalJSON accepts a JSON string or a plain JSON number in decimal
// notation.
func (x *FPDecimal) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unq, err := strconv.Unquote(s); err == nil {
		s = unq
	}
	d, err := Parse(s)
	if err != nil {
		return err
	}
	*x = d
	return nil
}
