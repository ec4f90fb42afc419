package cluster

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// toInt converts a decimal amount into an engine integer. Amounts must be
// non-negative whole numbers.
func toInt(d decimal.Decimal, field string) (*uint256.Int, error) {
	if d.IsNegative() || !d.IsInteger() {
		return nil, RequestError.New("%s: %s is not a non-negative integer", field, d)
	}
	u, overflow := uint256.FromBig(d.BigInt())
	if overflow {
		return nil, RequestError.New("%s: %s does not fit 256 bits", field, d)
	}
	return u, nil
}

func toInts(ds []decimal.Decimal, field string) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(ds))
	for i, d := range ds {
		u, err := toInt(d, field)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

func fromInt(u *uint256.Int) decimal.Decimal {
	return decimal.NewFromBigInt(u.ToBig(), 0)
}

func fromInts(us []*uint256.Int) []decimal.Decimal {
	out := make([]decimal.Decimal, len(us))
	for i, u := range us {
		out[i] = fromInt(u)
	}
	return out
}

func fromFP(x fpdec.FPDecimal) decimal.Decimal {
	return decimal.RequireFromString(x.String())
}

// allZero reports whether every amount is zero.
func allZero(us []*uint256.Int) bool {
	for _, u := range us {
		if !u.IsZero() {
			return false
		}
	}
	return true
}
