package penalty

import (
	"github.com/holiman/uint256"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// Imbalance is the L1 distance, in notional terms, between the inventory's
// holdings and the holdings its total value would buy at target weights:
//
//	u = (w ⊙ p) / (w · p)
//	imbalance = Σ |u_k * (inv · p) - inv_k * p_k|
//
// Weights need not be normalised. The result is never negative.
func Imbalance(inv, prices, weights []fpdec.FPDecimal) (imb fpdec.FPDecimal, err error) {
	if err := sameLength(len(inv), len(prices), len(weights)); err != nil {
		return fpdec.Zero, err
	}
	defer fpdec.Catch(&err)

	wp := Dot(weights, prices)
	nav := Dot(inv, prices)
	sum := fpdec.Zero
	for k := range inv {
		target, err := weights[k].Mul(prices[k]).Mul(nav).Div(wp)
		if err != nil {
			return fpdec.Zero, err
		}
		sum = sum.Add(target.Sub(inv[k].Mul(prices[k])).Abs())
	}
	return sum, nil
}

// NotionalPenalty prices moving the inventory from i0 to i1.
//
// If imbalance grows, the penalty rate is integrated over [imb0, imb1]: flat
// at PenaltyAmtLo below cutoff_lo, then a linear ramp reaching PenaltyAmtHi
// at cutoff_hi. Both cutoffs are fractions of ema. Ending above cutoff_hi
// fails with ErrImbalanceTooHigh. The result is the negated integral.
//
// Otherwise the reduction of imbalance above ema*RewardCutoff is paid at
// RewardAmt and the result is non-negative.
func NotionalPenalty(i0, i1, weights, prices []fpdec.FPDecimal, ema fpdec.FPDecimal, params Params) (res fpdec.FPDecimal, err error) {
	if err := sameLength(len(i0), len(i1)); err != nil {
		return fpdec.Zero, err
	}
	imb0, err := Imbalance(i0, prices, weights)
	if err != nil {
		return fpdec.Zero, err
	}
	imb1, err := Imbalance(i1, prices, weights)
	if err != nil {
		return fpdec.Zero, err
	}
	defer fpdec.Catch(&err)

	if imb0.GTE(imb1) {
		cutoff := params.RewardCutoff.Mul(ema)
		return fpdec.Max(imb0, cutoff).Sub(fpdec.Max(imb1, cutoff)).Mul(params.RewardAmt), nil
	}

	lo := params.PenaltyCutoffLo.Mul(ema)
	hi := params.PenaltyCutoffHi.Mul(ema)
	if imb1.GT(hi) {
		return fpdec.Zero, DomainError.New("imbalance %s > cutoff %s: %w", imb1, hi, ErrImbalanceTooHigh)
	}

	// Flat segment below lo.
	flat := fpdec.Min(imb1, lo).Sub(fpdec.Min(imb0, lo)).Mul(params.PenaltyAmtLo)

	// Trapezoid over the part of [imb0, imb1] inside [lo, hi].
	ramp := fpdec.Zero
	a := fpdec.Min(fpdec.Max(imb0, lo), hi)
	b := fpdec.Min(fpdec.Max(imb1, lo), hi)
	if b.GT(a) {
		gap, span := params.PenaltyAmtHi.Sub(params.PenaltyAmtLo), hi.Sub(lo)
		// Rate at x is amt_lo + (x-lo)*gap/span, divided last.
		ha, err := a.Sub(lo).Mul(gap).Div(span)
		if err != nil {
			return fpdec.Zero, err
		}
		hb, err := b.Sub(lo).Mul(gap).Div(span)
		if err != nil {
			return fpdec.Zero, err
		}
		ha, hb = params.PenaltyAmtLo.Add(ha), params.PenaltyAmtLo.Add(hb)
		ramp = ha.Add(hb).Mul(b.Sub(a)).QuoInt(2)
	}

	return flat.Add(ramp).Neg(), nil
}

// Piecewise is the canonical pricing model.
type Piecewise struct {
	Params Params
}

// ComputeMint prices a deposit:
//
//	notional = amounts·p + penalty
//	tokens = floor(supply * notional / (inv·p))
func (m Piecewise) ComputeMint(st State, q MintQuery) (res MintResult, err error) {
	v, err := convert(q.Supply, q.Inventory, q.Amounts, q.Prices, q.Weights)
	if err != nil {
		return res, err
	}
	defer fpdec.Catch(&err)

	nav := Dot(v.inv, v.prices)
	ema, err := st.EMAAt(q.Height, nav)
	if err != nil {
		return res, err
	}
	i1 := AddVec(v.inv, v.amt)
	pen, err := NotionalPenalty(v.inv, i1, v.w, v.prices, ema, m.Params)
	if err != nil {
		return res, err
	}
	deposit := Dot(v.amt, v.prices)
	notional := deposit.Add(pen)
	if notional.IsNegative() {
		return res, DomainError.New("deposit %s, penalty %s: %w", deposit, pen, ErrNegativeNotional)
	}
	tokens, err := v.supply.Mul(notional).Div(nav)
	if err != nil {
		return res, err
	}
	out, err := tokens.Uint256()
	if err != nil {
		return res, err
	}

	return MintResult{
		MintTokens: out,
		Penalty:    pen,
		Trace: []Attribute{
			attr("ema", ema),
			attr("notional_value", nav),
			attr("deposit_value", deposit),
			attr("penalty", pen),
			attr("mint_tokens", tokens),
		},
	}, nil
}

// ComputeRedeem prices a withdrawal. Pro-rata redemptions burn MaxTokens
// without penalty. Targeted redemptions cost
//
//	ceil(supply * (amounts·p - penalty) / (inv·p))
//
// rounded up so truncation never favours the redeemer.
func (m Piecewise) ComputeRedeem(st State, q RedeemQuery) (res RedeemResult, err error) {
	v, err := convert(q.Supply, q.Inventory, q.Amounts, q.Prices, q.Weights)
	if err != nil {
		return res, err
	}
	if !q.Targeted() {
		return proRata(v, q.Supply, q.MaxTokens)
	}
	if err := covered(v.inv, v.amt); err != nil {
		return res, err
	}
	defer fpdec.Catch(&err)

	nav := Dot(v.inv, v.prices)
	ema, err := st.EMAAt(q.Height, nav)
	if err != nil {
		return res, err
	}
	i1 := SubVec(v.inv, v.amt)
	pen, err := NotionalPenalty(v.inv, i1, v.w, v.prices, ema, m.Params)
	if err != nil {
		return res, err
	}
	withdrawn := Dot(v.amt, v.prices)
	if withdrawn.Sub(pen).IsNegative() {
		return res, DomainError.New("withdrawal %s, reward %s: %w", withdrawn, pen, ErrNegativeNotional)
	}
	cost, err := v.supply.Mul(withdrawn.Sub(pen)).Div(nav)
	if err != nil {
		return res, err
	}

	res = RedeemResult{
		RedeemAssets: cloneInts(q.Amounts, len(v.inv)),
		Penalty:      pen,
		Trace: []Attribute{
			{Key: "mode", Value: "targeted"},
			attr("ema", ema),
			attr("notional_value", nav),
			attr("redeem_value", withdrawn),
			attr("penalty", pen),
			attr("token_cost", cost),
		},
	}
	if res.TokenCost, err = ceilCost(cost, q.MaxTokens); err != nil {
		return RedeemResult{}, err
	}
	return res, nil
}

// ceilCost rounds a token cost up and checks it against the caller's bound.
func ceilCost(cost fpdec.FPDecimal, limit *uint256.Int) (*uint256.Int, error) {
	out, err := cost.Ceil().Uint256()
	if err != nil {
		return nil, err
	}
	if limit != nil && out.Gt(limit) {
		return nil, DomainError.New("cost %s > max %s: %w", out.Dec(), limit.Dec(), ErrMaxTokensExceeded)
	}
	return out, nil
}

func covered(inv, amt []fpdec.FPDecimal) error {
	for k := range inv {
		if amt[k].GT(inv[k]) {
			return DomainError.New("asset %d: want %s, have %s: %w", k, amt[k], inv[k], ErrInsufficientInventory)
		}
	}
	return nil
}

func cloneInts(xs []*uint256.Int, n int) []*uint256.Int {
	out := make([]*uint256.Int, n)
	for i := range out {
		out[i] = new(uint256.Int)
		if i < len(xs) && xs[i] != nil {
			out[i].Set(xs[i])
		}
	}
	return out
}
