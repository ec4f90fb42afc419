package penalty

import (
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// ComputeErr returns the signed notional deviation of each holding from the
// holding the basket's total value would buy at target weights:
//
//	u = (w ⊙ p) / (w · p)
//	err = (inv · p) * u - inv ⊙ p
func ComputeErr(inv, prices, weights []fpdec.FPDecimal) (out []fpdec.FPDecimal, err error) {
	if err := sameLength(len(inv), len(prices), len(weights)); err != nil {
		return nil, err
	}
	defer fpdec.Catch(&err)

	wp := Dot(weights, prices)
	nav := Dot(inv, prices)
	out = make([]fpdec.FPDecimal, len(inv))
	for k := range inv {
		target, err := weights[k].Mul(prices[k]).Mul(nav).Div(wp)
		if err != nil {
			return nil, err
		}
		out[k] = target.Sub(inv[k].Mul(prices[k]))
	}
	return out, nil
}

// ComputeDiff returns |err(inv+delta)| - |err(inv)| element-wise. Positive
// entries moved away from target.
func ComputeDiff(inv, delta, prices, weights []fpdec.FPDecimal) (out []fpdec.FPDecimal, err error) {
	if err := sameLength(len(inv), len(delta)); err != nil {
		return nil, err
	}
	before, err := ComputeErr(inv, prices, weights)
	if err != nil {
		return nil, err
	}
	defer fpdec.Catch(&err)
	after, err := ComputeErr(AddVec(inv, delta), prices, weights)
	if err != nil {
		return nil, err
	}
	return SubVec(AbsVec(after), AbsVec(before)), nil
}

// ComputeScore is the aggregate imbalance change per unit of trade notional,
// sum(diff) / (delta · p). A positive score worsens the basket.
func ComputeScore(inv, delta, prices, weights []fpdec.FPDecimal) (score fpdec.FPDecimal, err error) {
	diff, err := ComputeDiff(inv, delta, prices, weights)
	if err != nil {
		return fpdec.Zero, err
	}
	defer fpdec.Catch(&err)
	size := Dot(delta, prices)
	if size.IsZero() {
		return fpdec.Zero, DomainError.New("score: %w", ErrEmptyTrade)
	}
	return Sum(diff).Div(size)
}

// ComputePenalty maps a score to the fraction of notional credited:
//
//	score <= 0: 1 - a_neg * tanh(score / s_neg)
//	score > 0:  1 - a_pos * tanh(score / s_pos)
func ComputePenalty(score fpdec.FPDecimal, params TanhParams) (fpdec.FPDecimal, error) {
	alpha, sigma := params.AlphaPos, params.SigmaPos
	if !score.IsPositive() {
		alpha, sigma = params.AlphaNeg, params.SigmaNeg
	}
	x, err := score.Div(sigma)
	if err != nil {
		return fpdec.Zero, err
	}
	return fpdec.One.Sub(alpha.Mul(x.Tanh())), nil
}

// Tanh is the legacy score-based pricing model. It carries no EMA.
type Tanh struct {
	Params TanhParams
}

// ComputeMint credits the deposit at the penalty multiplier m:
//
//	tokens = floor(m * (amounts·p) * supply / (inv·p))
func (m Tanh) ComputeMint(_ State, q MintQuery) (res MintResult, err error) {
	v, err := convert(q.Supply, q.Inventory, q.Amounts, q.Prices, q.Weights)
	if err != nil {
		return res, err
	}
	score, err := ComputeScore(v.inv, v.amt, v.prices, v.w)
	if err != nil {
		return res, err
	}
	mult, err := ComputePenalty(score, m.Params)
	if err != nil {
		return res, err
	}
	defer fpdec.Catch(&err)

	nav := Dot(v.inv, v.prices)
	deposit := Dot(v.amt, v.prices)
	credited := mult.Mul(deposit)
	tokens, err := credited.Mul(v.supply).Div(nav)
	if err != nil {
		return res, err
	}
	out, err := tokens.Uint256()
	if err != nil {
		return res, err
	}
	pen := credited.Sub(deposit)

	return MintResult{
		MintTokens: out,
		Penalty:    pen,
		Trace: []Attribute{
			attr("score", score),
			attr("penalty_multiplier", mult),
			attr("notional_value", nav),
			attr("deposit_value", deposit),
			attr("penalty", pen),
			attr("mint_tokens", tokens),
		},
	}, nil
}

// ComputeRedeem prices a targeted withdrawal r by scoring the inventory
// change -r, with the sign flipped so that draining under-weight assets
// scores positive:
//
//	cost = ceil(supply * (r·p) / ((inv·p) * m))
//
// Pro-rata redemptions are priced as in Piecewise.
func (m Tanh) ComputeRedeem(_ State, q RedeemQuery) (res RedeemResult, err error) {
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

	score, err := ComputeScore(v.inv, Scale(v.amt, fpdec.One.Neg()), v.prices, v.w)
	if err != nil {
		return res, err
	}
	score = score.Neg()
	mult, err := ComputePenalty(score, m.Params)
	if err != nil {
		return res, err
	}
	if !mult.IsPositive() {
		return res, DomainError.New("penalty multiplier %s: %w", mult, ErrNegativeNotional)
	}

	nav := Dot(v.inv, v.prices)
	withdrawn := Dot(v.amt, v.prices)
	charged, err := withdrawn.Div(mult)
	if err != nil {
		return res, err
	}
	cost, err := v.supply.Mul(withdrawn).Div(nav.Mul(mult))
	if err != nil {
		return res, err
	}
	pen := withdrawn.Sub(charged)

	res = RedeemResult{
		RedeemAssets: cloneInts(q.Amounts, len(v.inv)),
		Penalty:      pen,
		Trace: []Attribute{
			{Key: "mode", Value: "targeted"},
			attr("score", score),
			attr("penalty_multiplier", mult),
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
