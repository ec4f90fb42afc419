// Package penalty prices basket mints and redemptions by how much they move
// the inventory away from (or back toward) its target allocation.
//
// Two models are implemented. Piecewise, the default, integrates a
// flat/linear penalty band over the change in L1 notional imbalance and pays
// a flat reward for improvements, with cutoffs scaled by an EMA of the
// basket notional. Tanh is the earlier formulation: a score normalised by
// the trade size is mapped through tanh into a multiplier on the credited
// notional.
//
// All arithmetic is fpdec fixed point, so a query prices identically on
// every node. Inputs and outputs cross the boundary as integers.
package penalty

import (
	"github.com/holiman/uint256"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// Attribute is one key/value line of a computation trace.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func attr(key string, v fpdec.FPDecimal) Attribute {
	return Attribute{Key: key, Value: v.String()}
}

// MintQuery describes a deposit of Amounts into a basket holding Inventory
// with Supply cluster tokens outstanding. Prices and Weights are aligned
// with Inventory by position. Height is the current block.
type MintQuery struct {
	Supply    *uint256.Int
	Inventory []*uint256.Int
	Amounts   []*uint256.Int
	Prices    []fpdec.FPDecimal
	Weights   []*uint256.Int
	Height    uint64
}

// MintResult is the priced deposit. Penalty is the signed notional
// adjustment: negative for a penalty, positive for a reward.
type MintResult struct {
	MintTokens *uint256.Int
	Penalty    fpdec.FPDecimal
	Trace      []Attribute
}

// RedeemQuery describes burning at most MaxTokens. With no Amounts the
// redemption is pro rata; otherwise exactly Amounts are withdrawn.
type RedeemQuery struct {
	Supply    *uint256.Int
	Inventory []*uint256.Int
	MaxTokens *uint256.Int
	Amounts   []*uint256.Int
	Prices    []fpdec.FPDecimal
	Weights   []*uint256.Int
	Height    uint64
}

// Targeted reports whether specific asset amounts were requested.
func (q RedeemQuery) Targeted() bool {
	for _, a := range q.Amounts {
		if a != nil && !a.IsZero() {
			return true
		}
	}
	return false
}

// RedeemResult is the priced redemption.
type RedeemResult struct {
	RedeemAssets []*uint256.Int
	TokenCost    *uint256.Int
	Penalty      fpdec.FPDecimal
	Trace        []Attribute
}

// Model prices mints and redemptions against a cluster's pricing state.
// Implementations are pure: the caller persists any state change.
type Model interface {
	ComputeMint(st State, q MintQuery) (MintResult, error)
	ComputeRedeem(st State, q RedeemQuery) (RedeemResult, error)
}

// NewModel returns the model selected by cfg.
func NewModel(cfg Config) (Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Kind() == ModelTanh {
		return Tanh{Params: *cfg.Tanh}, nil
	}
	return Piecewise{Params: *cfg.Piecewise}, nil
}

// vectors is the decimal form of a query.
type vectors struct {
	supply fpdec.FPDecimal
	inv    []fpdec.FPDecimal
	amt    []fpdec.FPDecimal
	prices []fpdec.FPDecimal
	w      []fpdec.FPDecimal
}

func convert(supply *uint256.Int, inv, amt []*uint256.Int, prices []fpdec.FPDecimal, w []*uint256.Int) (v vectors, err error) {
	n := len(inv)
	if len(amt) == 0 {
		amt = make([]*uint256.Int, n)
	}
	if err := sameLength(n, len(amt), len(prices), len(w)); err != nil {
		return v, err
	}
	if supply == nil {
		supply = new(uint256.Int)
	}
	if v.supply, err = fpdec.NewFromUint256(supply); err != nil {
		return v, err
	}
	if v.inv, err = FromInts(inv); err != nil {
		return v, err
	}
	if v.amt, err = FromInts(amt); err != nil {
		return v, err
	}
	if v.w, err = FromInts(w); err != nil {
		return v, err
	}
	v.prices = prices
	return v, nil
}

// toInts truncates decimals back to on-chain integers.
func toInts(xs []fpdec.FPDecimal) ([]*uint256.Int, error) {
	out := make([]*uint256.Int, len(xs))
	for i, x := range xs {
		u, err := x.Uint256()
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

// proRata splits burn tokens across the inventory in proportion to
// holdings: redeem_i = floor(inv_i * burn / supply). The remaining basket
// keeps its allocation, so no penalty applies. A missing burn, or one above
// supply, burns the whole supply.
func proRata(v vectors, supply, burn *uint256.Int) (res RedeemResult, err error) {
	defer fpdec.Catch(&err)
	if v.supply.IsZero() {
		return res, DomainError.New("pro rata redeem: %w", ErrZeroSupply)
	}
	if burn == nil || burn.Gt(supply) {
		burn = supply
	}
	b, err := fpdec.NewFromUint256(burn)
	if err != nil {
		return res, err
	}

	out := make([]fpdec.FPDecimal, len(v.inv))
	for i, x := range v.inv {
		if out[i], err = x.Mul(b).Div(v.supply); err != nil {
			return res, err
		}
	}
	assets, err := toInts(out)
	if err != nil {
		return res, err
	}
	cost, err := b.Uint256()
	if err != nil {
		return res, err
	}
	return RedeemResult{
		RedeemAssets: assets,
		TokenCost:    cost,
		Penalty:      fpdec.Zero,
		Trace: []Attribute{
			{Key: "mode", Value: "pro_rata"},
			attr("burn_tokens", b),
			attr("notional_value", Dot(v.inv, v.prices)),
		},
	}, nil
}
