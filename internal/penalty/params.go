package penalty

import (
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// Params shapes the piecewise penalty/reward curve. Cutoffs are fractions of
// the basket notional EMA; amounts are rates charged (or paid) per unit of
// imbalance.
//
// Below PenaltyCutoffLo the penalty rate is flat at PenaltyAmtLo, between the
// cutoffs it ramps linearly to PenaltyAmtHi, and trades that would end above
// PenaltyCutoffHi are refused. Improvements are paid RewardAmt per unit of
// imbalance removed above RewardCutoff.
type Params struct {
	PenaltyAmtLo    fpdec.FPDecimal `json:"penalty_amt_lo"`
	PenaltyCutoffLo fpdec.FPDecimal `json:"penalty_cutoff_lo"`
	PenaltyAmtHi    fpdec.FPDecimal `json:"penalty_amt_hi"`
	PenaltyCutoffHi fpdec.FPDecimal `json:"penalty_cutoff_hi"`
	RewardAmt       fpdec.FPDecimal `json:"reward_amt"`
	RewardCutoff    fpdec.FPDecimal `json:"reward_cutoff"`
}

// Validate checks the curve. PenaltyAmtHi must be exactly one: at the top of
// the ramp a trade pays its full notional.
func (p Params) Validate() error {
	switch {
	case !p.PenaltyAmtHi.Equal(fpdec.One):
		return DomainError.New("penalty_amt_hi %s must be 1: %w", p.PenaltyAmtHi, ErrInvalidParams)
	case p.PenaltyAmtLo.IsNegative() || p.PenaltyAmtLo.GT(p.PenaltyAmtHi):
		return DomainError.New("penalty_amt_lo %s must be in [0, 1]: %w", p.PenaltyAmtLo, ErrInvalidParams)
	case p.PenaltyCutoffLo.IsNegative() || p.PenaltyCutoffLo.GT(p.PenaltyCutoffHi):
		return DomainError.New("penalty cutoffs %s..%s out of order: %w", p.PenaltyCutoffLo, p.PenaltyCutoffHi, ErrInvalidParams)
	case p.RewardAmt.IsNegative() || p.RewardAmt.GT(fpdec.One):
		return DomainError.New("reward_amt %s must be in [0, 1]: %w", p.RewardAmt, ErrInvalidParams)
	case p.RewardCutoff.IsNegative():
		return DomainError.New("reward_cutoff %s is negative: %w", p.RewardCutoff, ErrInvalidParams)
	}
	return nil
}

// TanhParams shapes the legacy tanh curve: amplitude and steepness on each
// side of a zero score.
type TanhParams struct {
	AlphaPos fpdec.FPDecimal `json:"a_pos"`
	SigmaPos fpdec.FPDecimal `json:"s_pos"`
	AlphaNeg fpdec.FPDecimal `json:"a_neg"`
	SigmaNeg fpdec.FPDecimal `json:"s_neg"`
}

// Validate requires positive sigmas and amplitudes in [0, 1].
func (p TanhParams) Validate() error {
	for _, s := range []fpdec.FPDecimal{p.SigmaPos, p.SigmaNeg} {
		if !s.IsPositive() {
			return DomainError.New("sigma %s must be positive: %w", s, ErrInvalidParams)
		}
	}
	for _, a := range []fpdec.FPDecimal{p.AlphaPos, p.AlphaNeg} {
		if a.IsNegative() || a.GT(fpdec.One) {
			return DomainError.New("alpha %s must be in [0, 1]: %w", a, ErrInvalidParams)
		}
	}
	return nil
}

// ModelKind selects a pricing model.
type ModelKind string

const (
	ModelPiecewise ModelKind = "piecewise"
	ModelTanh      ModelKind = "tanh"
)

// Config is the full penalty configuration of a cluster. Exactly the
// parameters of the selected model are required; an empty Model means
// piecewise.
type Config struct {
	Model     ModelKind   `json:"model"`
	Piecewise *Params     `json:"piecewise,omitempty"`
	Tanh      *TanhParams `json:"tanh,omitempty"`
}

// Kind returns the configured model, defaulting to piecewise.
func (c Config) Kind() ModelKind {
	if c.Model == "" {
		return ModelPiecewise
	}
	return c.Model
}

func (c Config) Validate() error {
	switch c.Kind() {
	case ModelPiecewise:
		if c.Piecewise == nil {
			return DomainError.New("piecewise model without parameters: %w", ErrInvalidParams)
		}
		return c.Piecewise.Validate()
	case ModelTanh:
		if c.Tanh == nil {
			return DomainError.New("tanh model without parameters: %w", ErrInvalidParams)
		}
		return c.Tanh.Validate()
	default:
		return DomainError.New("unknown model %q: %w", c.Model, ErrInvalidParams)
	}
}

// DefaultConfig is the piecewise curve used when a cluster is created
// without explicit parameters.
func DefaultConfig() Config {
	return Config{
		Model: ModelPiecewise,
		Piecewise: &Params{
			PenaltyAmtLo:    fpdec.MustParse("0.1"),
			PenaltyCutoffLo: fpdec.MustParse("0.01"),
			PenaltyAmtHi:    fpdec.One,
			PenaltyCutoffHi: fpdec.MustParse("0.1"),
			RewardAmt:       fpdec.MustParse("0.05"),
			RewardCutoff:    fpdec.MustParse("0.02"),
		},
	}
}
