package penalty

import (
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
)

// Tau is the EMA decay time constant in blocks (about an hour of blocks).
const Tau = 600

// State is the per-cluster pricing state: an exponential moving average of
// the basket notional value and the block it was last folded in at.
// LastBlock == 0 means the EMA has never been set.
type State struct {
	EMA       fpdec.FPDecimal `json:"ema"`
	LastBlock uint64          `json:"last_block"`
}

// EMAAt returns the EMA as it would be at height after folding in nav:
//
//	f = exp(-(height-LastBlock)/Tau)
//	ema = f*EMA + (1-f)*nav
//
// A never-updated state returns nav unchanged.
func (s State) EMAAt(height uint64, nav fpdec.FPDecimal) (ema fpdec.FPDecimal, err error) {
	if s.LastBlock == 0 {
		return nav, nil
	}
	if height < s.LastBlock {
		return fpdec.Zero, DomainError.New("height %d before last update %d: %w", height, s.LastBlock, ErrHeightRegressed)
	}
	defer fpdec.Catch(&err)

	dt := fpdec.NewFromUint64(height - s.LastBlock).QuoInt(Tau)
	f, err := dt.Neg().Exp()
	if err != nil {
		return fpdec.Zero, err
	}
	return f.Mul(s.EMA).Add(fpdec.One.Sub(f).Mul(nav)), nil
}

// Update returns the state after folding nav in at height.
func (s State) Update(height uint64, nav fpdec.FPDecimal) (State, error) {
	ema, err := s.EMAAt(height, nav)
	if err != nil {
		return s, err
	}
	return State{EMA: ema, LastBlock: height}, nil
}
