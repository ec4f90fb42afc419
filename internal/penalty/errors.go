package penalty

import (
	"errors"

	"github.com/zeebo/errs"
)

// DomainError classifies inputs the engine refuses to price: mismatched
// vectors, invalid curve parameters, imbalance beyond the high cutoff and
// caller bounds that cannot be met.
var DomainError = errs.Class("domain")

var (
	ErrLengthMismatch        = errors.New("vector lengths differ")
	ErrInvalidParams         = errors.New("invalid penalty parameters")
	ErrImbalanceTooHigh      = errors.New("imbalance above high cutoff")
	ErrHeightRegressed       = errors.New("block height regressed")
	ErrMaxTokensExceeded     = errors.New("token cost exceeds max tokens")
	ErrInsufficientInventory = errors.New("redeem amount exceeds inventory")
	ErrNegativeNotional      = errors.New("penalty exceeds deposit value")
	ErrEmptyTrade            = errors.New("trade has zero notional value")
	ErrZeroSupply            = errors.New("cluster token supply is zero")
)
