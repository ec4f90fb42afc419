// Package model defines the domain records shared across the cluster
// service. Amounts, weights and prices use shopspring/decimal at this layer;
// the pricing engine converts them to fixed point at its boundary.
package model

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/penalty"
)

// Cluster statuses.
const (
	StatusActive         = "active"
	StatusDecommissioned = "decommissioned"
)

// Ledger actions.
const (
	ActionMint   = "mint"
	ActionRedeem = "redeem"
	ActionFee    = "fee"
)

// Cluster is a basket token backed by an inventory of component assets.
// Assets, TargetWeights and Inventory are aligned by position.
type Cluster struct {
	ID            string            `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	Symbol        string            `json:"symbol" db:"symbol"`
	Owner         string            `json:"owner" db:"owner"`
	Assets        []string          `json:"assets" db:"assets"`
	TargetWeights []decimal.Decimal `json:"target_weights" db:"target_weights"` // unnormalised integers
	Inventory     []decimal.Decimal `json:"inventory" db:"inventory"`           // integer amounts held
	TotalSupply   decimal.Decimal   `json:"total_supply" db:"total_supply"`     // cluster tokens outstanding
	Penalty       penalty.Config    `json:"penalty" db:"penalty"`
	State         penalty.State     `json:"state" db:"state"`
	FeeRate       decimal.Decimal   `json:"fee_rate" db:"fee_rate"` // protocol fee, fraction of tokens moved
	Status        string            `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
}

// Active reports whether the cluster accepts mints and targeted redeems.
func (c *Cluster) Active() bool { return c.Status == StatusActive }

// Clone returns a deep copy, so callers can stage changes without touching
// a stored value.
func (c *Cluster) Clone() *Cluster {
	cp := *c
	cp.Assets = append([]string(nil), c.Assets...)
	cp.TargetWeights = append([]decimal.Decimal(nil), c.TargetWeights...)
	cp.Inventory = append([]decimal.Decimal(nil), c.Inventory...)
	if c.Penalty.Piecewise != nil {
		p := *c.Penalty.Piecewise
		cp.Penalty.Piecewise = &p
	}
	if c.Penalty.Tanh != nil {
		p := *c.Penalty.Tanh
		cp.Penalty.Tanh = &p
	}
	return &cp
}

// LedgerEntry is an immutable record of a token movement. A mint or redeem
// writes one entry for the user and, when a protocol fee applies, one "fee"
// entry crediting the collector.
type LedgerEntry struct {
	ID           string            `json:"id" db:"id"`
	ClusterID    string            `json:"cluster_id" db:"cluster_id"`
	UserID       string            `json:"user_id" db:"user_id"`
	Action       string            `json:"action" db:"action"`               // "mint", "redeem", "fee"
	TokenDelta   decimal.Decimal   `json:"token_delta" db:"token_delta"`     // signed: +credit, -burn
	AssetAmounts []decimal.Decimal `json:"asset_amounts" db:"asset_amounts"` // deposited (mint) or withdrawn (redeem)
	Penalty      decimal.Decimal   `json:"penalty" db:"penalty"`             // signed notional: -penalty, +reward
	Height       uint64            `json:"height" db:"height"`
	Timestamp    time.Time         `json:"timestamp" db:"timestamp"`
}

// Holding is a user's cluster token balance, aggregated from the ledger.
type Holding struct {
	UserID    string          `json:"user_id"`
	ClusterID string          `json:"cluster_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// Price is an oracle quote for one asset in the common quote unit.
type Price struct {
	AssetID   string          `json:"asset_id" db:"asset_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	UpdatedAt time.Time       `json:"updated_at" db:"updated_at"`
}
