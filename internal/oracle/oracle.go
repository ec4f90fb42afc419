// Package oracle is the price collaborator of the pricing engine: it accepts
// quotes from a feeder and hands the engine fixed-point prices aligned with
// a cluster's asset list.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/asset"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/store"
)

var (
	ErrMissingPrice = errors.New("oracle: no price for asset")
	ErrStalePrice   = errors.New("oracle: price is stale")
	ErrInvalidPrice = errors.New("oracle: price must be positive")
)

// PriceStore is the subset of store.Store the oracle needs.
type PriceStore interface {
	SetPrices(ctx context.Context, prices []model.Price) error
	GetPrices(ctx context.Context, assetIDs []string) ([]model.Price, error)
	ListPrices(ctx context.Context) ([]model.Price, error)
}

// Oracle serves prices from a PriceStore. Quotes older than MaxAge are
// refused; a zero MaxAge disables the check.
type Oracle struct {
	store  PriceStore
	maxAge time.Duration
	now    func() time.Time
}

// New creates an oracle over st.
func New(st PriceStore, maxAge time.Duration) *Oracle {
	return &Oracle{store: st, maxAge: maxAge, now: time.Now}
}

// Feed validates and stores quotes keyed by asset identifier.
func (o *Oracle) Feed(ctx context.Context, quotes map[string]decimal.Decimal) ([]model.Price, error) {
	at := o.now().UTC()
	prices := make([]model.Price, 0, len(quotes))
	for id, px := range quotes {
		if _, err := asset.Parse(id); err != nil {
			return nil, err
		}
		if !px.IsPositive() {
			return nil, fmt.Errorf("%w: %s = %s", ErrInvalidPrice, id, px)
		}
		prices = append(prices, model.Price{AssetID: id, Price: px, UpdatedAt: at})
	}
	if err := o.store.SetPrices(ctx, prices); err != nil {
		return nil, err
	}
	return prices, nil
}

// Prices returns fixed-point prices for assetIDs, in order.
func (o *Oracle) Prices(ctx context.Context, assetIDs []string) ([]fpdec.FPDecimal, error) {
	quotes, err := o.store.GetPrices(ctx, assetIDs)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrMissingPrice, err)
	}
	if err != nil {
		return nil, err
	}

	now := o.now()
	out := make([]fpdec.FPDecimal, len(quotes))
	for i, q := range quotes {
		if o.maxAge > 0 && now.Sub(q.UpdatedAt) > o.maxAge {
			return nil, fmt.Errorf("%w: %s updated %s", ErrStalePrice, q.AssetID, q.UpdatedAt.Format(time.RFC3339))
		}
		if !q.Price.IsPositive() {
			return nil, fmt.Errorf("%w: %s = %s", ErrInvalidPrice, q.AssetID, q.Price)
		}
		px, err := fpdec.Parse(q.Price.String())
		if err != nil {
			return nil, err
		}
		out[i] = px
	}
	return out, nil
}

// All returns every stored quote.
func (o *Oracle) All(ctx context.Context) ([]model.Price, error) {
	return o.store.ListPrices(ctx)
}
