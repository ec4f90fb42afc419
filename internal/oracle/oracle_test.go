package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/store"
)

func newTestOracle(maxAge time.Duration, now time.Time) *Oracle {
	o := New(store.NewMemoryStore(), maxAge)
	o.now = func() time.Time { return now }
	return o
}

func TestOracle_FeedAndPrices(t *testing.T) {
	ctx := context.Background()
	o := newTestOracle(0, time.Now())

	_, err := o.Feed(ctx, map[string]decimal.Decimal{
		"native:uluna": decimal.RequireFromString("1.2345"),
		"native:uusd":  decimal.NewFromInt(1),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prices, err := o.Prices(ctx, []string{"native:uusd", "native:uluna"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prices[0].String() != "1" || prices[1].String() != "1.2345" {
		t.Errorf("expected [1 1.2345], got [%s %s]", prices[0], prices[1])
	}

	all, _ := o.All(ctx)
	if len(all) != 2 {
		t.Errorf("expected 2 quotes, got %d", len(all))
	}
}

func TestOracle_Missing(t *testing.T) {
	o := newTestOracle(0, time.Now())
	_, err := o.Prices(context.Background(), []string{"native:uluna"})
	if !errors.Is(err, ErrMissingPrice) {
		t.Errorf("expected ErrMissingPrice, got %v", err)
	}
}

func TestOracle_Stale(t *testing.T) {
	ctx := context.Background()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := newTestOracle(time.Minute, t0)
	if _, err := o.Feed(ctx, map[string]decimal.Decimal{"native:uluna": decimal.NewFromInt(2)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o.now = func() time.Time { return t0.Add(59 * time.Second) }
	if _, err := o.Prices(ctx, []string{"native:uluna"}); err != nil {
		t.Errorf("fresh price rejected: %v", err)
	}

	o.now = func() time.Time { return t0.Add(2 * time.Minute) }
	if _, err := o.Prices(ctx, []string{"native:uluna"}); !errors.Is(err, ErrStalePrice) {
		t.Errorf("expected ErrStalePrice, got %v", err)
	}
}

func TestOracle_FeedRejectsInvalid(t *testing.T) {
	o := newTestOracle(0, time.Now())
	ctx := context.Background()

	if _, err := o.Feed(ctx, map[string]decimal.Decimal{"native:uluna": decimal.Zero}); !errors.Is(err, ErrInvalidPrice) {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
	if _, err := o.Feed(ctx, map[string]decimal.Decimal{"uluna": decimal.NewFromInt(1)}); err == nil {
		t.Error("expected error for malformed asset id")
	}
}
