package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/penalty"
)

func testCluster(id, symbol string, created time.Time) *model.Cluster {
	return &model.Cluster{
		ID:            id,
		Name:          symbol + " index",
		Symbol:        symbol,
		Owner:         "alice",
		Assets:        []string{"native:uatom", "native:uosmo"},
		TargetWeights: []decimal.Decimal{decimal.NewFromInt(1), decimal.NewFromInt(1)},
		Inventory:     []decimal.Decimal{decimal.Zero, decimal.Zero},
		TotalSupply:   decimal.Zero,
		Penalty:       penalty.DefaultConfig(),
		Status:        model.StatusActive,
		CreatedAt:     created,
	}
}

func TestMemoryStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	c := testCluster("c1", "CIDX", time.Now())
	if err := s.CreateCluster(ctx, c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Mutating the caller's copy must not leak into the store.
	c.Inventory[0] = decimal.NewFromInt(99)

	got, err := s.GetCluster(ctx, "c1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Inventory[0].IsZero() {
		t.Errorf("store shares inventory with caller: %s", got.Inventory[0])
	}

	if _, err := s.GetCluster(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_UniqueSymbol(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateCluster(ctx, testCluster("c1", "CIDX", time.Now()))

	if err := s.CreateCluster(ctx, testCluster("c2", "CIDX", time.Now())); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate symbol, got %v", err)
	}
	if err := s.CreateCluster(ctx, testCluster("c1", "OTHER", time.Now())); !errors.Is(err, ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate id, got %v", err)
	}
}

func TestMemoryStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.CreateCluster(ctx, testCluster("old", "OLD", t0))
	s.CreateCluster(ctx, testCluster("new", "NEW", t0.Add(time.Hour)))

	clusters, _ := s.ListClusters(ctx)
	if len(clusters) != 2 || clusters[0].ID != "new" {
		t.Errorf("expected newest first, got %v", clusters)
	}
}

func TestMemoryStore_UpdateClusterLeavesExecutionState(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateCluster(ctx, testCluster("c1", "CIDX", time.Now()))

	upd := testCluster("c1", "CIDX", time.Now())
	upd.Owner = "bob"
	upd.Status = model.StatusDecommissioned
	upd.TotalSupply = decimal.NewFromInt(500)
	if err := s.UpdateCluster(ctx, upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := s.GetCluster(ctx, "c1")
	if got.Owner != "bob" || got.Status != model.StatusDecommissioned {
		t.Errorf("config fields not updated: %+v", got)
	}
	if !got.TotalSupply.IsZero() {
		t.Errorf("UpdateCluster must not change supply, got %s", got.TotalSupply)
	}
}

func TestMemoryStore_CommitExecutionAndBalances(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	s.CreateCluster(ctx, testCluster("c1", "CIDX", time.Now()))

	next := testCluster("c1", "CIDX", time.Now())
	next.Inventory = []decimal.Decimal{decimal.NewFromInt(500), decimal.NewFromInt(500)}
	next.TotalSupply = decimal.NewFromInt(1000)
	err := s.CommitExecution(ctx, &Execution{
		Cluster: next,
		Entries: []model.LedgerEntry{
			{ID: "e1", ClusterID: "c1", UserID: "alice", Action: model.ActionMint, TokenDelta: decimal.NewFromInt(990)},
			{ID: "e2", ClusterID: "c1", UserID: "collector", Action: model.ActionFee, TokenDelta: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.CommitExecution(ctx, &Execution{
		Cluster: next,
		Entries: []model.LedgerEntry{
			{ID: "e3", ClusterID: "c1", UserID: "alice", Action: model.ActionRedeem, TokenDelta: decimal.NewFromInt(-90)},
		},
	})

	got, _ := s.GetCluster(ctx, "c1")
	if !got.TotalSupply.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected supply 1000, got %s", got.TotalSupply)
	}
	bal, _ := s.GetBalance(ctx, "c1", "alice")
	if !bal.Equal(decimal.NewFromInt(900)) {
		t.Errorf("expected alice balance 900, got %s", bal)
	}
	entries, _ := s.GetLedgerEntriesByCluster(ctx, "c1")
	if len(entries) != 3 || entries[2].ID != "e3" {
		t.Errorf("expected 3 entries in order, got %v", entries)
	}
	byUser, _ := s.GetLedgerEntriesByUser(ctx, "collector")
	if len(byUser) != 1 {
		t.Errorf("expected 1 collector entry, got %d", len(byUser))
	}

	if err := s.CommitExecution(ctx, &Execution{Cluster: testCluster("nope", "X", time.Now())}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore_Prices(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.SetPrices(ctx, []model.Price{
		{AssetID: "native:uosmo", Price: decimal.NewFromInt(2), UpdatedAt: now},
		{AssetID: "native:uatom", Price: decimal.NewFromInt(10), UpdatedAt: now},
	})

	got, err := s.GetPrices(ctx, []string{"native:uosmo", "native:uatom"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got[0].Price.Equal(decimal.NewFromInt(2)) || !got[1].Price.Equal(decimal.NewFromInt(10)) {
		t.Errorf("prices out of order: %v", got)
	}

	if _, err := s.GetPrices(ctx, []string{"native:ujuno"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	all, _ := s.ListPrices(ctx)
	if len(all) != 2 || all[0].AssetID != "native:uatom" {
		t.Errorf("expected prices sorted by asset, got %v", all)
	}
}
