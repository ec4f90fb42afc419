package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu       sync.RWMutex
	clusters map[string]*model.Cluster
	ledger   []model.LedgerEntry
	prices   map[string]model.Price
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clusters: make(map[string]*model.Cluster),
		prices:   make(map[string]model.Price),
	}
}

func (s *MemoryStore) CreateCluster(_ context.Context, c *model.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clusters[c.ID]; ok {
		return fmt.Errorf("%w: cluster %s", ErrConflict, c.ID)
	}
	for _, existing := range s.clusters {
		if existing.Symbol == c.Symbol {
			return fmt.Errorf("%w: cluster with symbol %s", ErrConflict, c.Symbol)
		}
	}

	// Store a copy to avoid external mutation.
	s.clusters[c.ID] = c.Clone()
	return nil
}

func (s *MemoryStore) GetCluster(_ context.Context, id string) (*model.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clusters[id]
	if !ok {
		return nil, fmt.Errorf("%w: cluster %s", ErrNotFound, id)
	}
	return c.Clone(), nil
}

func (s *MemoryStore) ListClusters(_ context.Context) ([]model.Cluster, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clusters := make([]model.Cluster, 0, len(s.clusters))
	for _, c := range s.clusters {
		clusters = append(clusters, *c.Clone())
	}
	sort.Slice(clusters, func(i, j int) bool {
		return clusters[i].CreatedAt.After(clusters[j].CreatedAt)
	})
	return clusters, nil
}

func (s *MemoryStore) UpdateCluster(_ context.Context, c *model.Cluster) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.clusters[c.ID]
	if !ok {
		return fmt.Errorf("%w: cluster %s", ErrNotFound, c.ID)
	}
	next := cur.Clone()
	upd := c.Clone()
	next.Owner = upd.Owner
	next.TargetWeights = upd.TargetWeights
	next.Penalty = upd.Penalty
	next.Status = upd.Status
	s.clusters[c.ID] = next
	return nil
}

func (s *MemoryStore) CommitExecution(_ context.Context, ex *Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.clusters[ex.Cluster.ID]
	if !ok {
		return fmt.Errorf("%w: cluster %s", ErrNotFound, ex.Cluster.ID)
	}
	next := cur.Clone()
	upd := ex.Cluster.Clone()
	next.Inventory = upd.Inventory
	next.TotalSupply = upd.TotalSupply
	next.State = upd.State
	s.clusters[next.ID] = next

	for _, e := range ex.Entries {
		e.AssetAmounts = append([]decimal.Decimal(nil), e.AssetAmounts...)
		s.ledger = append(s.ledger, e)
	}
	return nil
}

func (s *MemoryStore) GetLedgerEntriesByCluster(_ context.Context, clusterID string) ([]model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.LedgerEntry
	for _, e := range s.ledger {
		if e.ClusterID == clusterID {
			result = append(result, e)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetLedgerEntriesByUser(_ context.Context, userID string) ([]model.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.LedgerEntry
	for _, e := range s.ledger {
		if e.UserID == userID {
			result = append(result, e)
		}
	}
	return result, nil
}

// GetBalance aggregates the user's ledger entries in one cluster.
func (s *MemoryStore) GetBalance(_ context.Context, clusterID, userID string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	balance := decimal.Zero
	for _, e := range s.ledger {
		if e.ClusterID == clusterID && e.UserID == userID {
			balance = balance.Add(e.TokenDelta)
		}
	}
	return balance, nil
}

func (s *MemoryStore) SetPrices(_ context.Context, prices []model.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range prices {
		s.prices[p.AssetID] = p
	}
	return nil
}

func (s *MemoryStore) GetPrices(_ context.Context, assetIDs []string) ([]model.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Price, len(assetIDs))
	for i, id := range assetIDs {
		p, ok := s.prices[id]
		if !ok {
			return nil, fmt.Errorf("%w: price for %s", ErrNotFound, id)
		}
		out[i] = p
	}
	return out, nil
}

func (s *MemoryStore) ListPrices(_ context.Context) ([]model.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Price, 0, len(s.prices))
	for _, p := range s.prices {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out, nil
}
