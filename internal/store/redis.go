package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache. Writes go to the primary store and invalidate the cache; reads
// check Redis first then fall back to the primary.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CreateCluster(ctx context.Context, c *model.Cluster) error {
	if err := s.primary.CreateCluster(ctx, c); err != nil {
		return err
	}
	s.cacheJSON(ctx, clusterKey(c.ID), c)
	return nil
}

func (s *CachedStore) UpdateCluster(ctx context.Context, c *model.Cluster) error {
	if err := s.primary.UpdateCluster(ctx, c); err != nil {
		return err
	}
	// Invalidate cache; next read will re-populate.
	s.rdb.Del(ctx, clusterKey(c.ID))
	return nil
}

func (s *CachedStore) CommitExecution(ctx context.Context, ex *Execution) error {
	if err := s.primary.CommitExecution(ctx, ex); err != nil {
		return err
	}
	keys := []string{clusterKey(ex.Cluster.ID)}
	for _, e := range ex.Entries {
		keys = append(keys, balanceKey(e.ClusterID, e.UserID))
	}
	s.rdb.Del(ctx, keys...)
	return nil
}

func (s *CachedStore) SetPrices(ctx context.Context, prices []model.Price) error {
	if err := s.primary.SetPrices(ctx, prices); err != nil {
		return err
	}
	keys := make([]string, len(prices))
	for i, p := range prices {
		keys[i] = priceKey(p.AssetID)
	}
	if len(keys) > 0 {
		s.rdb.Del(ctx, keys...)
	}
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetCluster(ctx context.Context, id string) (*model.Cluster, error) {
	// Try cache.
	data, err := s.rdb.Get(ctx, clusterKey(id)).Bytes()
	if err == nil {
		var c model.Cluster
		if json.Unmarshal(data, &c) == nil {
			return &c, nil
		}
	}

	// Cache miss: read from primary.
	c, err := s.primary.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cacheJSON(ctx, clusterKey(id), c)
	return c, nil
}

func (s *CachedStore) GetBalance(ctx context.Context, clusterID, userID string) (decimal.Decimal, error) {
	if v, err := s.rdb.Get(ctx, balanceKey(clusterID, userID)).Result(); err == nil {
		if bal, err := decimal.NewFromString(v); err == nil {
			return bal, nil
		}
	}

	bal, err := s.primary.GetBalance(ctx, clusterID, userID)
	if err != nil {
		return decimal.Zero, err
	}
	s.rdb.Set(ctx, balanceKey(clusterID, userID), bal.String(), s.ttl)
	return bal, nil
}

// GetPrices serves quotes from the cache and fetches only the misses.
func (s *CachedStore) GetPrices(ctx context.Context, assetIDs []string) ([]model.Price, error) {
	out := make([]model.Price, len(assetIDs))
	var missing []string
	var missingAt []int

	keys := make([]string, len(assetIDs))
	for i, id := range assetIDs {
		keys[i] = priceKey(id)
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	for i := range assetIDs {
		if err == nil && i < len(vals) {
			if str, ok := vals[i].(string); ok && json.Unmarshal([]byte(str), &out[i]) == nil {
				continue
			}
		}
		missing = append(missing, assetIDs[i])
		missingAt = append(missingAt, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := s.primary.GetPrices(ctx, missing)
	if err != nil {
		return nil, err
	}
	for j, p := range fetched {
		out[missingAt[j]] = p
		s.cacheJSON(ctx, priceKey(p.AssetID), p)
	}
	return out, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListClusters(ctx context.Context) ([]model.Cluster, error) {
	return s.primary.ListClusters(ctx)
}

func (s *CachedStore) GetLedgerEntriesByCluster(ctx context.Context, clusterID string) ([]model.LedgerEntry, error) {
	return s.primary.GetLedgerEntriesByCluster(ctx, clusterID)
}

func (s *CachedStore) GetLedgerEntriesByUser(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	return s.primary.GetLedgerEntriesByUser(ctx, userID)
}

func (s *CachedStore) ListPrices(ctx context.Context) ([]model.Price, error) {
	return s.primary.ListPrices(ctx)
}

// --- Cache helpers ---

func (s *CachedStore) cacheJSON(ctx context.Context, key string, v interface{}) {
	if data, err := json.Marshal(v); err == nil {
		s.rdb.Set(ctx, key, data, s.ttl)
	}
}

func clusterKey(id string) string            { return fmt.Sprintf("cluster:%s", id) }
func balanceKey(cluster, user string) string { return fmt.Sprintf("balance:%s:%s", cluster, user) }
func priceKey(asset string) string           { return fmt.Sprintf("price:%s", asset) }
