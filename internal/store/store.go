// Package store defines the persistence interface for the cluster service.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
)

var (
	ErrNotFound = errors.New("store: not found")
	ErrConflict = errors.New("store: already exists")
)

// Execution is the full effect of one mint or redeem: the cluster's new
// inventory, supply and pricing state plus the ledger entries moving tokens.
// It is committed all-or-nothing.
type Execution struct {
	Cluster *model.Cluster
	Entries []model.LedgerEntry
}

// Store is the persistence interface. PostgreSQL is the source of truth;
// Redis provides a read-through cache layer.
type Store interface {
	// --- Cluster operations ---

	// CreateCluster persists a new cluster. Symbols are unique.
	CreateCluster(ctx context.Context, c *model.Cluster) error

	// GetCluster retrieves a cluster by its ID.
	GetCluster(ctx context.Context, id string) (*model.Cluster, error)

	// ListClusters returns all clusters, newest first.
	ListClusters(ctx context.Context) ([]model.Cluster, error)

	// UpdateCluster replaces owner, weights, penalty config and status.
	UpdateCluster(ctx context.Context, c *model.Cluster) error

	// --- Execution ---

	// CommitExecution atomically stores the cluster's new inventory, supply
	// and pricing state and appends the ledger entries.
	CommitExecution(ctx context.Context, ex *Execution) error

	// --- Immutable ledger ---

	// GetLedgerEntriesByCluster returns all entries for a cluster in order.
	GetLedgerEntriesByCluster(ctx context.Context, clusterID string) ([]model.LedgerEntry, error)

	// GetLedgerEntriesByUser returns all entries for a user in order.
	GetLedgerEntriesByUser(ctx context.Context, userID string) ([]model.LedgerEntry, error)

	// GetBalance sums the user's token deltas in a cluster.
	GetBalance(ctx context.Context, clusterID, userID string) (decimal.Decimal, error)

	// --- Oracle prices ---

	// SetPrices upserts quotes.
	SetPrices(ctx context.Context, prices []model.Price) error

	// GetPrices returns quotes for assetIDs in order; a missing asset is
	// ErrNotFound.
	GetPrices(ctx context.Context, assetIDs []string) ([]model.Price, error)

	// ListPrices returns every quote.
	ListPrices(ctx context.Context) ([]model.Price, error)
}
