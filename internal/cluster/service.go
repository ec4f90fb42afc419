// Package cluster provides the HTTP handlers and business logic for
// creating clusters, minting and redeeming cluster tokens, and querying
// pricing state and holdings.
//
// Amounts cross the HTTP boundary as shopspring/decimal; pricing runs in
// fpdec fixed point through the penalty engine.
package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/asset"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/chain"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/metrics"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/oracle"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/penalty"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/store"
)

// Service handles cluster operations. Executions are serialized by a mutex
// (single-instance); each one is committed to the store in a single call.
type Service struct {
	store     store.Store
	oracle    *oracle.Oracle
	clock     chain.Clock
	wsHub     *WSHub // optional
	collector string
	mu        sync.Mutex
	now       func() time.Time
}

// NewService creates a new cluster service. Protocol fees are credited to
// collector. Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(st store.Store, o *oracle.Oracle, clock chain.Clock, hub *WSHub, collector string) *Service {
	return &Service{
		store:     st,
		oracle:    o,
		clock:     clock,
		wsHub:     hub,
		collector: collector,
		now:       time.Now,
	}
}

// --- Request/Response types ---

// CreateRequest is the JSON body for cluster creation.
type CreateRequest struct {
	Name          string            `json:"name"`
	Symbol        string            `json:"symbol"`
	Owner         string            `json:"owner"`
	Assets        []string          `json:"assets"`
	TargetWeights []decimal.Decimal `json:"target_weights"`
	Penalty       *penalty.Config   `json:"penalty,omitempty"` // nil: penalty.DefaultConfig
	FeeRate       decimal.Decimal   `json:"fee_rate"`
}

// MintRequest is the JSON body for POST /clusters/{id}/mint.
type MintRequest struct {
	UserID       string            `json:"user_id"`
	AssetAmounts []decimal.Decimal `json:"asset_amounts"`
	MinTokens    decimal.Decimal   `json:"min_tokens"`
}

// MintResponse reports a mint. MintTokens is the total issued; the user is
// credited UserTokens and the collector Fee.
type MintResponse struct {
	ClusterID   string              `json:"cluster_id"`
	UserID      string              `json:"user_id,omitempty"`
	MintTokens  decimal.Decimal     `json:"mint_tokens"`
	UserTokens  decimal.Decimal     `json:"user_tokens"`
	Fee         decimal.Decimal     `json:"fee"`
	Penalty     decimal.Decimal     `json:"penalty"`
	TotalSupply decimal.Decimal     `json:"total_supply"`
	Height      uint64              `json:"height"`
	Trace       []penalty.Attribute `json:"trace"`
}

// RedeemRequest is the JSON body for POST /clusters/{id}/redeem. Without
// AssetAmounts the redemption is pro rata. MaxTokens defaults to the
// largest burn the user's balance can cover including the fee.
type RedeemRequest struct {
	UserID       string            `json:"user_id"`
	MaxTokens    *decimal.Decimal  `json:"max_tokens,omitempty"`
	AssetAmounts []decimal.Decimal `json:"asset_amounts,omitempty"`
}

// RedeemResponse reports a redemption. The user's balance drops by
// TokenCost + Fee; TokenCost is burned.
type RedeemResponse struct {
	ClusterID    string              `json:"cluster_id"`
	UserID       string              `json:"user_id,omitempty"`
	TokenCost    decimal.Decimal     `json:"token_cost"`
	Fee          decimal.Decimal     `json:"fee"`
	RedeemAssets []decimal.Decimal   `json:"redeem_assets"`
	Penalty      decimal.Decimal     `json:"penalty"`
	TotalSupply  decimal.Decimal     `json:"total_supply"`
	Height       uint64              `json:"height"`
	Trace        []penalty.Attribute `json:"trace"`
}

// SimulateRedeemRequest is the JSON body for a redeem quote. A nil
// MaxTokens is unbounded.
type SimulateRedeemRequest struct {
	MaxTokens    *decimal.Decimal  `json:"max_tokens,omitempty"`
	AssetAmounts []decimal.Decimal `json:"asset_amounts,omitempty"`
}

// UpdateConfigRequest is the JSON body for PUT /clusters/{id}/config.
// Absent fields are left unchanged.
type UpdateConfigRequest struct {
	Sender        string            `json:"sender"`
	Owner         *string           `json:"owner,omitempty"`
	PenaltyParams *penalty.Config   `json:"penalty_params,omitempty"`
	TargetWeights []decimal.Decimal `json:"target_weights,omitempty"`
}

// ParamsResponse is the pricing configuration and state of a cluster.
type ParamsResponse struct {
	PenaltyParams penalty.Config  `json:"penalty_params"`
	LastBlock     uint64          `json:"last_block"`
	EMA           fpdec.FPDecimal `json:"ema"`
}

// --- Cluster lifecycle ---

// Create validates and stores a new, empty cluster.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*model.Cluster, error) {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, RequestError.New("name is required")
	case strings.TrimSpace(req.Symbol) == "":
		return nil, RequestError.New("symbol is required")
	case req.Owner == "":
		return nil, RequestError.New("owner is required")
	}

	assets, err := asset.ParseSet(req.Assets)
	if err != nil {
		return nil, err
	}
	if _, err := validWeights(req.TargetWeights, len(assets)); err != nil {
		return nil, err
	}

	cfg := penalty.DefaultConfig()
	if req.Penalty != nil {
		cfg = *req.Penalty
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if req.FeeRate.IsNegative() || req.FeeRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, RequestError.New("fee_rate %s must be in [0, 1)", req.FeeRate)
	}

	inventory := make([]decimal.Decimal, len(assets))
	for i := range inventory {
		inventory[i] = decimal.Zero
	}
	c := &model.Cluster{
		ID:            uuid.New().String(),
		Name:          req.Name,
		Symbol:        req.Symbol,
		Owner:         req.Owner,
		Assets:        asset.IDs(assets),
		TargetWeights: append([]decimal.Decimal(nil), req.TargetWeights...),
		Inventory:     inventory,
		TotalSupply:   decimal.Zero,
		Penalty:       cfg,
		State:         penalty.State{EMA: fpdec.Zero},
		FeeRate:       req.FeeRate,
		Status:        model.StatusActive,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.store.CreateCluster(ctx, c); err != nil {
		return nil, err
	}

	metrics.ActiveClusters.Inc()
	metrics.ClusterSupply.WithLabelValues(c.ID).Set(0)
	slog.Info("cluster created",
		"id", c.ID,
		"symbol", c.Symbol,
		"owner", c.Owner,
		"assets", c.Assets,
		"model", string(cfg.Kind()),
	)
	return c, nil
}

// Get returns a cluster by id.
func (s *Service) Get(ctx context.Context, id string) (*model.Cluster, error) {
	return s.store.GetCluster(ctx, id)
}

// List returns all clusters, newest first.
func (s *Service) List(ctx context.Context) ([]model.Cluster, error) {
	clusters, err := s.store.ListClusters(ctx)
	if err != nil {
		return nil, err
	}
	if clusters == nil {
		clusters = []model.Cluster{}
	}
	return clusters, nil
}

// Params returns the penalty configuration and EMA state.
func (s *Service) Params(ctx context.Context, id string) (*ParamsResponse, error) {
	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ParamsResponse{
		PenaltyParams: c.Penalty,
		LastBlock:     c.State.LastBlock,
		EMA:           c.State.EMA,
	}, nil
}

// UpdateConfig changes the owner, penalty parameters or target weights.
// Only the current owner may call it.
func (s *Service) UpdateConfig(ctx context.Context, id string, req UpdateConfigRequest) (*model.Cluster, error) {
	if req.Sender == "" {
		return nil, RequestError.New("sender is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Sender != c.Owner {
		return nil, AuthorizationError.New("update config of %s by %s: %w", c.Symbol, req.Sender, ErrNotOwner)
	}

	next := c.Clone()
	if req.Owner != nil {
		if *req.Owner == "" {
			return nil, RequestError.New("owner must not be empty")
		}
		next.Owner = *req.Owner
	}
	if req.PenaltyParams != nil {
		if err := req.PenaltyParams.Validate(); err != nil {
			return nil, err
		}
		next.Penalty = *req.PenaltyParams
	}
	if req.TargetWeights != nil {
		if _, err := validWeights(req.TargetWeights, len(c.Assets)); err != nil {
			return nil, err
		}
		next.TargetWeights = append([]decimal.Decimal(nil), req.TargetWeights...)
	}

	if err := s.store.UpdateCluster(ctx, next); err != nil {
		return nil, err
	}

	slog.Info("config updated",
		"id", next.ID,
		"owner", next.Owner,
		"model", string(next.Penalty.Kind()),
		"target_weights", decimalStrings(next.TargetWeights),
	)
	s.broadcast(WSMessage{Type: EventConfig, ClusterID: next.ID, Symbol: next.Symbol})
	return next, nil
}

// Decommission stops mints and targeted redeems. Pro-rata redeems remain
// open so holders can always exit.
func (s *Service) Decommission(ctx context.Context, id, sender string) (*model.Cluster, error) {
	if sender == "" {
		return nil, RequestError.New("sender is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	if sender != c.Owner {
		return nil, AuthorizationError.New("decommission %s by %s: %w", c.Symbol, sender, ErrNotOwner)
	}
	if !c.Active() {
		return nil, fmt.Errorf("decommission %s: %w", c.Symbol, ErrInactive)
	}

	next := c.Clone()
	next.Status = model.StatusDecommissioned
	if err := s.store.UpdateCluster(ctx, next); err != nil {
		return nil, err
	}

	metrics.ActiveClusters.Dec()
	slog.Info("cluster decommissioned", "id", next.ID, "symbol", next.Symbol)
	s.broadcast(WSMessage{Type: EventDecommission, ClusterID: next.ID, Symbol: next.Symbol})
	return next, nil
}

// History returns the ledger of a cluster in execution order.
func (s *Service) History(ctx context.Context, id string) ([]model.LedgerEntry, error) {
	if _, err := s.store.GetCluster(ctx, id); err != nil {
		return nil, err
	}
	entries, err := s.store.GetLedgerEntriesByCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	return entries, nil
}

// UserHistory returns every ledger entry of a user across clusters.
func (s *Service) UserHistory(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	if userID == "" {
		return nil, RequestError.New("user_id is required")
	}
	entries, err := s.store.GetLedgerEntriesByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []model.LedgerEntry{}
	}
	return entries, nil
}

// Holding returns a user's token balance in a cluster.
func (s *Service) Holding(ctx context.Context, id, userID string) (*model.Holding, error) {
	if _, err := s.store.GetCluster(ctx, id); err != nil {
		return nil, err
	}
	bal, err := s.store.GetBalance(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return &model.Holding{UserID: userID, ClusterID: id, Balance: bal}, nil
}

// RefreshGauges sets the cluster gauges from the store. Called at startup.
func (s *Service) RefreshGauges(ctx context.Context) error {
	clusters, err := s.store.ListClusters(ctx)
	if err != nil {
		return err
	}
	active := 0
	for _, c := range clusters {
		if c.Active() {
			active++
		}
		metrics.ClusterSupply.WithLabelValues(c.ID).Set(c.TotalSupply.InexactFloat64())
	}
	metrics.ActiveClusters.Set(float64(active))
	return nil
}

// --- Oracle ---

// FeedPrices stores oracle quotes.
func (s *Service) FeedPrices(ctx context.Context, quotes map[string]decimal.Decimal) ([]model.Price, error) {
	if len(quotes) == 0 {
		return nil, RequestError.New("prices are required")
	}
	return s.oracle.Feed(ctx, quotes)
}

// Prices returns every stored quote.
func (s *Service) Prices(ctx context.Context) ([]model.Price, error) {
	prices, err := s.oracle.All(ctx)
	if err != nil {
		return nil, err
	}
	if prices == nil {
		prices = []model.Price{}
	}
	return prices, nil
}

// --- helpers ---

// validWeights checks target weights: one non-negative integer per asset,
// not all zero.
func validWeights(ws []decimal.Decimal, n int) ([]*uint256.Int, error) {
	if len(ws) != n {
		return nil, RequestError.New("target_weights: got %d, want %d: %w", len(ws), n, penalty.ErrLengthMismatch)
	}
	out, err := toInts(ws, "target_weights")
	if err != nil {
		return nil, err
	}
	if allZero(out) {
		return nil, RequestError.New("target_weights must not sum to zero")
	}
	return out, nil
}

func (s *Service) broadcast(msg WSMessage) {
	if s.wsHub != nil {
		s.wsHub.Broadcast(msg)
	}
}

func decimalStrings(ds []decimal.Decimal) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.String()
	}
	return out
}
