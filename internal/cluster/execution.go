package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/metrics"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/penalty"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/store"
)

// snapshot is a cluster's engine inputs at the current block.
type snapshot struct {
	supply  *uint256.Int
	inv     []*uint256.Int
	weights []*uint256.Int
	prices  []fpdec.FPDecimal
	height  uint64
}

func (s *Service) snapshot(ctx context.Context, c *model.Cluster) (snap snapshot, err error) {
	if snap.supply, err = toInt(c.TotalSupply, "total_supply"); err != nil {
		return snap, err
	}
	if snap.inv, err = toInts(c.Inventory, "inventory"); err != nil {
		return snap, err
	}
	if snap.weights, err = toInts(c.TargetWeights, "target_weights"); err != nil {
		return snap, err
	}
	if snap.prices, err = s.oracle.Prices(ctx, c.Assets); err != nil {
		return snap, err
	}
	snap.height = s.clock.Height()
	return snap, nil
}

// mintPlan is a priced deposit, ready to commit.
type mintPlan struct {
	amounts []*uint256.Int
	result  penalty.MintResult
	state   penalty.State
	tokens  decimal.Decimal
	fee     decimal.Decimal
	height  uint64
}

// planMint prices a deposit of amounts into c. The first deposit into a
// cluster with no supply is credited its notional value one for one and
// seeds the EMA; later deposits go through the cluster's penalty model.
func (s *Service) planMint(ctx context.Context, c *model.Cluster, in []decimal.Decimal) (*mintPlan, error) {
	if len(in) != len(c.Assets) {
		return nil, RequestError.New("asset_amounts: got %d, want %d: %w", len(in), len(c.Assets), penalty.ErrLengthMismatch)
	}
	amounts, err := toInts(in, "asset_amounts")
	if err != nil {
		return nil, err
	}
	if allZero(amounts) {
		return nil, RequestError.New("asset_amounts must not all be zero")
	}
	snap, err := s.snapshot(ctx, c)
	if err != nil {
		return nil, err
	}

	res, state, err := priceMint(c, snap, amounts)
	if err != nil {
		return nil, err
	}
	tokens := fromInt(res.MintTokens)
	return &mintPlan{
		amounts: amounts,
		result:  res,
		state:   state,
		tokens:  tokens,
		fee:     tokens.Mul(c.FeeRate).Floor(),
		height:  snap.height,
	}, nil
}

func priceMint(c *model.Cluster, snap snapshot, amounts []*uint256.Int) (res penalty.MintResult, next penalty.State, err error) {
	defer fpdec.Catch(&err)

	inv, err := penalty.FromInts(snap.inv)
	if err != nil {
		return res, next, err
	}
	amt, err := penalty.FromInts(amounts)
	if err != nil {
		return res, next, err
	}

	if snap.supply.IsZero() {
		deposit := penalty.Dot(amt, snap.prices)
		tokens, err := deposit.Uint256()
		if err != nil {
			return res, next, err
		}
		if tokens.IsZero() {
			return res, next, penalty.DomainError.New("deposit worth %s: %w", deposit, penalty.ErrEmptyTrade)
		}
		if next, err = c.State.Update(snap.height, deposit); err != nil {
			return res, next, err
		}
		return penalty.MintResult{
			MintTokens: tokens,
			Penalty:    fpdec.Zero,
			Trace: []penalty.Attribute{
				{Key: "mode", Value: "bootstrap"},
				{Key: "deposit_value", Value: deposit.String()},
				{Key: "mint_tokens", Value: tokens.Dec()},
			},
		}, next, nil
	}

	m, err := penalty.NewModel(c.Penalty)
	if err != nil {
		return res, next, err
	}
	res, err = m.ComputeMint(c.State, penalty.MintQuery{
		Supply:    snap.supply,
		Inventory: snap.inv,
		Amounts:   amounts,
		Prices:    snap.prices,
		Weights:   snap.weights,
		Height:    snap.height,
	})
	if err != nil {
		return res, next, err
	}
	if res.MintTokens.IsZero() {
		return res, next, penalty.DomainError.New("deposit mints no tokens: %w", penalty.ErrEmptyTrade)
	}
	next, err = c.State.Update(snap.height, penalty.Dot(inv, snap.prices))
	return res, next, err
}

// Mint deposits assets into a cluster and credits the user with newly
// issued tokens, net of the protocol fee.
func (s *Service) Mint(ctx context.Context, id string, req MintRequest) (resp *MintResponse, err error) {
	defer s.observe(model.ActionMint, time.Now(), &err)

	if req.UserID == "" {
		return nil, RequestError.New("user_id is required")
	}
	if req.MinTokens.IsNegative() {
		return nil, RequestError.New("min_tokens %s is negative", req.MinTokens)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.Active() {
		return nil, fmt.Errorf("mint into %s: %w", c.Symbol, ErrInactive)
	}

	plan, err := s.planMint(ctx, c, req.AssetAmounts)
	if err != nil {
		return nil, err
	}
	userTokens := plan.tokens.Sub(plan.fee)
	if userTokens.LessThan(req.MinTokens) {
		return nil, fmt.Errorf("%w: %s < %s", ErrBelowMinTokens, userTokens, req.MinTokens)
	}

	deposited := fromInts(plan.amounts)
	next := c.Clone()
	for i := range next.Inventory {
		next.Inventory[i] = next.Inventory[i].Add(deposited[i])
	}
	next.TotalSupply = next.TotalSupply.Add(plan.tokens)
	next.State = plan.state

	now := s.now().UTC()
	pen := fromFP(plan.result.Penalty)
	entries := []model.LedgerEntry{{
		ID:           uuid.New().String(),
		ClusterID:    c.ID,
		UserID:       req.UserID,
		Action:       model.ActionMint,
		TokenDelta:   userTokens,
		AssetAmounts: deposited,
		Penalty:      pen,
		Height:       plan.height,
		Timestamp:    now,
	}}
	if plan.fee.IsPositive() {
		entries = append(entries, s.feeEntry(c.ID, plan.fee, plan.height, now))
	}
	if err := s.store.CommitExecution(ctx, &store.Execution{Cluster: next, Entries: entries}); err != nil {
		return nil, err
	}

	s.recordExecution(model.ActionMint, next, plan.result.Penalty)
	slog.Info("mint executed",
		"cluster", c.ID,
		"user", req.UserID,
		"amounts", decimalStrings(deposited),
		"tokens", plan.tokens.String(),
		"fee", plan.fee.String(),
		"penalty", pen.String(),
		"ema", next.State.EMA.String(),
		"height", plan.height,
	)
	s.broadcast(WSMessage{
		Type:        EventMint,
		ClusterID:   c.ID,
		Symbol:      c.Symbol,
		UserID:      req.UserID,
		TokenDelta:  userTokens.String(),
		Penalty:     pen.String(),
		TotalSupply: next.TotalSupply.String(),
		EMA:         next.State.EMA.String(),
		Height:      plan.height,
	})

	return &MintResponse{
		ClusterID:   c.ID,
		UserID:      req.UserID,
		MintTokens:  plan.tokens,
		UserTokens:  userTokens,
		Fee:         plan.fee,
		Penalty:     pen,
		TotalSupply: next.TotalSupply,
		Height:      plan.height,
		Trace:       plan.result.Trace,
	}, nil
}

// SimulateMint prices a deposit without changing state.
func (s *Service) SimulateMint(ctx context.Context, id string, amounts []decimal.Decimal) (*MintResponse, error) {
	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	plan, err := s.planMint(ctx, c, amounts)
	if err != nil {
		return nil, err
	}
	return &MintResponse{
		ClusterID:   c.ID,
		MintTokens:  plan.tokens,
		UserTokens:  plan.tokens.Sub(plan.fee),
		Fee:         plan.fee,
		Penalty:     fromFP(plan.result.Penalty),
		TotalSupply: c.TotalSupply.Add(plan.tokens),
		Height:      plan.height,
		Trace:       plan.result.Trace,
	}, nil
}

// redeemPlan is a priced redemption, ready to commit.
type redeemPlan struct {
	result   penalty.RedeemResult
	state    penalty.State
	cost     decimal.Decimal
	fee      decimal.Decimal
	assets   []decimal.Decimal
	targeted bool
	height   uint64
}

// planRedeem prices burning at most maxTokens of c; nil allows the whole supply.
// Without amounts the redemption is pro rata.
func (s *Service) planRedeem(ctx context.Context, c *model.Cluster, maxTokens *uint256.Int, in []decimal.Decimal) (*redeemPlan, error) {
	var amounts []*uint256.Int
	if len(in) > 0 {
		if len(in) != len(c.Assets) {
			return nil, RequestError.New("asset_amounts: got %d, want %d: %w", len(in), len(c.Assets), penalty.ErrLengthMismatch)
		}
		var err error
		if amounts, err = toInts(in, "asset_amounts"); err != nil {
			return nil, err
		}
	}
	snap, err := s.snapshot(ctx, c)
	if err != nil {
		return nil, err
	}

	q := penalty.RedeemQuery{
		Supply:    snap.supply,
		Inventory: snap.inv,
		MaxTokens: maxTokens,
		Amounts:   amounts,
		Prices:    snap.prices,
		Weights:   snap.weights,
		Height:    snap.height,
	}
	res, state, err := priceRedeem(c, snap, q)
	if err != nil {
		return nil, err
	}
	cost := fromInt(res.TokenCost)
	if cost.IsZero() {
		return nil, penalty.DomainError.New("redeem burns no tokens: %w", penalty.ErrEmptyTrade)
	}
	return &redeemPlan{
		result:   res,
		state:    state,
		cost:     cost,
		fee:      cost.Mul(c.FeeRate).Floor(),
		assets:   fromInts(res.RedeemAssets),
		targeted: q.Targeted(),
		height:   snap.height,
	}, nil
}

func priceRedeem(c *model.Cluster, snap snapshot, q penalty.RedeemQuery) (res penalty.RedeemResult, next penalty.State, err error) {
	defer fpdec.Catch(&err)

	m, err := penalty.NewModel(c.Penalty)
	if err != nil {
		return res, next, err
	}
	if res, err = m.ComputeRedeem(c.State, q); err != nil {
		return res, next, err
	}
	inv, err := penalty.FromInts(snap.inv)
	if err != nil {
		return res, next, err
	}
	next, err = c.State.Update(snap.height, penalty.Dot(inv, snap.prices))
	return res, next, err
}

// Redeem burns the user's tokens for assets from the cluster inventory.
// The user also pays the protocol fee, in tokens, to the collector.
func (s *Service) Redeem(ctx context.Context, id string, req RedeemRequest) (resp *RedeemResponse, err error) {
	defer s.observe(model.ActionRedeem, time.Now(), &err)

	if req.UserID == "" {
		return nil, RequestError.New("user_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	balance, err := s.store.GetBalance(ctx, c.ID, req.UserID)
	if err != nil {
		return nil, err
	}

	var maxTokens *uint256.Int
	if req.MaxTokens != nil {
		if maxTokens, err = toInt(*req.MaxTokens, "max_tokens"); err != nil {
			return nil, err
		}
	} else {
		// Largest burn whose fee still fits the balance.
		budget := balance.Sub(balance.Mul(c.FeeRate).Floor())
		if budget.IsNegative() {
			budget = decimal.Zero
		}
		if maxTokens, err = toInt(budget, "balance"); err != nil {
			return nil, err
		}
	}

	plan, err := s.planRedeem(ctx, c, maxTokens, req.AssetAmounts)
	if err != nil {
		return nil, err
	}
	if plan.targeted && !c.Active() {
		return nil, fmt.Errorf("targeted redeem from %s: %w", c.Symbol, ErrInactive)
	}
	if debit := plan.cost.Add(plan.fee); debit.GreaterThan(balance) {
		return nil, fmt.Errorf("%w: need %s, have %s", ErrInsufficientBalance, debit, balance)
	}

	next := c.Clone()
	for i := range next.Inventory {
		left := next.Inventory[i].Sub(plan.assets[i])
		if left.IsNegative() {
			return nil, penalty.DomainError.New("asset %s: %w", c.Assets[i], penalty.ErrInsufficientInventory)
		}
		next.Inventory[i] = left
	}
	next.TotalSupply = next.TotalSupply.Sub(plan.cost)
	next.State = plan.state

	now := s.now().UTC()
	pen := fromFP(plan.result.Penalty)
	entries := []model.LedgerEntry{{
		ID:           uuid.New().String(),
		ClusterID:    c.ID,
		UserID:       req.UserID,
		Action:       model.ActionRedeem,
		TokenDelta:   plan.cost.Add(plan.fee).Neg(),
		AssetAmounts: plan.assets,
		Penalty:      pen,
		Height:       plan.height,
		Timestamp:    now,
	}}
	if plan.fee.IsPositive() {
		entries = append(entries, s.feeEntry(c.ID, plan.fee, plan.height, now))
	}
	if err := s.store.CommitExecution(ctx, &store.Execution{Cluster: next, Entries: entries}); err != nil {
		return nil, err
	}

	s.recordExecution(model.ActionRedeem, next, plan.result.Penalty)
	slog.Info("redeem executed",
		"cluster", c.ID,
		"user", req.UserID,
		"targeted", plan.targeted,
		"assets", decimalStrings(plan.assets),
		"token_cost", plan.cost.String(),
		"fee", plan.fee.String(),
		"penalty", pen.String(),
		"ema", next.State.EMA.String(),
		"height", plan.height,
	)
	s.broadcast(WSMessage{
		Type:        EventRedeem,
		ClusterID:   c.ID,
		Symbol:      c.Symbol,
		UserID:      req.UserID,
		TokenDelta:  plan.cost.Add(plan.fee).Neg().String(),
		Penalty:     pen.String(),
		TotalSupply: next.TotalSupply.String(),
		EMA:         next.State.EMA.String(),
		Height:      plan.height,
	})

	return &RedeemResponse{
		ClusterID:    c.ID,
		UserID:       req.UserID,
		TokenCost:    plan.cost,
		Fee:          plan.fee,
		RedeemAssets: plan.assets,
		Penalty:      pen,
		TotalSupply:  next.TotalSupply,
		Height:       plan.height,
		Trace:        plan.result.Trace,
	}, nil
}

// SimulateRedeem prices a redemption without changing state.
func (s *Service) SimulateRedeem(ctx context.Context, id string, req SimulateRedeemRequest) (*RedeemResponse, error) {
	c, err := s.store.GetCluster(ctx, id)
	if err != nil {
		return nil, err
	}
	var maxTokens *uint256.Int
	if req.MaxTokens != nil {
		if maxTokens, err = toInt(*req.MaxTokens, "max_tokens"); err != nil {
			return nil, err
		}
	}
	plan, err := s.planRedeem(ctx, c, maxTokens, req.AssetAmounts)
	if err != nil {
		return nil, err
	}
	return &RedeemResponse{
		ClusterID:    c.ID,
		TokenCost:    plan.cost,
		Fee:          plan.fee,
		RedeemAssets: plan.assets,
		Penalty:      fromFP(plan.result.Penalty),
		TotalSupply:  c.TotalSupply.Sub(plan.cost),
		Height:       plan.height,
		Trace:        plan.result.Trace,
	}, nil
}

func (s *Service) feeEntry(clusterID string, fee decimal.Decimal, height uint64, at time.Time) model.LedgerEntry {
	return model.LedgerEntry{
		ID:           uuid.New().String(),
		ClusterID:    clusterID,
		UserID:       s.collector,
		Action:       model.ActionFee,
		TokenDelta:   fee,
		AssetAmounts: []decimal.Decimal{},
		Penalty:      decimal.Zero,
		Height:       height,
		Timestamp:    at,
	}
}

// observe records latency for successful executions and classifies
// rejections.
func (s *Service) observe(action string, start time.Time, err *error) {
	if *err != nil {
		class := errorClass(*err)
		metrics.Rejections.WithLabelValues(action, class).Inc()
		slog.Warn(action+" rejected", "class", class, "err", *err)
		return
	}
	metrics.ExecutionLatency.WithLabelValues(action).Observe(time.Since(start).Seconds())
}

func (s *Service) recordExecution(action string, c *model.Cluster, pen fpdec.FPDecimal) {
	metrics.ExecutionsTotal.WithLabelValues(action, string(c.Penalty.Kind())).Inc()
	metrics.ClusterSupply.WithLabelValues(c.ID).Set(c.TotalSupply.InexactFloat64())
	switch pen.Sign() {
	case -1:
		metrics.PenaltyNotional.WithLabelValues(c.ID, "penalty").Add(fromFP(pen).Abs().InexactFloat64())
	case 1:
		metrics.PenaltyNotional.WithLabelValues(c.ID, "reward").Add(fromFP(pen).InexactFloat64())
	}
}
