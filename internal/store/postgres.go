package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/nebula-protocol/nebula-contracts-sub001/internal/fpdec"
	"github.com/nebula-protocol/nebula-contracts-sub001/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Scalar amounts are NUMERIC for exact decimal precision; position-aligned
// vectors and the penalty config are JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS clusters (
		id             TEXT PRIMARY KEY,
		name           TEXT NOT NULL,
		symbol         TEXT NOT NULL UNIQUE,
		owner          TEXT NOT NULL,
		assets         JSONB NOT NULL,
		target_weights JSONB NOT NULL,
		inventory      JSONB NOT NULL,
		total_supply   NUMERIC NOT NULL DEFAULT 0,
		penalty        JSONB NOT NULL,
		ema            NUMERIC NOT NULL DEFAULT 0,
		last_block     BIGINT NOT NULL DEFAULT 0,
		fee_rate       NUMERIC NOT NULL DEFAULT 0,
		status         TEXT NOT NULL,
		created_at     TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS ledger_entries (
		seq           BIGSERIAL PRIMARY KEY,
		id            TEXT NOT NULL UNIQUE,
		cluster_id    TEXT NOT NULL REFERENCES clusters(id),
		user_id       TEXT NOT NULL,
		action        TEXT NOT NULL,
		token_delta   NUMERIC NOT NULL,
		asset_amounts JSONB NOT NULL,
		penalty       NUMERIC NOT NULL DEFAULT 0,
		height        BIGINT NOT NULL,
		timestamp     TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS ledger_entries_cluster_user ON ledger_entries (cluster_id, user_id);
	CREATE INDEX IF NOT EXISTS ledger_entries_user ON ledger_entries (user_id);

	CREATE TABLE IF NOT EXISTS prices (
		asset_id   TEXT PRIMARY KEY,
		price      NUMERIC NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
`

// EnsureSchema applies the DDL to create tables if they don't exist.
// Safe to run on every start.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const clusterColumns = `id, name, symbol, owner,
	assets::TEXT, target_weights::TEXT, inventory::TEXT,
	total_supply::TEXT, penalty::TEXT, ema::TEXT, last_block,
	fee_rate::TEXT, status, created_at`

func (s *PostgresStore) CreateCluster(ctx context.Context, c *model.Cluster) error {
	assets, weights, inventory, pen, err := clusterJSON(c)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO clusters (id, name, symbol, owner, assets, target_weights, inventory,
		                       total_supply, penalty, ema, last_block, fee_rate, status, created_at)
		 VALUES ($1, $2, $3, $4, $5::JSONB, $6::JSONB, $7::JSONB,
		         $8::NUMERIC, $9::JSONB, $10::NUMERIC, $11, $12::NUMERIC, $13, $14)`,
		c.ID, c.Name, c.Symbol, c.Owner, assets, weights, inventory,
		c.TotalSupply.String(), pen, c.State.EMA.String(), int64(c.State.LastBlock),
		c.FeeRate.String(), c.Status, c.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: cluster %s (%s)", ErrConflict, c.ID, c.Symbol)
	}
	return err
}

func (s *PostgresStore) GetCluster(ctx context.Context, id string) (*model.Cluster, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+clusterColumns+` FROM clusters WHERE id = $1`, id)
	c, err := scanCluster(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: cluster %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get cluster %s: %w", id, err)
	}
	return c, nil
}

func (s *PostgresStore) ListClusters(ctx context.Context) ([]model.Cluster, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+clusterColumns+` FROM clusters ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clusters []model.Cluster
	for rows.Next() {
		c, err := scanCluster(rows)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, *c)
	}
	return clusters, rows.Err()
}

func (s *PostgresStore) UpdateCluster(ctx context.Context, c *model.Cluster) error {
	_, weights, _, pen, err := clusterJSON(c)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE clusters
		 SET owner = $2, target_weights = $3::JSONB, penalty = $4::JSONB, status = $5
		 WHERE id = $1`,
		c.ID, c.Owner, weights, pen, c.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: cluster %s", ErrNotFound, c.ID)
	}
	return nil
}

// CommitExecution writes the cluster state and ledger entries in one
// transaction.
func (s *PostgresStore) CommitExecution(ctx context.Context, ex *Execution) error {
	_, _, inventory, _, err := clusterJSON(ex.Cluster)
	if err != nil {
		return err
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		c := ex.Cluster
		tag, err := tx.Exec(ctx,
			`UPDATE clusters
			 SET inventory = $2::JSONB, total_supply = $3::NUMERIC, ema = $4::NUMERIC, last_block = $5
			 WHERE id = $1`,
			c.ID, inventory, c.TotalSupply.String(), c.State.EMA.String(), int64(c.State.LastBlock),
		)
		if err != nil {
			return fmt.Errorf("update cluster %s: %w", c.ID, err)
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("%w: cluster %s", ErrNotFound, c.ID)
		}

		for _, e := range ex.Entries {
			amounts, err := json.Marshal(e.AssetAmounts)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO ledger_entries (id, cluster_id, user_id, action, token_delta, asset_amounts, penalty, height, timestamp)
				 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::JSONB, $7::NUMERIC, $8, $9)`,
				e.ID, e.ClusterID, e.UserID, e.Action, e.TokenDelta.String(),
				string(amounts), e.Penalty.String(), int64(e.Height), e.Timestamp,
			); err != nil {
				return fmt.Errorf("insert ledger entry %s: %w", e.ID, err)
			}
		}
		return nil
	})
}

const ledgerColumns = `id, cluster_id, user_id, action, token_delta::TEXT,
	asset_amounts::TEXT, penalty::TEXT, height, timestamp`

func (s *PostgresStore) GetLedgerEntriesByCluster(ctx context.Context, clusterID string) ([]model.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE cluster_id = $1 ORDER BY seq`, clusterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

func (s *PostgresStore) GetLedgerEntriesByUser(ctx context.Context, userID string) ([]model.LedgerEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLedgerEntries(rows)
}

func (s *PostgresStore) GetBalance(ctx context.Context, clusterID, userID string) (decimal.Decimal, error) {
	var balS string
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(token_delta), 0)::TEXT
		 FROM ledger_entries WHERE cluster_id = $1 AND user_id = $2`, clusterID, userID).
		Scan(&balS)
	if err != nil {
		return decimal.Zero, fmt.Errorf("get balance %s/%s: %w", clusterID, userID, err)
	}
	return decimal.NewFromString(balS)
}

func (s *PostgresStore) SetPrices(ctx context.Context, prices []model.Price) error {
	batch := &pgx.Batch{}
	for _, p := range prices {
		batch.Queue(
			`INSERT INTO prices (asset_id, price, updated_at) VALUES ($1, $2::NUMERIC, $3)
			 ON CONFLICT (asset_id) DO UPDATE SET price = EXCLUDED.price, updated_at = EXCLUDED.updated_at`,
			p.AssetID, p.Price.String(), p.UpdatedAt,
		)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *PostgresStore) GetPrices(ctx context.Context, assetIDs []string) ([]model.Price, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT asset_id, price::TEXT, updated_at FROM prices WHERE asset_id = ANY($1)`, assetIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found, err := scanPrices(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Price, len(found))
	for _, p := range found {
		byID[p.AssetID] = p
	}
	out := make([]model.Price, len(assetIDs))
	for i, id := range assetIDs {
		p, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: price for %s", ErrNotFound, id)
		}
		out[i] = p
	}
	return out, nil
}

func (s *PostgresStore) ListPrices(ctx context.Context) ([]model.Price, error) {
	rows, err := s.pool.Query(ctx, `SELECT asset_id, price::TEXT, updated_at FROM prices ORDER BY asset_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPrices(rows)
}

// pgxRows is the subset of pgx.Rows the scanners need.
type pgxRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func clusterJSON(c *model.Cluster) (assets, weights, inventory, pen string, err error) {
	parts := []interface{}{c.Assets, c.TargetWeights, c.Inventory, c.Penalty}
	out := make([]string, len(parts))
	for i, p := range parts {
		data, err := json.Marshal(p)
		if err != nil {
			return "", "", "", "", fmt.Errorf("encode cluster %s: %w", c.ID, err)
		}
		out[i] = string(data)
	}
	return out[0], out[1], out[2], out[3], nil
}

func scanCluster(row rowScanner) (*model.Cluster, error) {
	var c model.Cluster
	var assetsS, weightsS, inventoryS, supplyS, penS, emaS, feeS string
	var lastBlock int64

	if err := row.Scan(&c.ID, &c.Name, &c.Symbol, &c.Owner,
		&assetsS, &weightsS, &inventoryS,
		&supplyS, &penS, &emaS, &lastBlock,
		&feeS, &c.Status, &c.CreatedAt); err != nil {
		return nil, err
	}

	for _, f := range []struct {
		src string
		dst interface{}
	}{
		{assetsS, &c.Assets},
		{weightsS, &c.TargetWeights},
		{inventoryS, &c.Inventory},
		{penS, &c.Penalty},
	} {
		if err := json.Unmarshal([]byte(f.src), f.dst); err != nil {
			return nil, fmt.Errorf("decode cluster %s: %w", c.ID, err)
		}
	}

	c.TotalSupply, _ = decimal.NewFromString(supplyS)
	c.FeeRate, _ = decimal.NewFromString(feeS)
	ema, err := fpdec.Parse(emaS)
	if err != nil {
		return nil, fmt.Errorf("decode cluster %s ema: %w", c.ID, err)
	}
	c.State.EMA = ema
	c.State.LastBlock = uint64(lastBlock)

	return &c, nil
}

func scanLedgerEntries(rows pgxRows) ([]model.LedgerEntry, error) {
	var entries []model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		var deltaS, amountsS, penS string
		var height int64

		if err := rows.Scan(&e.ID, &e.ClusterID, &e.UserID, &e.Action,
			&deltaS, &amountsS, &penS, &height, &e.Timestamp); err != nil {
			return nil, err
		}

		e.TokenDelta, _ = decimal.NewFromString(deltaS)
		e.Penalty, _ = decimal.NewFromString(penS)
		e.Height = uint64(height)
		if err := json.Unmarshal([]byte(amountsS), &e.AssetAmounts); err != nil {
			return nil, fmt.Errorf("decode ledger entry %s: %w", e.ID, err)
		}

		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func scanPrices(rows pgxRows) ([]model.Price, error) {
	var prices []model.Price
	for rows.Next() {
		var p model.Price
		var priceS string
		if err := rows.Scan(&p.AssetID, &priceS, &p.UpdatedAt); err != nil {
			return nil, err
		}
		p.Price, _ = decimal.NewFromString(priceS)
		prices = append(prices, p)
	}
	return prices, rows.Err()
}
