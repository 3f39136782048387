package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"feedscope/internal/model"
)

// Store provides Postgres persistence for price history.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// UpsertPrices inserts or updates resolved price rows. A (chain,
// token, round) triple is stable, so re-polling the same round only
// refreshes resolved_at.
func (s *Store) UpsertPrices(ctx context.Context, prices []model.ResolvedPrice) error {
	if len(prices) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, price := range prices {
		batch.Queue(`
			INSERT INTO price_history (
				chain_id, token_address, feed_address, feed_name, price, decimals, round_id, source, updated_at, resolved_at, created_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			ON CONFLICT (chain_id, token_address, round_id)
			DO UPDATE SET
				price = EXCLUDED.price,
				updated_at = EXCLUDED.updated_at,
				resolved_at = EXCLUDED.resolved_at
		`,
			int64(price.ChainID),
			price.TokenAddress,
			price.FeedAddress,
			price.FeedName,
			price.Price,
			int16(price.Decimals),
			price.RoundID,
			price.Source,
			price.UpdatedAt,
			price.ResolvedAt,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range prices {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// PutPriceBatch implements storage.Storage.
func (s *Store) PutPriceBatch(prices []model.ResolvedPrice) error {
	return s.UpsertPrices(context.Background(), prices)
}

// LoadState returns last_polled_ts for a watcher name.
func (s *Store) LoadState(ctx context.Context, name string) (uint64, bool, error) {
	if name == "" {
		return 0, false, fmt.Errorf("state name required")
	}
	var ts uint64
	row := s.pool.QueryRow(ctx, `SELECT last_polled_ts FROM watch_state WHERE name=$1`, name)
	if err := row.Scan(&ts); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, err
	}
	return ts, true, nil
}

// SaveState upserts last_polled_ts for a watcher name.
func (s *Store) SaveState(ctx context.Context, name string, ts uint64) error {
	if name == "" {
		return fmt.Errorf("state name required")
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO watch_state (name, last_polled_ts, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE
		SET last_polled_ts = EXCLUDED.last_polled_ts, updated_at = now()
	`, name, ts)
	return err
}
