// Package regime lets an operator override a watchlist symbol's long-run
// volatility and drift without restarting the price engine, stored and
// read the way the teacher's internal/volatility.Store manages its
// volatility_settings table (transactional upsert of an active row,
// defaulting when none is set).
package regime

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Override is an operator-set replacement for a symbol's configured
// long-run volatility and drift.
type Override struct {
	Symbol     string
	Volatility float64
	Drift      float64
	UpdatedAt  time.Time
}

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Set upserts the override for symbol, taking effect the next time
// Poller.Sync runs.
func (s *Store) Set(ctx context.Context, symbol string, volatility, drift float64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO regime_overrides (symbol, volatility, drift, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (symbol) DO UPDATE SET volatility = $2, drift = $3, updated_at = now()`,
		symbol, volatility, drift)
	return err
}

// Clear removes symbol's override row. Poller.Sync only applies rows that
// exist, so a running engine keeps the last applied volatility and drift
// for symbol; they are not reset to its configured defaults.
func (s *Store) Clear(ctx context.Context, symbol string) error {
	_, err := s.pool.Exec(ctx, "DELETE FROM regime_overrides WHERE symbol = $1", symbol)
	return err
}

// All returns every currently active override.
func (s *Store) All(ctx context.Context) ([]Override, error) {
	rows, err := s.pool.Query(ctx, "SELECT symbol, volatility, drift, updated_at FROM regime_overrides")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []Override
	for rows.Next() {
		var o Override
		if err := rows.Scan(&o.Symbol, &o.Volatility, &o.Drift, &o.UpdatedAt); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// Get returns a single symbol's override, or ok=false if none is set.
func (s *Store) Get(ctx context.Context, symbol string) (Override, bool, error) {
	var o Override
	err := s.pool.QueryRow(ctx,
		"SELECT symbol, volatility, drift, updated_at FROM regime_overrides WHERE symbol = $1", symbol,
	).Scan(&o.Symbol, &o.Volatility, &o.Drift, &o.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Override{}, false, nil
		}
		return Override{}, false, err
	}
	return o, true, nil
}
