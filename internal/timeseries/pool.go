// Package timeseries is the core's persistence layer: idempotent sinks for
// trades and quotes, and an upserting sink for OHLCV candles, backed by a
// pgx connection pool against the configured time-series store.
package timeseries

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool dials the time-series store and verifies connectivity with a
// bounded ping. A connection failure here is fatal per §7: the process
// exits non-zero so the orchestrator restarts it.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("timeseries: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("timeseries: ping: %w", err)
	}
	return pool, nil
}
