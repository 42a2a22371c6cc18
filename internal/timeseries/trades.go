package timeseries

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"finstream/internal/model"
)

// TradeStore persists trade prints with `(symbol, timestamp, trade_id)` as
// the idempotency key: a replayed trade is silently absorbed.
type TradeStore struct {
	pool *pgxpool.Pool
}

func NewTradeStore(pool *pgxpool.Pool) *TradeStore {
	return &TradeStore{pool: pool}
}

// Insert writes trade, doing nothing on a primary-key conflict (the
// at-least-once redelivery case).
func (s *TradeStore) Insert(ctx context.Context, trade model.Trade) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO trades (symbol, timestamp, trade_id, price, quantity, side, exchange)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, timestamp, trade_id) DO NOTHING`,
		trade.Symbol, trade.Timestamp, trade.TradeID, trade.Price, trade.Quantity, trade.Side, trade.Exchange)
	if err != nil {
		return fmt.Errorf("timeseries: insert trade: %w", err)
	}
	return nil
}

// Recent returns the most recent trades for symbol, newest first.
func (s *TradeStore) Recent(ctx context.Context, symbol string, limit int) ([]model.Trade, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, timestamp, trade_id, price, quantity, side, exchange
		FROM trades WHERE symbol = $1 ORDER BY timestamp DESC LIMIT $2`,
		symbol, limit)
	if err != nil {
		return nil, fmt.Errorf("timeseries: query trades: %w", err)
	}
	defer rows.Close()

	var out []model.Trade
	for rows.Next() {
		var t model.Trade
		if err := rows.Scan(&t.Symbol, &t.Timestamp, &t.TradeID, &t.Price, &t.Quantity, &t.Side, &t.Exchange); err != nil {
			return nil, fmt.Errorf("timeseries: scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
