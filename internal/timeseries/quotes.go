package timeseries

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"finstream/internal/model"
)

// QuoteStore is an append-only sink for top-of-book snapshots.
type QuoteStore struct {
	pool *pgxpool.Pool
}

func NewQuoteStore(pool *pgxpool.Pool) *QuoteStore {
	return &QuoteStore{pool: pool}
}

func (s *QuoteStore) Insert(ctx context.Context, quote model.Quote) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quotes (timestamp, symbol, bid_price, bid_size, ask_price, ask_size, exchange)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		quote.Timestamp, quote.Symbol, quote.BidPrice, quote.BidSize, quote.AskPrice, quote.AskSize, quote.Exchange)
	if err != nil {
		return fmt.Errorf("timeseries: insert quote: %w", err)
	}
	return nil
}

// Latest returns the most recent quote recorded for symbol.
func (s *QuoteStore) Latest(ctx context.Context, symbol string) (model.Quote, error) {
	var q model.Quote
	err := s.pool.QueryRow(ctx, `
		SELECT timestamp, symbol, bid_price, bid_size, ask_price, ask_size, exchange
		FROM quotes WHERE symbol = $1 ORDER BY timestamp DESC LIMIT 1`,
		symbol).Scan(&q.Timestamp, &q.Symbol, &q.BidPrice, &q.BidSize, &q.AskPrice, &q.AskSize, &q.Exchange)
	if err != nil {
		return model.Quote{}, fmt.Errorf("timeseries: latest quote: %w", err)
	}
	return q, nil
}
