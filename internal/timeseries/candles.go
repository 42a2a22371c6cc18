package timeseries

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"finstream/internal/model"
)

// CandleStore upserts OHLCV bars keyed on (symbol, interval, timestamp);
// later flushes of the same bucket overwrite earlier partial ones, so
// repeated upserts of an in-progress bucket converge to its close-time
// values.
type CandleStore struct {
	pool *pgxpool.Pool
}

func NewCandleStore(pool *pgxpool.Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

func (s *CandleStore) Upsert(ctx context.Context, candle model.Candle) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO candles (timestamp, symbol, interval, open, high, low, close, volume, trade_count, vwap)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (timestamp, symbol, interval) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume,
			trade_count = EXCLUDED.trade_count,
			vwap = EXCLUDED.vwap`,
		candle.Timestamp, candle.Symbol, candle.Interval, candle.Open, candle.High, candle.Low,
		candle.Close, candle.Volume, candle.TradeCount, candle.VWAP)
	if err != nil {
		return fmt.Errorf("timeseries: upsert candle: %w", err)
	}
	return nil
}

// Range returns the candles for (symbol, interval) whose bucket start
// falls within [from, to), ordered oldest first.
func (s *CandleStore) Range(ctx context.Context, symbol string, interval model.Interval, from, to time.Time) ([]model.Candle, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT symbol, interval, timestamp, open, high, low, close, volume, trade_count, vwap
		FROM candles
		WHERE symbol = $1 AND interval = $2 AND timestamp >= $3 AND timestamp < $4
		ORDER BY timestamp ASC`,
		symbol, interval, from, to)
	if err != nil {
		return nil, fmt.Errorf("timeseries: query candles: %w", err)
	}
	defer rows.Close()

	var out []model.Candle
	for rows.Next() {
		var c model.Candle
		if err := rows.Scan(&c.Symbol, &c.Interval, &c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &c.TradeCount, &c.VWAP); err != nil {
			return nil, fmt.Errorf("timeseries: scan candle: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
