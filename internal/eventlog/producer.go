package eventlog

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"finstream/internal/model"
)

// Producer is a durable at-least-once publisher. Send suspends until the
// record has been durably appended to the stream (Redis Streams XADD is
// synchronously persisted to the node's AOF/replication backlog before
// returning, which stands in for the configured ISR acknowledgement level).
type Producer struct {
	client     *redis.Client
	cfg        Config
	sendErrors atomic.Int64
}

func NewProducer(client *redis.Client, cfg Config) *Producer {
	cfg.setDefaults()
	return &Producer{client: client, cfg: cfg}
}

// Send publishes value under key to topic, retrying transient failures up
// to MaxRetries times with exponential backoff. On terminal failure it
// increments the send-error counter and returns the error; the caller
// decides whether to drop the record or route it to the dead-letter topic.
func (p *Producer) Send(ctx context.Context, topic Topic, key string, value []byte, traceID string) error {
	compressed := "0"
	if p.cfg.CompressionType == "gzip" {
		gzipped, err := gzipCompress(value)
		if err != nil {
			return fmt.Errorf("eventlog: gzip payload: %w", err)
		}
		value = gzipped
		compressed = "1"
	}

	args := &redis.XAddArgs{
		Stream: streamKey(topic),
		Values: map[string]interface{}{
			"key":        key,
			"value":      value,
			"trace_id":   traceID,
			"compressed": compressed,
		},
	}

	var lastErr error
	backoff := p.cfg.RetryBackoff
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if err := p.client.XAdd(ctx, args).Err(); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	p.sendErrors.Add(1)
	log.Printf("[eventlog] send to %s failed after %d retries: %v", topic, p.cfg.MaxRetries, lastErr)
	return fmt.Errorf("eventlog: send to %s: %w", topic, lastErr)
}

// SendErrorCount returns the number of terminal send failures observed,
// the labelled counter §7 requires for every caught exception at loop
// level.
func (p *Producer) SendErrorCount() int64 {
	return p.sendErrors.Load()
}

// gzipCompress is the publisher side of the gzip compression contract for
// kafka_producer_compression_type=gzip; snappy/lz4/zstd have no groundable
// Go dependency anywhere in the pack and remain a documented no-op (see
// DESIGN.md).
func gzipCompress(value []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(value); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DeadLetter routes a record the caller has given up on to the dlq topic,
// tagged with the original topic it failed to land on.
func (p *Producer) DeadLetter(ctx context.Context, originalTopic Topic, key string, value []byte) error {
	return p.Send(ctx, TopicDLQ, fmt.Sprintf("%s:%s", originalTopic, key), value, "")
}

func (p *Producer) PublishTrade(ctx context.Context, trade model.Trade) error {
	value, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("eventlog: marshal trade: %w", err)
	}
	return p.Send(ctx, TopicTrades, trade.Symbol, value, trade.TraceID)
}

func (p *Producer) PublishQuote(ctx context.Context, quote model.Quote) error {
	value, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("eventlog: marshal quote: %w", err)
	}
	return p.Send(ctx, TopicQuotes, quote.Symbol, value, "")
}

func (p *Producer) PublishAlert(ctx context.Context, alert model.Alert) error {
	value, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("eventlog: marshal alert: %w", err)
	}
	return p.Send(ctx, TopicAlerts, alert.Symbol, value, "")
}

// Close releases the underlying Redis client. The client is shared with any
// Consumer built from the same connection, so Close should only be called
// once per process, at shutdown.
func (p *Producer) Close() error {
	return p.client.Close()
}
