// Package eventlog is the durable, at-least-once event log the pipeline
// publishes trades, quotes, and alerts onto. It is backed by Redis Streams:
// XADD for publish, XREADGROUP/XACK for consumer-group delivery, giving the
// same retry/backoff and consumer-offset semantics the core depends on
// without pulling in a broker this corpus never imports.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Topic names the five logical streams the core exchanges records on.
type Topic string

const (
	TopicTrades  Topic = "trades"
	TopicQuotes  Topic = "quotes"
	TopicOrders  Topic = "orders"  // reserved, unused by the core
	TopicCandles Topic = "candles" // reserved, unused by the core
	TopicAlerts  Topic = "alerts"
	TopicDLQ     Topic = "dlq"
)

// Acks mirrors the durability levels a Kafka-style producer would expose;
// Redis Streams always durably appends on XADD, so every level maps to the
// same underlying call, but the knob is kept to preserve the configuration
// contract external operators expect.
type Acks string

const (
	AcksNone Acks = "0"
	AcksOne  Acks = "1"
	AcksAll  Acks = "all"
)

// Config configures both producer and consumer sides of the log.
type Config struct {
	RedisURL string

	Acks            Acks
	CompressionType string // "gzip" compresses the payload before XADD; snappy/lz4/zstd are a no-op passthrough (no groundable dependency in the pack)

	ConsumerGroup    string
	ConsumerName     string
	AutoOffsetReset  string // "earliest" or "latest"
	EnableAutoCommit bool
	MaxRetries       int
	RetryBackoff     time.Duration
	BatchSize        int
	LingerDuration   time.Duration
}

func (c *Config) setDefaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = 200 * time.Millisecond
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.ConsumerGroup == "" {
		c.ConsumerGroup = "finstream"
	}
	if c.ConsumerName == "" {
		c.ConsumerName = "consumer-1"
	}
	if c.AutoOffsetReset == "" {
		c.AutoOffsetReset = "latest"
	}
}

// NewClient dials Redis and verifies connectivity with a bounded ping,
// matching the fail-fast startup contract for a fatal dependency.
func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("eventlog: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("eventlog: connect to redis: %w", err)
	}
	return client, nil
}

// streamKey is the Redis key backing a logical topic's stream.
func streamKey(topic Topic) string {
	return "stream:" + string(topic)
}

// Message is a consumer-side delivery: the record's stream ID (used for
// acking) plus its decoded fields.
type Message struct {
	ID      string
	Key     string
	Value   []byte
	TraceID string
}
