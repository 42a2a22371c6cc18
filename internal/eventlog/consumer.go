package eventlog

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Consumer pulls records from a topic's stream as part of a named consumer
// group, giving each group member a disjoint share of the stream (the
// Redis Streams analogue of Kafka partition assignment) and at-least-once
// redelivery of unacked entries after a crash.
type Consumer struct {
	client *redis.Client
	cfg    Config
	topic  Topic

	errCount atomic.Int64
}

// NewConsumer creates the consumer group for topic if it does not already
// exist (idempotent) and returns a Consumer bound to it.
func NewConsumer(ctx context.Context, client *redis.Client, topic Topic, cfg Config) (*Consumer, error) {
	cfg.setDefaults()

	start := "$" // latest
	if cfg.AutoOffsetReset == "earliest" {
		start = "0"
	}
	err := client.XGroupCreateMkStream(ctx, streamKey(topic), cfg.ConsumerGroup, start).Err()
	if err != nil && !isBusyGroupErr(err) {
		return nil, fmt.Errorf("eventlog: create consumer group: %w", err)
	}
	return &Consumer{client: client, cfg: cfg, topic: topic}, nil
}

func isBusyGroupErr(err error) bool {
	return err != nil && errContains(err.Error(), "BUSYGROUP")
}

func errContains(s, substr string) bool {
	return len(s) >= len(substr) && indexOf(s, substr) >= 0
}

func indexOf(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

// Read blocks up to `block` for up to `count` new messages. A zero block
// duration blocks indefinitely. A read error is counted, logged and
// returned with a nil batch, so the caller's loop can sleep and retry; a
// block that times out with no entries returns a nil batch and nil error.
func (c *Consumer) Read(ctx context.Context, count int64, block time.Duration) ([]Message, error) {
	res, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.ConsumerGroup,
		Consumer: c.cfg.ConsumerName,
		Streams:  []string{streamKey(c.topic), ">"},
		Count:    count,
		Block:    block,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		c.errCount.Add(1)
		log.Printf("[eventlog] read %s failed: %v", c.topic, err)
		return nil, err
	}

	var messages []Message
	for _, stream := range res {
		for _, entry := range stream.Messages {
			key, _ := entry.Values["key"].(string)
			value, _ := entry.Values["value"].(string)
			traceID, _ := entry.Values["trace_id"].(string)
			compressed, _ := entry.Values["compressed"].(string)

			payload := []byte(value)
			if compressed == "1" {
				decompressed, err := gzipDecompress(payload)
				if err != nil {
					c.errCount.Add(1)
					log.Printf("[eventlog] gunzip %s entry %s failed: %v", c.topic, entry.ID, err)
					continue
				}
				payload = decompressed
			}

			messages = append(messages, Message{
				ID:      entry.ID,
				Key:     key,
				Value:   payload,
				TraceID: traceID,
			})
		}
	}
	return messages, nil
}

// gzipDecompress is the consumer side of the gzip compression contract;
// see gzipCompress in producer.go.
func gzipDecompress(payload []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Ack commits the given message IDs as processed. In manual-commit mode
// the caller batches acks (the aggregator acks every 100 successfully
// processed trades). Read never acks on its own, whatever
// Config.EnableAutoCommit says; every ack goes through this method.
func (c *Consumer) Ack(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	return c.client.XAck(ctx, streamKey(c.topic), c.cfg.ConsumerGroup, ids...).Err()
}

// ErrorCount returns the number of caught read errors, the labelled
// counter §7 requires at consumer-loop level.
func (c *Consumer) ErrorCount() int64 {
	return c.errCount.Load()
}

// Pending reports how many entries this consumer group has delivered but
// not yet acked on the topic's stream, used by the readiness/health surface
// to detect a stuck consumer.
func (c *Consumer) Pending(ctx context.Context) (int64, error) {
	summary, err := c.client.XPending(ctx, streamKey(c.topic), c.cfg.ConsumerGroup).Result()
	if err != nil {
		return 0, fmt.Errorf("eventlog: xpending: %w", err)
	}
	return summary.Count, nil
}
