// Package pubsub is the live fan-out fabric: producers publish trades,
// quotes, and alerts onto Redis Pub/Sub channels alongside the durable
// event log, and the Live Broadcast Hub subscribes to those channels on
// behalf of WebSocket clients.
package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"finstream/internal/model"
)

// Channel naming matches §6: trades:<SYMBOL>, quotes:<SYMBOL>,
// alerts:<SYMBOL>, alerts:all.
func TradesChannel(symbol string) string { return "trades:" + symbol }
func QuotesChannel(symbol string) string { return "quotes:" + symbol }
func AlertsChannel(symbol string) string { return "alerts:" + symbol }

const AlertsAllChannel = "alerts:all"

// Publisher publishes event JSON onto the pub/sub fabric.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) PublishTrade(ctx context.Context, trade model.Trade) error {
	payload, err := json.Marshal(trade)
	if err != nil {
		return fmt.Errorf("pubsub: marshal trade: %w", err)
	}
	return p.client.Publish(ctx, TradesChannel(trade.Symbol), payload).Err()
}

func (p *Publisher) PublishQuote(ctx context.Context, quote model.Quote) error {
	payload, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("pubsub: marshal quote: %w", err)
	}
	return p.client.Publish(ctx, QuotesChannel(quote.Symbol), payload).Err()
}

// PublishAlert fans an alert out to both its symbol-scoped channel and the
// catch-all channel, per §4.5.
func (p *Publisher) PublishAlert(ctx context.Context, alert model.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("pubsub: marshal alert: %w", err)
	}
	if err := p.client.Publish(ctx, AlertsChannel(alert.Symbol), payload).Err(); err != nil {
		return err
	}
	if err := p.client.Publish(ctx, AlertsAllChannel, payload).Err(); err != nil {
		log.Printf("[pubsub] publish to %s failed: %v", AlertsAllChannel, err)
		return err
	}
	return nil
}

// Subscriber wraps a Redis pattern subscription, ingressing every channel
// under a prefix (e.g. "trades:*") with one connection. hub.Bridge does
// not use it; it calls PSubscribe itself.
type Subscriber struct {
	ps *redis.PubSub
}

// SubscribePattern subscribes to all channels matching pattern (e.g.
// "alerts:*") and returns a Subscriber whose Messages channel delivers
// raw payloads as they arrive.
func SubscribePattern(ctx context.Context, client *redis.Client, pattern string) *Subscriber {
	return &Subscriber{ps: client.PSubscribe(ctx, pattern)}
}

// Messages returns the channel of incoming pub/sub messages. Each message's
// Channel field identifies which concrete channel it was published on.
func (s *Subscriber) Messages() <-chan *redis.Message {
	return s.ps.Channel()
}

func (s *Subscriber) Close() error {
	return s.ps.Close()
}
