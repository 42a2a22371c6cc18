// Package hub is the Live Broadcast Hub: it bridges the pub/sub fabric's
// channel space to per-channel WebSocket subscribers, fanning each
// incoming message out to every subscriber of its channel and silently
// dropping one whose send fails.
package hub

import (
	"context"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// subscriber is anything the hub can push a message to without blocking
// the fan-out loop; WSHandler in ws.go drains each queue onto its
// *websocket.Conn.
type subscriber chan []byte

// Hub maps channel name -> set of subscriber queues. Subscribers are
// added on WebSocket accept and removed on disconnect.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[subscriber]struct{}
}

func New() *Hub {
	return &Hub{subs: make(map[string]map[subscriber]struct{})}
}

// Subscribe registers a new subscriber for channel and returns its queue.
// Buffered so a slow client doesn't stall the broadcaster; Broadcast drops
// messages to a full queue instead of blocking.
func (h *Hub) Subscribe(channel string) subscriber {
	ch := make(subscriber, 64)
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[subscriber]struct{})
	}
	h.subs[channel][ch] = struct{}{}
	return ch
}

// Unsubscribe removes ch from channel and closes it.
func (h *Hub) Unsubscribe(channel string, ch subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[channel]
	if !ok {
		return
	}
	if _, ok := set[ch]; ok {
		delete(set, ch)
		close(ch)
	}
	if len(set) == 0 {
		delete(h.subs, channel)
	}
}

// Broadcast pushes payload to every current subscriber of channel,
// dropping (not blocking on) any whose queue is full.
func (h *Hub) Broadcast(channel string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[channel] {
		select {
		case ch <- payload:
		default:
			log.Printf("[hub] dropping message for slow subscriber on %s", channel)
		}
	}
}

// Bridge subscribes to every channel matching pattern on the pub/sub
// fabric and forwards each delivered payload into the hub under its
// concrete channel name. Blocks until ctx is cancelled.
func (h *Hub) Bridge(ctx context.Context, client *redis.Client, pattern string) {
	ps := client.PSubscribe(ctx, pattern)
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[hub] bridge for %s shutting down", pattern)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.Broadcast(msg.Channel, []byte(msg.Payload))
		}
	}
}
