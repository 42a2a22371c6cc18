package hub

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
)

// WSHandler upgrades a request to a WebSocket and streams one hub channel
// to the client until it disconnects.
type WSHandler struct {
	hub      *Hub
	upgrader websocket.Upgrader
	channel  func(r *http.Request) string
}

// NewWSHandler builds a handler that subscribes each connection to the
// channel named by channelFor(r) (e.g. "trades:"+symbol from a path or
// query parameter).
func NewWSHandler(h *Hub, origin string, channelFor func(r *http.Request) string) *WSHandler {
	return &WSHandler{
		hub:     h,
		channel: channelFor,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return allowOrigin(r, origin) },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	channel := h.channel(r)
	sub := h.hub.Subscribe(channel)
	defer h.hub.Unsubscribe(channel, sub)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload, ok := <-sub:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func allowOrigin(r *http.Request, origin string) bool {
	if origin == "*" {
		return true
	}
	reqOrigin := r.Header.Get("Origin")
	if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
		if strings.Contains(reqOrigin, "localhost") || strings.Contains(reqOrigin, "127.0.0.1") {
			return true
		}
	}
	return strings.EqualFold(reqOrigin, origin)
}
