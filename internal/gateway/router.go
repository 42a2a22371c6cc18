package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finstream/internal/gwhealth"
	"finstream/internal/httpserver"
	"finstream/internal/hub"
)

// RouterDeps wires the store-backed REST handlers, the health surface, and
// the Live Broadcast Hub WebSocket upgrades into one chi router.
type RouterDeps struct {
	Deps   Deps
	Health *gwhealth.Handler
	Hub    *hub.Hub
	Origin string
}

// NewRouter builds the gateway's full route tree behind the local
// corsMiddleware and the httpserver security-headers and rate-limit
// middleware.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(corsMiddleware(d.Origin))
	r.Use(httpserver.SecurityHeaders)
	r.Use(httpserver.RateLimitMiddleware)

	r.Get("/health", d.Health.Live)
	r.Get("/ready", d.Health.Ready)
	r.Get("/metrics", d.Health.Metrics)
	r.Get("/stats", d.Health.Stats)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/candles", CandlesHandler(d.Deps))
		r.Get("/trades", TradesHandler(d.Deps))
		r.Get("/alerts", AlertsHandler(d.Deps))
	})

	wsTrades := hub.NewWSHandler(d.Hub, d.Origin, channelFromQuery("trades"))
	wsQuotes := hub.NewWSHandler(d.Hub, d.Origin, channelFromQuery("quotes"))
	wsAlerts := hub.NewWSHandler(d.Hub, d.Origin, channelFromQuery("alerts"))
	r.Get("/ws/trades", wsTrades.ServeHTTP)
	r.Get("/ws/quotes", wsQuotes.ServeHTTP)
	r.Get("/ws/alerts", wsAlerts.ServeHTTP)

	return r
}

func channelFromQuery(prefix string) func(r *http.Request) string {
	return func(r *http.Request) string {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			return prefix + ":all"
		}
		return prefix + ":" + symbol
	}
}

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allow := origin
			if allow == "" {
				allow = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", allow)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
