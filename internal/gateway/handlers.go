// Package gateway is the REST + WebSocket surface described in
// SPEC_FULL.md §6.4: historical queries over the time-series store and
// live fan-out over the Live Broadcast Hub.
package gateway

import (
	"net/http"
	"strconv"
	"time"

	"finstream/internal/hub"
	"finstream/internal/httputil"
	"finstream/internal/model"
	"finstream/internal/timeseries"
)

// Deps wires every store and the hub the gateway's handlers need.
type Deps struct {
	Trades  *timeseries.TradeStore
	Quotes  *timeseries.QuoteStore
	Candles *timeseries.CandleStore
	Hub     *hub.Hub
	Origin  string
}

// CandlesHandler serves GET /api/v1/candles?symbol=&interval=&since=,
// returning every candle from since (RFC3339, default 24h ago) up to now;
// the result is not capped by a limit parameter.
func CandlesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
			return
		}
		interval := model.Interval(r.URL.Query().Get("interval"))
		if interval == "" {
			interval = model.Interval1m
		}
		if interval.Seconds() == 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "invalid interval"})
			return
		}

		to := time.Now().UTC()
		from := to.Add(-24 * time.Hour)
		if sinceParam := r.URL.Query().Get("since"); sinceParam != "" {
			parsed, err := time.Parse(time.RFC3339, sinceParam)
			if err != nil {
				httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "since must be RFC3339"})
				return
			}
			from = parsed
		}

		candles, err := deps.Candles.Range(r.Context(), symbol, interval, from, to)
		if err != nil {
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, candles)
	}
}

// TradesHandler serves GET /api/v1/trades?symbol=&limit=.
func TradesHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{Error: "symbol is required"})
			return
		}
		limit := parseLimit(r.URL.Query().Get("limit"), 100, 1000)

		trades, err := deps.Trades.Recent(r.Context(), symbol, limit)
		if err != nil {
			httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{Error: err.Error()})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, trades)
	}
}

// AlertsHandler serves GET /api/v1/alerts?symbol=&limit=. Alerts are
// fanned out live via the hub and not persisted by the core pipeline, so
// this endpoint reports the empty set with a 200 — a dedicated alert
// store is a documented non-goal (see DESIGN.md).
func AlertsHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, []model.Alert{})
	}
}

func parseLimit(raw string, fallback, max int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	if n > max {
		return max
	}
	return n
}
