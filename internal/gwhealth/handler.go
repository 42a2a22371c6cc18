// Package gwhealth is the gateway's observability surface: liveness,
// readiness (DB + Redis reachability), Prometheus-text metrics, and a
// human-facing JSON stats snapshot. Modeled on the teacher's
// internal/health handler (uptime, process, runtime, memory, database
// pool stats), generalized to report broker/pub-sub/DB readiness instead
// of a single DB pool.
package gwhealth

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"finstream/internal/httputil"
	"finstream/internal/metrics"
)

// Handler serves /health, /ready, /metrics and /stats.
type Handler struct {
	pool      *pgxpool.Pool
	redis     *redis.Client
	metrics   *metrics.Registry
	startedAt time.Time
}

func NewHandler(pool *pgxpool.Pool, redisClient *redis.Client, reg *metrics.Registry) *Handler {
	return &Handler{pool: pool, redis: redisClient, metrics: reg, startedAt: time.Now().UTC()}
}

type liveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	UptimeSec int64  `json:"uptime_sec"`
}

// Live is a lightweight liveness probe that checks no dependency.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	httputil.WriteJSON(w, http.StatusOK, liveResponse{
		Status:    "ok",
		Timestamp: now.Format(time.RFC3339),
		UptimeSec: int64(now.Sub(h.startedAt).Seconds()),
	})
}

type dependencyStatus struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
	PingMs    int64  `json:"ping_ms"`
}

type readinessResponse struct {
	Status    string           `json:"status"`
	Timestamp string           `json:"timestamp"`
	Database  dependencyStatus `json:"database"`
	Redis     dependencyStatus `json:"redis"`
}

// Ready checks both the time-series store and the broker/pub-sub fabric,
// returning 503 if either is unreachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	db := h.pingDatabase(ctx)
	rdb := h.pingRedis(ctx)

	status := "ok"
	httpStatus := http.StatusOK
	if !db.Reachable || !rdb.Reachable {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	httputil.WriteJSON(w, httpStatus, readinessResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  db,
		Redis:     rdb,
	})
}

func (h *Handler) pingDatabase(ctx context.Context) dependencyStatus {
	if h.pool == nil {
		return dependencyStatus{Reachable: false, Error: "no database pool configured"}
	}
	start := time.Now()
	err := h.pool.Ping(ctx)
	ping := time.Since(start).Milliseconds()
	if err != nil {
		return dependencyStatus{Reachable: false, Error: err.Error(), PingMs: ping}
	}
	return dependencyStatus{Reachable: true, PingMs: ping}
}

func (h *Handler) pingRedis(ctx context.Context) dependencyStatus {
	if h.redis == nil {
		return dependencyStatus{Reachable: false, Error: "no redis client configured"}
	}
	start := time.Now()
	err := h.redis.Ping(ctx).Err()
	ping := time.Since(start).Milliseconds()
	if err != nil {
		return dependencyStatus{Reachable: false, Error: err.Error(), PingMs: ping}
	}
	return dependencyStatus{Reachable: true, PingMs: ping}
}

// Metrics renders the Prometheus text exposition format.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(h.metrics.Render()))
}

type statsResponse struct {
	Timestamp  string `json:"timestamp"`
	UptimeSec  int64  `json:"uptime_sec"`
	Goroutines int    `json:"goroutines"`
	HeapBytes  uint64 `json:"heap_alloc_bytes"`
	PID        int    `json:"pid"`
}

// Stats is a human-facing JSON snapshot, distinct from the Prometheus
// /metrics endpoint, mirroring the teacher's own /health "full diagnostics"
// JSON view.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	now := time.Now().UTC()

	httputil.WriteJSON(w, http.StatusOK, statsResponse{
		Timestamp:  now.Format(time.RFC3339),
		UptimeSec:  int64(now.Sub(h.startedAt).Seconds()),
		Goroutines: runtime.NumGoroutine(),
		HeapBytes:  mem.HeapAlloc,
		PID:        os.Getpid(),
	})
}
