package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"finstream/internal/config"
	"finstream/internal/eventlog"
	"finstream/internal/gateway"
	"finstream/internal/gwhealth"
	"finstream/internal/hub"
	"finstream/internal/metrics"
	"finstream/internal/timeseries"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := eventlog.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	pool, err := timeseries.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	reg := metrics.NewRegistry()
	reg.Describe("gateway_ws_broadcasts_total", "messages fanned out to WebSocket subscribers")

	broadcastHub := hub.New()
	go broadcastHub.Bridge(ctx, redisClient, "trades:*")
	go broadcastHub.Bridge(ctx, redisClient, "quotes:*")
	go broadcastHub.Bridge(ctx, redisClient, "alerts:*")

	deps := gateway.Deps{
		Trades:  timeseries.NewTradeStore(pool),
		Quotes:  timeseries.NewQuoteStore(pool),
		Candles: timeseries.NewCandleStore(pool),
		Hub:     broadcastHub,
		Origin:  cfg.GatewayOrigin,
	}
	health := gwhealth.NewHandler(pool, redisClient, reg)

	router := gateway.NewRouter(gateway.RouterDeps{
		Deps:   deps,
		Health: health,
		Hub:    broadcastHub,
		Origin: cfg.GatewayOrigin,
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("[gateway] listening on %s", cfg.HTTPAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
	log.Printf("[gateway] stopped")
}
