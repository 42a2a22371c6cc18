package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"finstream/internal/config"
	"finstream/internal/eventlog"
	"finstream/internal/metrics"
	"finstream/internal/priceengine"
	"finstream/internal/pubsub"
	"finstream/internal/regime"
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

	producer := eventlog.NewProducer(redisClient, eventlog.Config{
		RedisURL:        cfg.RedisURL,
		Acks:            eventlog.Acks(cfg.KafkaProducerAcks),
		CompressionType: cfg.KafkaProducerCompression,
		MaxRetries:      cfg.KafkaConsumerMaxRetries,
		RetryBackoff:    cfg.KafkaConsumerRetryBackoff,
	})

	live := pubsub.NewPublisher(redisClient)

	symbols := config.Watchlist(cfg.Watchlist)
	if len(symbols) == 0 {
		log.Fatal("priceengine: empty watchlist")
	}
	engine := priceengine.New(symbols, cfg.PriceEngineBaseSeed)

	pool, err := timeseries.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer pool.Close()

	regimeStore := regime.NewStore(pool)
	poller := regime.NewPoller(regimeStore, engine, cfg.PriceEngineStatsInterval)

	reg := metrics.NewRegistry()
	reg.Describe("eventlog_producer_send_errors_total", "cumulative terminal publish failures")

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsSrv = metrics.Serve(cfg.MetricsAddr, reg)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[priceengine] metrics server: %v", err)
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		poller.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reg.SetGauge("eventlog_producer_send_errors_total", nil, float64(producer.SendErrorCount()))
			}
		}
	}()

	log.Printf("[priceengine] simulating %d symbols, seed=%d", len(symbols), cfg.PriceEngineBaseSeed)
	engine.Run(ctx, &priceengine.FanoutPublisher{Durable: producer, Live: live}, priceengine.RunConfig{
		TradeInterval: cfg.PriceEngineTradeInterval,
		QuoteInterval: cfg.PriceEngineQuoteInterval,
		StatsInterval: cfg.PriceEngineStatsInterval,
	})

	wg.Wait()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Printf("[priceengine] stopped")
}
