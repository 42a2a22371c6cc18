package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"finstream/internal/aggregator"
	"finstream/internal/config"
	"finstream/internal/eventlog"
	"finstream/internal/metrics"
	"finstream/internal/model"
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

	tradeStore := timeseries.NewTradeStore(pool)
	quoteStore := timeseries.NewQuoteStore(pool)
	candleStore := timeseries.NewCandleStore(pool)

	reg := metrics.NewRegistry()
	reg.Describe("eventlog_consumer_errors_total", "cumulative read errors per consumer-group stream")
	reg.Describe("aggregator_decode_errors_total", "messages dropped for failing JSON decode")

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsSrv = metrics.Serve(cfg.MetricsAddr, reg)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[aggregator] metrics server: %v", err)
			}
		}()
	}

	agg := aggregator.New(candleStore, aggregator.Config{
		FlushInterval: cfg.AggregatorFlushInterval,
		CommitBatch:   cfg.AggregatorCommitBatch,
	})

	tradeConsumer, err := eventlog.NewConsumer(ctx, redisClient, eventlog.TopicTrades, eventlog.Config{
		ConsumerGroup:   cfg.KafkaConsumerGroupID,
		ConsumerName:    "aggregator-trades-1",
		AutoOffsetReset: cfg.KafkaConsumerAutoOffsetRst,
	})
	if err != nil {
		log.Fatal(err)
	}
	quoteConsumer, err := eventlog.NewConsumer(ctx, redisClient, eventlog.TopicQuotes, eventlog.Config{
		ConsumerGroup:   cfg.KafkaConsumerGroupID,
		ConsumerName:    "aggregator-quotes-1",
		AutoOffsetReset: cfg.KafkaConsumerAutoOffsetRst,
	})
	if err != nil {
		log.Fatal(err)
	}

	var pendingTradeAcks []string
	agg.OnCommit(func() {
		if len(pendingTradeAcks) == 0 {
			return
		}
		if err := tradeConsumer.Ack(context.Background(), pendingTradeAcks...); err != nil {
			log.Printf("[aggregator] ack trade batch failed: %v", err)
		}
		pendingTradeAcks = pendingTradeAcks[:0]
	})

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		agg.Run(ctx)
	}()

	go func() {
		defer wg.Done()
		log.Printf("[aggregator] trade persistence+rollup loop starting")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			messages, err := tradeConsumer.Read(ctx, 100, time.Second)
			if err != nil {
				reg.SetGauge("eventlog_consumer_errors_total", map[string]string{"topic": "trades"}, float64(tradeConsumer.ErrorCount()))
				time.Sleep(time.Second)
				continue
			}
			for _, msg := range messages {
				var trade model.Trade
				if err := json.Unmarshal(msg.Value, &trade); err != nil {
					log.Printf("[aggregator] decode trade: %v", err)
					reg.IncCounter("aggregator_decode_errors_total", map[string]string{"topic": "trades"}, 1)
					continue
				}
				if err := tradeStore.Insert(ctx, trade); err != nil {
					log.Printf("[aggregator] persist trade: %v", err)
					continue
				}
				agg.AddTrade(ctx, trade)
				pendingTradeAcks = append(pendingTradeAcks, msg.ID)
			}
		}
	}()

	go func() {
		defer wg.Done()
		log.Printf("[aggregator] quote persistence loop starting")
		var pendingQuoteAcks []string
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			messages, err := quoteConsumer.Read(ctx, 100, time.Second)
			if err != nil {
				reg.SetGauge("eventlog_consumer_errors_total", map[string]string{"topic": "quotes"}, float64(quoteConsumer.ErrorCount()))
				time.Sleep(time.Second)
				continue
			}
			for _, msg := range messages {
				var quote model.Quote
				if err := json.Unmarshal(msg.Value, &quote); err != nil {
					log.Printf("[aggregator] decode quote: %v", err)
					reg.IncCounter("aggregator_decode_errors_total", map[string]string{"topic": "quotes"}, 1)
					continue
				}
				if err := quoteStore.Insert(ctx, quote); err != nil {
					log.Printf("[aggregator] persist quote: %v", err)
					continue
				}
				pendingQuoteAcks = append(pendingQuoteAcks, msg.ID)
			}
			if len(pendingQuoteAcks) > 0 {
				if err := quoteConsumer.Ack(ctx, pendingQuoteAcks...); err != nil {
					log.Printf("[aggregator] ack quote batch failed: %v", err)
				}
				pendingQuoteAcks = pendingQuoteAcks[:0]
			}
		}
	}()

	log.Printf("[aggregator] consuming trades+quotes, flush=%s commit_batch=%d", cfg.AggregatorFlushInterval, cfg.AggregatorCommitBatch)

	wg.Wait()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Printf("[aggregator] shut down")
}
