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

	"finstream/internal/anomaly"
	"finstream/internal/config"
	"finstream/internal/eventlog"
	"finstream/internal/metrics"
	"finstream/internal/model"
	"finstream/internal/pubsub"
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
		MaxRetries:   cfg.KafkaConsumerMaxRetries,
		RetryBackoff: cfg.KafkaConsumerRetryBackoff,
	})
	live := pubsub.NewPublisher(redisClient)

	detector := anomaly.New(&anomaly.FanoutSink{Durable: producer, Live: live}, anomaly.Config{
		Alpha:            cfg.AnomalyAlpha,
		MinSamples:       int64(cfg.AnomalyMinSamples),
		Cooldown:         cfg.AnomalyCooldown,
		SpikeThreshold:   cfg.AnomalySpikeThreshold,
		VolumeMultiplier: cfg.AnomalyVolumeMultiplier,
		SpreadMultiplier: cfg.AnomalySpreadMultiplier,
	})

	tradeConsumer, err := eventlog.NewConsumer(ctx, redisClient, eventlog.TopicTrades, eventlog.Config{
		ConsumerGroup:   cfg.KafkaConsumerGroupID,
		ConsumerName:    "detector-trades-1",
		AutoOffsetReset: cfg.KafkaConsumerAutoOffsetRst,
	})
	if err != nil {
		log.Fatal(err)
	}
	quoteConsumer, err := eventlog.NewConsumer(ctx, redisClient, eventlog.TopicQuotes, eventlog.Config{
		ConsumerGroup:   cfg.KafkaConsumerGroupID,
		ConsumerName:    "detector-quotes-1",
		AutoOffsetReset: cfg.KafkaConsumerAutoOffsetRst,
	})
	if err != nil {
		log.Fatal(err)
	}

	reg := metrics.NewRegistry()
	reg.Describe("eventlog_consumer_errors_total", "cumulative read errors per consumer-group stream")
	reg.Describe("eventlog_producer_send_errors_total", "cumulative terminal alert-publish failures")
	reg.Describe("detector_decode_errors_total", "messages dropped for failing JSON decode")

	var metricsSrv *http.Server
	if cfg.MetricsEnabled {
		metricsSrv = metrics.Serve(cfg.MetricsAddr, reg)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("[detector] metrics server: %v", err)
			}
		}()
	}

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				reg.SetGauge("eventlog_consumer_errors_total", map[string]string{"topic": "trades"}, float64(tradeConsumer.ErrorCount()))
				reg.SetGauge("eventlog_consumer_errors_total", map[string]string{"topic": "quotes"}, float64(quoteConsumer.ErrorCount()))
				reg.SetGauge("eventlog_producer_send_errors_total", nil, float64(producer.SendErrorCount()))
			}
		}
	}()

	go func() {
		defer wg.Done()
		log.Printf("[detector] trade monitor loop starting")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			messages, err := tradeConsumer.Read(ctx, 100, time.Second)
			if err != nil {
				time.Sleep(time.Second)
				continue
			}
			for _, msg := range messages {
				var trade model.Trade
				if err := json.Unmarshal(msg.Value, &trade); err != nil {
					log.Printf("[detector] decode trade: %v", err)
					reg.IncCounter("detector_decode_errors_total", map[string]string{"topic": "trades"}, 1)
					continue
				}
				detector.OnTrade(ctx, trade)
			}
			if len(messages) > 0 {
				ids := messageIDs(messages)
				if err := tradeConsumer.Ack(ctx, ids...); err != nil {
					log.Printf("[detector] ack trades: %v", err)
				}
			}
		}
	}()

	go func() {
		defer wg.Done()
		log.Printf("[detector] quote monitor loop starting")
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}
			messages, err := quoteConsumer.Read(ctx, 100, time.Second)
			if err != nil {
				time.Sleep(time.Second)
				continue
			}
			for _, msg := range messages {
				var quote model.Quote
				if err := json.Unmarshal(msg.Value, &quote); err != nil {
					log.Printf("[detector] decode quote: %v", err)
					reg.IncCounter("detector_decode_errors_total", map[string]string{"topic": "quotes"}, 1)
					continue
				}
				detector.OnQuote(ctx, quote)
			}
			if len(messages) > 0 {
				ids := messageIDs(messages)
				if err := quoteConsumer.Ack(ctx, ids...); err != nil {
					log.Printf("[detector] ack quotes: %v", err)
				}
			}
		}
	}()

	wg.Wait()
	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	log.Printf("[detector] shutting down")
}

func messageIDs(messages []eventlog.Message) []string {
	ids := make([]string, len(messages))
	for i, m := range messages {
		ids[i] = m.ID
	}
	return ids
}
