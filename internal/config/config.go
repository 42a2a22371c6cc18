// Package config loads FinStream's process configuration from the
// environment, following the teacher's explicit os.Getenv + collected-
// missing-keys pattern (internal/config.Load in abdulloh5007-tradepl),
// generalized with the getEnv*/default helpers nofendian17-stockbit-haka-haki
// uses in its config package, and preceded by an optional .env load via
// github.com/joho/godotenv (also present in cloudmanic-massive).
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every environment-driven setting shared across the
// priceengine, aggregator, detector and gateway binaries. Each binary only
// reads the fields it needs.
type Config struct {
	LogLevel  string
	Watchlist string

	RedisURL                   string
	KafkaProducerAcks          string
	KafkaProducerCompression   string
	KafkaConsumerGroupID       string
	KafkaConsumerAutoOffsetRst string
	KafkaConsumerEnableAutoCmt bool
	KafkaConsumerMaxRetries    int
	KafkaConsumerRetryBackoff  time.Duration

	DatabaseURL string
	DBMaxConns  int32

	HTTPAddr        string
	GatewayOrigin   string
	ShutdownTimeout time.Duration

	TracingEnabled bool
	JaegerEndpoint string
	MetricsEnabled bool
	MetricsAddr    string

	AnomalyAlpha            float64
	AnomalyMinSamples       int
	AnomalyCooldown         time.Duration
	AnomalySpikeThreshold   float64
	AnomalyVolumeMultiplier float64
	AnomalySpreadMultiplier float64

	AggregatorFlushInterval time.Duration
	AggregatorCommitBatch   int

	PriceEngineBaseSeed      int64
	PriceEngineTradeInterval time.Duration
	PriceEngineQuoteInterval time.Duration
	PriceEngineStatsInterval time.Duration
}

// Load reads a local .env file if present (silently ignored when absent,
// matching godotenv.Load's own behavior) and then populates Config from the
// process environment, returning a single error naming every missing
// required key.
func Load() (Config, error) {
	_ = godotenv.Load()

	var c Config
	var missing []string

	c.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	c.Watchlist = getEnvOrDefault("WATCHLIST", "AAPL,MSFT,GOOGL")

	c.RedisURL = os.Getenv("REDIS_URL")
	if c.RedisURL == "" {
		missing = append(missing, "REDIS_URL")
	}
	c.KafkaProducerAcks = getEnvOrDefault("KAFKA_PRODUCER_ACKS", "all")
	c.KafkaProducerCompression = getEnvOrDefault("KAFKA_PRODUCER_COMPRESSION_TYPE", "none")
	c.KafkaConsumerGroupID = getEnvOrDefault("KAFKA_CONSUMER_GROUP_ID", "finstream")
	c.KafkaConsumerAutoOffsetRst = getEnvOrDefault("KAFKA_CONSUMER_AUTO_OFFSET_RESET", "latest")
	autoCommit, err := getEnvBool("KAFKA_CONSUMER_ENABLE_AUTO_COMMIT", true)
	if err != nil {
		return c, err
	}
	c.KafkaConsumerEnableAutoCmt = autoCommit
	c.KafkaConsumerMaxRetries, err = getEnvInt("KAFKA_CONSUMER_MAX_RETRIES", 5)
	if err != nil {
		return c, err
	}
	c.KafkaConsumerRetryBackoff, err = getEnvDuration("KAFKA_CONSUMER_RETRY_BACKOFF", 500*time.Millisecond)
	if err != nil {
		return c, err
	}

	c.DatabaseURL = os.Getenv("DATABASE_URL")
	if c.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return c, err
	}
	c.DBMaxConns = int32(dbMaxConns)

	c.HTTPAddr = getEnvOrDefault("HTTP_ADDR", ":8080")
	c.GatewayOrigin = getEnvOrDefault("GATEWAY_ORIGIN", "*")
	c.ShutdownTimeout, err = getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return c, err
	}

	c.TracingEnabled, err = getEnvBool("TRACING_ENABLED", false)
	if err != nil {
		return c, err
	}
	c.JaegerEndpoint = os.Getenv("JAEGER_ENDPOINT")
	c.MetricsEnabled, err = getEnvBool("METRICS_ENABLED", true)
	if err != nil {
		return c, err
	}
	c.MetricsAddr = getEnvOrDefault("METRICS_ADDR", ":9090")

	c.AnomalyAlpha, err = getEnvFloat("ANOMALY_ALPHA", 0.01)
	if err != nil {
		return c, err
	}
	c.AnomalyMinSamples, err = getEnvInt("ANOMALY_MIN_SAMPLES", 100)
	if err != nil {
		return c, err
	}
	c.AnomalyCooldown, err = getEnvDuration("ANOMALY_COOLDOWN", 60*time.Second)
	if err != nil {
		return c, err
	}
	c.AnomalySpikeThreshold, err = getEnvFloat("ANOMALY_SPIKE_THRESHOLD", 3.0)
	if err != nil {
		return c, err
	}
	c.AnomalyVolumeMultiplier, err = getEnvFloat("ANOMALY_VOLUME_MULTIPLIER", 5.0)
	if err != nil {
		return c, err
	}
	c.AnomalySpreadMultiplier, err = getEnvFloat("ANOMALY_SPREAD_MULTIPLIER", 3.0)
	if err != nil {
		return c, err
	}

	c.AggregatorFlushInterval, err = getEnvDuration("AGGREGATOR_FLUSH_INTERVAL", 5*time.Second)
	if err != nil {
		return c, err
	}
	c.AggregatorCommitBatch, err = getEnvInt("AGGREGATOR_COMMIT_BATCH", 100)
	if err != nil {
		return c, err
	}

	seed, err := getEnvInt("PRICE_ENGINE_BASE_SEED", 42)
	if err != nil {
		return c, err
	}
	c.PriceEngineBaseSeed = int64(seed)
	c.PriceEngineTradeInterval, err = getEnvDuration("PRICE_ENGINE_TRADE_INTERVAL", 100*time.Millisecond)
	if err != nil {
		return c, err
	}
	c.PriceEngineQuoteInterval, err = getEnvDuration("PRICE_ENGINE_QUOTE_INTERVAL", 200*time.Millisecond)
	if err != nil {
		return c, err
	}
	c.PriceEngineStatsInterval, err = getEnvDuration("PRICE_ENGINE_STATS_INTERVAL", 60*time.Second)
	if err != nil {
		return c, err
	}

	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseBool(v)
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvFloat(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
