package config

import (
	"os"
	"strconv"
	"time"

	"txsync/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string

	// Distributed fanout transport
	RedisAddr           string
	RedisPassword       string
	RedisDB             int
	FanoutChannel       string
	RedisConnectTimeout time.Duration

	// Cache sizing
	CacheCapacity    int
	CacheWarmupLimit int

	// Ingest rate limiting
	IngestRateLimit  int
	IngestRateWindow time.Duration

	LogLevel string
	LogJSON  bool
}

// Load reads configuration from env (with .env support for local runs).
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Redis is optional: empty addr means local-only fanout.
	redisAddr := os.Getenv("REDIS_ADDR")

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			redisDB = n
		}
	}

	channel := os.Getenv("FANOUT_CHANNEL")
	if channel == "" {
		channel = "txsync:transactions"
	}

	connectTimeout := 3 * time.Second
	if v := os.Getenv("REDIS_CONNECT_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			connectTimeout = time.Duration(n) * time.Second
		}
	}

	cacheCapacity := 1000
	if v := os.Getenv("CACHE_CAPACITY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cacheCapacity = n
		}
	}

	warmupLimit := 500
	if v := os.Getenv("CACHE_WARMUP_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			warmupLimit = n
		}
	}

	ingestRateLimit := 120
	if v := os.Getenv("INGEST_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ingestRateLimit = n
		}
	}

	ingestRateWindow := time.Minute
	if v := os.Getenv("INGEST_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ingestRateWindow = time.Duration(n) * time.Second
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		AppPort:             port,
		DatabaseURL:         dbURL,
		RedisAddr:           redisAddr,
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             redisDB,
		FanoutChannel:       channel,
		RedisConnectTimeout: connectTimeout,
		CacheCapacity:       cacheCapacity,
		CacheWarmupLimit:    warmupLimit,
		IngestRateLimit:     ingestRateLimit,
		IngestRateWindow:    ingestRateWindow,
		LogLevel:            logLevel,
		LogJSON:             os.Getenv("LOG_JSON") == "true",
	}
}
