package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"txsync/internal/cache"
	"txsync/internal/config"
	"txsync/internal/db"
	"txsync/internal/domain"
	"txsync/internal/fanout"
	httpServer "txsync/internal/http"
	"txsync/internal/http/handlers"
	"txsync/internal/http/middleware"
	"txsync/internal/logger"
	"txsync/internal/repository"
	"txsync/internal/service"
	"txsync/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	dbPool := db.Connect(cfg.DatabaseURL)
	defer dbPool.Close()

	store := repository.NewTransactionRepository(dbPool)
	txCache := cache.New(store, cfg.CacheCapacity, cfg.CacheWarmupLimit)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	// remote-origin values merge into the local cache only; each node
	// has its own connection to the shared store, so fanout is a
	// read-side notification, never a durable write.
	dispatcher := fanout.Select(redisClient, cfg.FanoutChannel, cfg.RedisConnectTimeout,
		func(tx *domain.Transaction) { txCache.Merge(tx) })
	defer dispatcher.Close()

	hub := ws.NewHub()
	dispatcher.Subscribe(hub)

	svc := service.NewUpsertService(store, txCache, dispatcher)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRateLimiter(redisClient)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := handlers.NewHandler(svc, store, txCache)
	health := handlers.NewHealthHandler(dbPool, dispatcher, version)
	httpServer.RegisterRoutes(r, h, health, hub, cfg)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "fanout_mode", dispatcher.Mode())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
