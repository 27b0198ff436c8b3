package http

import (
	"txsync/internal/config"
	"txsync/internal/http/handlers"
	"txsync/internal/http/middleware"
	"txsync/internal/ws"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, health *handlers.HealthHandler, hub *ws.Hub, cfg *config.Config) {
	api := r.Group("/api")
	{
		api.POST("/transactions",
			middleware.RateLimit(cfg.IngestRateLimit, cfg.IngestRateWindow),
			h.Upsert,
		)
		api.GET("/transactions", h.List)
		api.GET("/transactions/:id", h.GetByID)
		api.GET("/stats", h.Stats)
	}

	r.GET("/ws", h.WS(hub))
	r.GET("/healthz", health.Liveness)
	r.GET("/readyz", health.Readiness)
}
