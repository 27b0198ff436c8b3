package handlers

import (
	"context"
	"net/http"
	"time"

	"txsync/internal/fanout"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	db         *pgxpool.Pool
	dispatcher fanout.Dispatcher
	startTime  time.Time
	version    string
}

func NewHealthHandler(db *pgxpool.Pool, dispatcher fanout.Dispatcher, version string) *HealthHandler {
	return &HealthHandler{
		db:         db,
		dispatcher: dispatcher,
		startTime:  time.Now(),
		version:    version,
	}
}

// Liveness returns simple alive status.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness reports the database check and the active fanout mode. A
// degraded fanout is informational, not a readiness failure: writes stay
// durable regardless of the transport.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string)
	healthy := true

	if err := h.db.Ping(ctx); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
		healthy = false
	} else {
		checks["database"] = "healthy"
	}

	checks["fanout_mode"] = string(h.dispatcher.Mode())
	if rd, ok := h.dispatcher.(*fanout.RedisDispatcher); ok && rd.Degraded() {
		checks["fanout_mode"] = "distributed (degraded)"
	}

	status := "healthy"
	code := http.StatusOK
	if !healthy {
		status = "unhealthy"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":    status,
		"version":   h.version,
		"uptime":    time.Since(h.startTime).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
