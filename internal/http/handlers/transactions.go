package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"txsync/internal/domain"
	"txsync/internal/http/middleware"
	"txsync/internal/repository"
	"txsync/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type upsertRequest struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    string          `json:"status"`
	EventTime time.Time       `json:"event_time" binding:"required"`
}

type upsertResponse struct {
	ID      string `json:"id"`
	WasNew  bool   `json:"was_new"`
	Applied bool   `json:"applied"`
}

// Upsert ingests one transaction event. Stale events answer 200 with
// applied=false; they are a normal outcome of out-of-order delivery.
func (h *Handler) Upsert(c *gin.Context) {
	var req upsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	status := domain.Status(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	tx := &domain.Transaction{
		ID:        req.ID,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Status:    status,
		EventTime: req.EventTime,
	}

	wasNew, applied, err := h.svc.Upsert(c.Request.Context(), tx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidID), errors.Is(err, service.ErrInvalidCurrency):
			middleware.UpsertOutcomes.WithLabelValues("invalid").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrStoreUnavailable):
			middleware.UpsertOutcomes.WithLabelValues("store_error").Inc()
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		default:
			middleware.UpsertOutcomes.WithLabelValues("error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		}
		return
	}

	switch {
	case wasNew:
		middleware.UpsertOutcomes.WithLabelValues("applied_new").Inc()
	case applied:
		middleware.UpsertOutcomes.WithLabelValues("applied_update").Inc()
	default:
		middleware.UpsertOutcomes.WithLabelValues("stale").Inc()
	}

	code := http.StatusOK
	if wasNew {
		code = http.StatusCreated
	}
	c.JSON(code, upsertResponse{ID: tx.ID, WasNew: wasNew, Applied: applied})
}

// List returns transactions ordered by event_time descending.
func (h *Handler) List(c *gin.Context) {
	f := repository.Filter{
		Status:   domain.Status(c.Query("status")),
		Currency: c.Query("currency"),
	}
	if f.Status != "" && !f.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status"})
		return
	}

	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit > 500 {
		limit = 500
	}

	txs, err := h.store.ListRecent(c.Request.Context(), f, offset, limit)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}
	c.JSON(http.StatusOK, gin.H{"transactions": txs, "offset": offset, "limit": limit})
}

// GetByID reads through the cache; a cache miss falls back to the store.
func (h *Handler) GetByID(c *gin.Context) {
	id := c.Param("id")

	tx, err := h.cache.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}
	if tx == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "transaction not found"})
		return
	}
	c.JSON(http.StatusOK, tx)
}

// Stats returns the stored record count and per-currency totals.
func (h *Handler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	count, err := h.store.Count(ctx, repository.Filter{})
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	sums, err := h.store.SumByCurrency(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "store unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count, "totals": sums})
}
