package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/clawearning/backend/internal/services/ledger"
	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness and storage reachability
type HealthHandler struct {
	store ledger.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store ledger.Store) *HealthHandler {
	return &HealthHandler{store: store}
}

// Health pings the store with a short timeout
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "storage": "unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
}
