package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/qa-forum/backend/internal/store"
)

type HealthHandler struct {
	store    store.Store
	presence map[string]bool
}

func NewHealthHandler(st store.Store, presence map[string]bool) *HealthHandler {
	return &HealthHandler{store: st, presence: presence}
}

// Liveness answers as long as the process is up
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Health reports store status and which settings are configured
func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.store.Health(c.Request.Context())
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status": stats["status"],
		"store":  stats,
		"env":    h.presence,
	})
}
