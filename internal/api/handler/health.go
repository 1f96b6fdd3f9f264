package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
)

// Healthz reports whether the database is reachable, together with cache statistics.
func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	body := gin.H{
		"status":   "ok",
		"database": "ok",
	}
	if h.cache != nil {
		body["cache"] = h.cache.GetStats()
	}

	if err := h.db.Ping(ctx); err != nil {
		log.Error("Health check failed", "error", err)
		body["status"] = "error"
		body["database"] = err.Error()
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}

	c.JSON(http.StatusOK, body)
}
