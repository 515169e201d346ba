package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheck(c *gin.Context) {
	status, code := "ok", http.StatusOK
	database := "up"

	if h.Ping != nil {
		if err := h.Ping(c.Request.Context()); err != nil {
			_ = c.Error(err)
			status, code, database = "degraded", http.StatusServiceUnavailable, "down"
		}
	}

	c.JSON(code, gin.H{
		"status":    status,
		"database":  database,
		"message":   "Plank is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
