package handlers

import (
	"net/http"
	"time"

	"github.com/connexx-dev/connexx/db"
	"github.com/connexx-dev/connexx/internal/monitoring"
	"github.com/gin-gonic/gin"
)

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "ok",
		"message":   "Connexx is running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// SystemHealth is the full health report: database, error rates,
// active alerts and uptime.
func SystemHealth(ctx *gin.Context) {
	monitor := monitoring.NewHealthMonitor(db.DB)

	health, err := monitor.Overall()

	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute system health"})
		return
	}

	ctx.JSON(http.StatusOK, health)
}
