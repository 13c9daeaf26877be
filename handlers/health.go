package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler checks the health status of the service
// @Summary      Health check
// @Description  Check the health status of all services (history store, AI service, target database)
// @Tags         Health
// @Produce      json
// @Success      200  {object}  map[string]string  "Service health status"
// @Router       /health [get]
func (h *Handlers) HealthHandler(c *gin.Context) {
	status := gin.H{
		"status":     "healthy",
		"db":         "not_configured",
		"ai_service": "not_configured",
		"database":   "unavailable",
	}

	if h.db != nil {
		status["db"] = "connected"
	}

	if h.aiService != nil && h.aiService.Configured() {
		status["ai_service"] = "ready"
		status["model"] = h.aiService.ModelName()
	}

	if exec := h.queryService.Executor(); exec != nil {
		status["dialect"] = exec.Dialect()
		if err := exec.Ping(c.Request.Context()); err == nil {
			status["database"] = "connected"
		} else {
			status["status"] = "degraded"
		}
	}

	c.JSON(http.StatusOK, status)
}
