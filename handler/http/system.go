package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"interviewrag/src/core/system"
)

// CheckHealth reports the state of every backing service. Any unhealthy component turns the
// reply into a 503.
func (h *Handler) CheckHealth(c *gin.Context) {
	status := h.health.CheckHealth(c.Request.Context())

	code := http.StatusOK
	if status.Status != system.StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	sendJSON(c, code, status)
}
