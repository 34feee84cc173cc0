package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.limiter != nil && !h.limiter.Allow() {
			sendError(c, http.StatusTooManyRequests, errTooManyCalls)
			return
		}
		c.Next()
	}
}
