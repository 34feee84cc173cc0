package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"interviewrag/src/core/agent"
)

type agentRequest struct {
	UserQuery string `form:"user_query" json:"user_query"`
	SessionID string `form:"session_id" json:"session_id"`
}

type agentResponse struct {
	Response string `json:"response"`
}

// Converse handles one chat turn. user_query and session_id are read from the query string,
// or from a JSON or form body.
func (h *Handler) Converse(c *gin.Context) {
	var req agentRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	if (req.UserQuery == "" || req.SessionID == "") && c.Request.ContentLength != 0 {
		var body agentRequest
		if err := c.ShouldBind(&body); err != nil {
			sendError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", errBadRequest, err))
			return
		}
		if req.UserQuery == "" {
			req.UserQuery = body.UserQuery
		}
		if req.SessionID == "" {
			req.SessionID = body.SessionID
		}
	}

	if strings.TrimSpace(req.SessionID) == "" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: session_id is required", errBadRequest))
		return
	}
	if req.UserQuery == "" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: user_query is required", errBadRequest))
		return
	}

	reply, err := h.agent.Chat(c.Request.Context(), req.SessionID, req.UserQuery)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}

	sendJSON(c, http.StatusOK, agentResponse{Response: reply})
}

type historyResponse struct {
	SessionID string               `json:"session_id"`
	Messages  []agent.HistoryEntry `json:"messages"`
}

// GetChatHistory returns the stored conversation of a session.
func (h *Handler) GetChatHistory(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		sendError(c, http.StatusBadRequest, fmt.Errorf("%w: session_id is required", errBadRequest))
		return
	}

	history, err := h.agent.History(c.Request.Context(), sessionID)
	if err != nil {
		sendError(c, http.StatusInternalServerError, err)
		return
	}
	if history == nil {
		history = []agent.HistoryEntry{}
	}

	sendJSON(c, http.StatusOK, historyResponse{SessionID: sessionID, Messages: history})
}
