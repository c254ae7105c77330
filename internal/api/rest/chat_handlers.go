package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardstoard/cardstoard-api/internal/api/middleware"
	"github.com/cardstoard/cardstoard-api/internal/chat"
)

type chatRequest struct {
	Message string         `json:"message" binding:"required,max=4000"`
	History []chat.Message `json:"history" binding:"omitempty,max=40,dive"`
}

// Chat answers one assistant turn grounded in the collection. Tool calls the
// model makes are executed before the reply is returned.
func (h *handler) Chat(c *gin.Context) {
	if h.chat == nil {
		respondBadRequest(c, "Chat is not configured")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	reply, actions, err := h.chat.Chat(c.Request.Context(), middleware.UserID(c), req.Message, req.History)
	if err != nil {
		respondInternalError(c, err, "Assistant request failed")
		return
	}
	if actions == nil {
		actions = []chat.Action{}
	}

	c.JSON(http.StatusOK, gin.H{
		"reply":   reply,
		"actions": actions,
	})
}
