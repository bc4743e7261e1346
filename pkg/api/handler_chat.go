package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/beq-project/beq/pkg/conversation"
)

// chatHandler handles POST /api/v1/chat: one conversational turn.
func (s *Server) chatHandler(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	conversationID := req.ConversationID
	if conversationID == "" {
		conversationID = conversation.NewID()
	}

	result, err := s.turns.ProcessTurn(c.Request.Context(), callerID(c), conversationID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"conversation_id": conversationID,
		"result":          result,
	})
}
