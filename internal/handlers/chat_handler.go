package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/somniatrack/internal/domains/chat"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// ChatHandler serves the Luma tips chatbot
type ChatHandler struct {
	chatService chat.ChatService
	logger      *Logger.Logger
}

func NewChatHandler(chatService chat.ChatService, logger *Logger.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, logger: logger}
}

// Chat answers a sleep question for the user's shift
// @Summary Ask the sleep tips chatbot
// @Tags Chat
// @Accept json
// @Produce json
// @Param request body ChatRequest true "Question and optional shift (day|night)"
// @Success 200 {object} ChatResponse
// @Failure 400 {object} ErrorResponse "Invalid request data"
// @Failure 502 {object} ErrorResponse "Chat assistant unavailable"
// @Router /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "Invalid request data",
			Details: err.Error(),
		})
		return
	}

	shift, err := chat.ParseShift(req.Shift)
	if err != nil {
		respondError(c, h.logger, "chat", err)
		return
	}

	reply, err := h.chatService.Reply(c.Request.Context(), req.Message, shift)
	if err != nil {
		respondError(c, h.logger, "chat", err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{Response: reply})
}
