package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/kpi-visualizer/internal/domain"
	"github.com/andresuchdata/kpi-visualizer/internal/service"
)

type ChatHandler struct {
	chatService *service.ChatService
}

func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Ask answers a question about the sales KPIs. With "stream": true the answer is sent
// as server-sent "message" events followed by "done".
func (h *ChatHandler) Ask(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if !req.Stream {
		answer, err := h.chatService.AskAll(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"answer": answer})
		return
	}

	started := false
	err := h.chatService.Ask(c.Request.Context(), req, func(delta string) error {
		if !started {
			started = true
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		c.SSEvent("message", delta)
		c.Writer.Flush()
		return c.Request.Context().Err()
	})

	switch {
	case err != nil && !started:
		respondError(c, err)
	case err != nil:
		log.Warn().Err(err).Msg("chat stream aborted")
		c.SSEvent("error", gin.H{"error": err.Error()})
		c.Writer.Flush()
	default:
		if !started {
			c.Header("Content-Type", "text/event-stream")
			c.Status(http.StatusOK)
		}
		c.SSEvent("done", "")
		c.Writer.Flush()
	}
}
