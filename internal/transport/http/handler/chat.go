package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"datacopilot/internal/app"
	"datacopilot/internal/chart"
	"datacopilot/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

type ChatResponse struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	ImagePath   string `json:"image_path,omitempty"`
	HasPlot     bool   `json:"has_plot"`
	ImageBase64 string `json:"image_base64,omitempty"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Ask runs a full chat turn. Internal failures never surface raw: the client
// always receives a presentable answer string.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "please provide a valid question")
		return
	}

	result, err := h.chatService.ProcessQuery(c.Request.Context(), req.Question)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrQuestionEmpty):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "please provide a valid question")
		case errors.Is(err, app.ErrAgentsNotReady):
			response.Error(c, http.StatusServiceUnavailable, response.CodeNotInitialized, "agents not initialized")
		default:
			log.Printf("chat turn failed: %v", err)
			response.OK(c, ChatResponse{
				Question: req.Question,
				Answer:   app.ProcessingErrorAnswer,
			})
		}
		return
	}

	resp := ChatResponse{
		Question:  result.Question,
		Answer:    app.PresentAnswer(result.Answer),
		ImagePath: result.ImagePath,
		HasPlot:   result.HasPlot,
	}
	if result.HasPlot {
		if encoded, ok := chart.EncodeBase64(result.ImagePath); ok {
			resp.ImageBase64 = encoded
		}
	}

	response.OK(c, resp)
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, parseErr := strconv.Atoi(raw); parseErr == nil {
			limit = parsed
		}
	}

	turns, err := h.chatService.GetHistory(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "get history failed")
		return
	}

	response.OK(c, turns)
}
