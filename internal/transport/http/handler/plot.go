package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"datacopilot/internal/chart"
	"datacopilot/internal/transport/http/response"
)

// PlotHandler serves the single chart artifact produced by the most recent
// chat turn.
type PlotHandler struct {
	artifactPath string
}

func NewPlotHandler(artifactPath string) *PlotHandler {
	return &PlotHandler{artifactPath: artifactPath}
}

func (h *PlotHandler) Image(c *gin.Context) {
	if !chart.Exists(h.artifactPath) {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "plot image not found")
		return
	}
	c.FileAttachment(h.artifactPath, "plot.png")
}

func (h *PlotHandler) Base64(c *gin.Context) {
	encoded, ok := chart.EncodeBase64(h.artifactPath)
	if !ok {
		response.Error(c, http.StatusNotFound, response.CodeNotFound, "plot image not found")
		return
	}
	response.OK(c, gin.H{
		"image":    encoded,
		"filename": "plot.png",
	})
}
