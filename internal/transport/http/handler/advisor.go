package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"finadvisor/internal/ai"
	"finadvisor/internal/app"
	"finadvisor/internal/index"
	"finadvisor/internal/transport/http/response"
)

type AdvisorHandler struct {
	advisorService *app.AdvisorService
}

type AskRequest struct {
	Question string `json:"question" binding:"required"`
	TopK     int    `json:"top_k"`
}

func NewAdvisorHandler(advisorService *app.AdvisorService) *AdvisorHandler {
	return &AdvisorHandler{advisorService: advisorService}
}

func (h *AdvisorHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.advisorService.Ask(c.Request.Context(), app.AskInput{
		Question: req.Question,
		TopK:     req.TopK,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
			return
		}
		writePipelineError(c, err, "ask failed")
		return
	}
	response.OK(c, result)
}

// writePipelineError maps retrieval-chain failures to distinct codes so an
// embedding outage and an index outage are distinguishable at the boundary.
func writePipelineError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, ai.ErrEmbeddingService):
		response.Error(c, http.StatusBadGateway, response.CodeEmbeddingService, "embedding service unavailable")
	case errors.Is(err, index.ErrIndexUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.CodeIndexUnavailable, "vector index unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
