package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finadvisor/internal/app"
	"finadvisor/internal/transport/http/response"
)

const maxCSVSize = 2 << 20 // 2 MB

type PortfolioHandler struct {
	portfolioService *app.PortfolioService
}

type AdviseRequest struct {
	Question string `json:"question"`
}

func NewPortfolioHandler(portfolioService *app.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// UploadCSV accepts a multipart form with "file" (CSV of holdings) and
// optional "name"; re-uploading a name replaces that portfolio.
func (h *PortfolioHandler) UploadCSV(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxCSVSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 2MB)")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, ".csv")
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	summary, err := h.portfolioService.Import(c.Request.Context(), name, f)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrCSVFormat):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "import portfolio failed")
		}
		return
	}
	response.OK(c, summary)
}

func (h *PortfolioHandler) List(c *gin.Context) {
	names, err := h.portfolioService.ListPortfolios(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list portfolios failed")
		return
	}
	response.OK(c, gin.H{"portfolios": names})
}

func (h *PortfolioHandler) Summary(c *gin.Context) {
	summary, err := h.portfolioService.Summary(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writePortfolioError(c, err, "get portfolio failed")
		return
	}
	response.OK(c, summary)
}

func (h *PortfolioHandler) Delete(c *gin.Context) {
	name := c.Param("name")
	if err := h.portfolioService.Delete(c.Request.Context(), name); err != nil {
		h.writePortfolioError(c, err, "delete portfolio failed")
		return
	}
	response.OK(c, gin.H{"deleted_portfolio": name})
}

func (h *PortfolioHandler) Advise(c *gin.Context) {
	// the question is optional; an empty or missing body is fine
	var req AdviseRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.portfolioService.Advise(c.Request.Context(), c.Param("name"), req.Question)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) || errors.Is(err, app.ErrPortfolioNotFound) {
			h.writePortfolioError(c, err, "advise failed")
			return
		}
		writePipelineError(c, err, "advise failed")
		return
	}
	response.OK(c, result)
}

func (h *PortfolioHandler) writePortfolioError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	case errors.Is(err, app.ErrPortfolioNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}
