package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"finadvisor/internal/app"
	"finadvisor/internal/pkg/pdfextract"
	"finadvisor/internal/transport/http/response"
)

const maxPDFSize = 10 << 20 // 10 MB

type DocumentHandler struct {
	docService *app.DocumentService
}

type IngestTextRequest struct {
	Name    string `json:"name"`
	Content string `json:"content" binding:"required"`
}

func NewDocumentHandler(docService *app.DocumentService) *DocumentHandler {
	return &DocumentHandler{docService: docService}
}

// UploadPDF accepts a multipart form with "file" (PDF) and optional "name",
// extracts the text and ingests it into the vector index.
func (h *DocumentHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if file.Size > maxPDFSize {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file too large (max 10MB)")
		return
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".pdf" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "only PDF files are allowed")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()

	text, err := pdfextract.ExtractText(f)
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to extract text from PDF: "+err.Error())
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "PDF contains no extractable text")
		return
	}

	name := strings.TrimSpace(c.PostForm("name"))
	if name == "" {
		name = strings.TrimSuffix(file.Filename, filepath.Ext(file.Filename))
	}

	result, err := h.docService.Ingest(c.Request.Context(), name, text)
	if err != nil {
		writeIngestError(c, err)
		return
	}
	response.OK(c, result)
}

// IngestText ingests raw text supplied as JSON, for non-PDF content.
func (h *DocumentHandler) IngestText(c *gin.Context) {
	var req IngestTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.docService.Ingest(c.Request.Context(), req.Name, req.Content)
	if err != nil {
		writeIngestError(c, err)
		return
	}
	response.OK(c, result)
}

func (h *DocumentHandler) ListSources(c *gin.Context) {
	sources, err := h.docService.ListSources(c.Request.Context())
	if err != nil {
		writePipelineError(c, err, "list documents failed")
		return
	}
	response.OK(c, gin.H{"sources": sources})
}

func (h *DocumentHandler) DeleteSource(c *gin.Context) {
	sourceID := c.Param("id")
	if err := h.docService.DeleteSource(c.Request.Context(), sourceID); err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid source id")
			return
		}
		writePipelineError(c, err, "delete document failed")
		return
	}
	response.OK(c, gin.H{"deleted_source_id": sourceID})
}

func writeIngestError(c *gin.Context, err error) {
	if errors.Is(err, app.ErrInvalidInput) {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		return
	}
	writePipelineError(c, err, "ingest failed: "+err.Error())
}
