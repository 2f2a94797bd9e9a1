package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

type ExportHandler struct {
	export *service.ExportService
}

func NewExportHandler(export *service.ExportService) *ExportHandler {
	return &ExportHandler{export: export}
}

type generatePDFRequest struct {
	Content  string `json:"content"`
	FileName string `json:"fileName"`
}

func (h *ExportHandler) ExportDocument(c *gin.Context) {
	fileName, data, err := h.export.ExportDocument(c.Request.Context(), getIdentity(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	writePDF(c, fileName, data)
}

// GeneratePDF renders text the client already holds, without storing it.
func (h *ExportHandler) GeneratePDF(c *gin.Context) {
	var req generatePDFRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(c, errcode.ErrInvalid, "content is required")
		return
	}
	data, err := h.export.Render(c.Request.Context(), req.FileName, req.Content)
	if err != nil {
		handleError(c, err)
		return
	}
	name := strings.TrimSuffix(strings.TrimSpace(req.FileName), ".txt")
	if name == "" {
		name = "agreement"
	}
	writePDF(c, name+".pdf", data)
}

func writePDF(c *gin.Context, fileName string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/pdf", data)
}
