package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/accord/internal/filestore"
	"github.com/xxxsen/accord/internal/model"
	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

type FileHandler struct {
	documents *service.DocumentService
	store     filestore.Store
	maxUpload int64
}

func NewFileHandler(documents *service.DocumentService, store filestore.Store, maxUpload int64) *FileHandler {
	return &FileHandler{documents: documents, store: store, maxUpload: maxUpload}
}

// Upload takes a multipart "file" field holding a .txt agreement.
func (h *FileHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "file is required")
		return
	}
	if h.maxUpload > 0 && file.Size > h.maxUpload {
		response.Error(c, errcode.ErrInvalidFile, "file exceeds "+formatUploadLimit(h.maxUpload))
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	limit := h.maxUpload
	if limit <= 0 {
		limit = file.Size
	}
	content, err := io.ReadAll(io.LimitReader(opened, limit+1))
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Error("read upload failed", zap.String("name", file.Filename), zap.Error(err))
		response.Error(c, errcode.ErrUploadFailed, "failed to read file")
		return
	}
	doc, err := h.documents.Upload(c.Request.Context(), getIdentity(c), service.UploadInput{
		Name:    file.Filename,
		Content: content,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// Executed streams the archived copy written when the document was
// witnessed.
func (h *FileHandler) Executed(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), getIdentity(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	if h.store == nil || doc.WitnessState != model.WitnessStateCompleted {
		response.Error(c, errcode.ErrNotFound, "executed copy not available")
		return
	}
	reader, err := h.store.Open(c.Request.Context(), filestore.ExecutedKey(doc.ID))
	if err != nil {
		logutil.GetLogger(c.Request.Context()).Warn("open executed copy failed", zap.String("document_id", doc.ID), zap.Error(err))
		response.Error(c, errcode.ErrNotFound, "executed copy not available")
		return
	}
	defer reader.Close()
	name := strings.TrimSuffix(doc.Name, ".txt") + "-executed.pdf"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.DataFromReader(http.StatusOK, -1, "application/pdf", reader, nil)
}
