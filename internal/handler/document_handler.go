package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

type DocumentHandler struct {
	documents *service.DocumentService
}

func NewDocumentHandler(documents *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documents: documents}
}

type fileIDRequest struct {
	FileName string `json:"filename"`
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.documents.List(c.Request.Context(), getIdentity(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, docs)
}

func (h *DocumentHandler) Create(c *gin.Context) {
	var req service.CreateDocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	doc, err := h.documents.Create(c.Request.Context(), getIdentity(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.documents.Get(c.Request.Context(), getIdentity(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

// Update accepts any subset of content, collaborators and signatures.
func (h *DocumentHandler) Update(c *gin.Context) {
	var req service.DocumentUpdateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	doc, err := h.documents.Update(c.Request.Context(), getIdentity(c), c.Param("id"), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, doc)
}

func (h *DocumentHandler) FindID(c *gin.Context) {
	var req fileIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	id, err := h.documents.FindIDByName(c.Request.Context(), getIdentity(c), req.FileName)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"fileId": id})
}
