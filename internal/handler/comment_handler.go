package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

type CommentHandler struct {
	comments *service.CommentService
}

func NewCommentHandler(comments *service.CommentService) *CommentHandler {
	return &CommentHandler{comments: comments}
}

func (h *CommentHandler) List(c *gin.Context) {
	forest, err := h.comments.List(c.Request.Context(), getIdentity(c), c.Query("fileId"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, forest)
}

func (h *CommentHandler) Add(c *gin.Context) {
	var req service.AddCommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	comment, err := h.comments.Add(c.Request.Context(), getIdentity(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, comment)
}

func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.comments.Delete(c.Request.Context(), getIdentity(c), c.Query("commentId")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}
