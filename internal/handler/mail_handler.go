package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

type MailHandler struct {
	mail *service.MailService
}

func NewMailHandler(mail *service.MailService) *MailHandler {
	return &MailHandler{mail: mail}
}

func (h *MailHandler) Send(c *gin.Context) {
	var req service.SendMailInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if err := h.mail.SendToCollaborators(c.Request.Context(), req); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"sent": len(req.Recipients)})
}
