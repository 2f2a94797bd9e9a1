package handler

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

type WitnessHandler struct {
	witness *service.WitnessService
}

func NewWitnessHandler(witness *service.WitnessService) *WitnessHandler {
	return &WitnessHandler{witness: witness}
}

type witnessRequest struct {
	FileName string `json:"fileName"`
}

func (h *WitnessHandler) Request(c *gin.Context) {
	var req witnessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	payload, err := h.witness.Request(c.Request.Context(), req.FileName)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, json.RawMessage(payload))
}
