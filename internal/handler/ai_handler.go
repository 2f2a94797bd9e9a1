package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/accord/internal/pkg/errcode"
	"github.com/xxxsen/accord/internal/pkg/response"
	"github.com/xxxsen/accord/internal/service"
)

// AIHandler fronts the external analysis and drafting services.
type AIHandler struct {
	analysis   *service.AnalysisService
	generation *service.GenerationService
}

func NewAIHandler(analysis *service.AnalysisService, generation *service.GenerationService) *AIHandler {
	return &AIHandler{analysis: analysis, generation: generation}
}

type analyzeClauseRequest struct {
	Clause string `json:"clause"`
}

type generateRequest struct {
	Answers map[string]interface{} `json:"answers"`
}

func (h *AIHandler) Analyze(c *gin.Context) {
	var req service.AnalyzeDocumentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	out, err := h.analysis.AnalyzeDocument(c.Request.Context(), getIdentity(c), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}

// AnalyzeClause always answers with a readable analysis, falling back to a
// soft message when no analyzer is reachable.
func (h *AIHandler) AnalyzeClause(c *gin.Context) {
	var req analyzeClauseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	out, err := h.analysis.AnalyzeClause(c.Request.Context(), getIdentity(c), req.Clause)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}

func (h *AIHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	out, err := h.generation.Generate(c.Request.Context(), c.Param("kind"), req.Answers)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, out)
}
