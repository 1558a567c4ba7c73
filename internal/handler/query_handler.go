package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kbrag/kbrag/internal/pkg/errcode"
	"github.com/kbrag/kbrag/internal/pkg/response"
	"github.com/kbrag/kbrag/internal/service"
)

type QueryHandler struct {
	rag *service.RAGService
}

type QueryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

func NewQueryHandler(rag *service.RAGService) *QueryHandler {
	return &QueryHandler{rag: rag}
}

func (h *QueryHandler) Answer(c *gin.Context) {
	var req QueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request body")
		return
	}
	answer, err := h.rag.Query(c.Request.Context(), req.Question, req.TopK)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, answer)
}
