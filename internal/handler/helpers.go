package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbrag/kbrag/internal/ai"
	"github.com/kbrag/kbrag/internal/pkg/errcode"
	appErr "github.com/kbrag/kbrag/internal/pkg/errors"
	"github.com/kbrag/kbrag/internal/pkg/response"
)

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, errcode.ErrTooMany, "too many requests")
	case errors.Is(err, appErr.ErrEmptyIndex):
		response.Error(c, errcode.ErrEmptyIndex, "no documents indexed yet, upload documents first")
	case errors.Is(err, appErr.ErrUnsupportedFile):
		response.Error(c, errcode.ErrUnsupportedFileType, err.Error())
	case errors.Is(err, appErr.ErrExtraction):
		response.Error(c, errcode.ErrExtractionFailed, "failed to extract text from file")
	case errors.Is(err, appErr.ErrParseOutput):
		response.Error(c, errcode.ErrAnswerFailed, "failed to produce a structured answer")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, errcode.ErrAIUnavailable, "ai capability unavailable")
	default:
		response.Error(c, errcode.ErrInternal, "internal error")
	}
}
