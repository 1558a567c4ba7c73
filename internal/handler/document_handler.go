package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbrag/kbrag/internal/pkg/errcode"
	"github.com/kbrag/kbrag/internal/pkg/response"
	"github.com/kbrag/kbrag/internal/service"
)

type DocumentHandler struct {
	ingest *service.IngestService
}

func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

func (h *DocumentHandler) List(c *gin.Context) {
	limit, _ := strconv.ParseUint(c.DefaultQuery("limit", "0"), 10, 32)
	offset, _ := strconv.ParseUint(c.DefaultQuery("offset", "0"), 10, 32)
	docs, err := h.ingest.ListDocuments(c.Request.Context(), uint(limit), uint(offset))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"documents": docs})
}

func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, errcode.ErrInvalidFile, "invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		response.Error(c, errcode.ErrInvalidFile, "no files provided")
		return
	}

	files := make([]service.UploadFile, 0, len(headers))
	for _, header := range headers {
		opened, err := header.Open()
		if err != nil {
			response.Error(c, errcode.ErrInvalidFile, "failed to open uploaded file")
			return
		}
		defer opened.Close()
		files = append(files, service.UploadFile{
			Name: header.Filename,
			Size: header.Size,
			Data: opened,
		})
	}

	results := h.ingest.IngestAll(c.Request.Context(), files)
	response.Success(c, gin.H{"uploaded": results})
}
