package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbrag/kbrag/internal/middleware"
	"github.com/kbrag/kbrag/internal/pkg/response"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Query     *QueryHandler
	// QueryRateWindow throttles the query endpoint per client; zero disables.
	QueryRateWindow time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.GET("/health", healthCheck)
	api.GET("/documents", deps.Documents.List)
	api.POST("/documents/upload", deps.Documents.Upload)
	api.POST("/query", middleware.RateLimit(deps.QueryRateWindow), deps.Query.Answer)
}

func healthCheck(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
