package router

import (
	"basegraph.app/intake/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func BugReportRouter(rg *gin.RouterGroup, h *handler.BugReportHandler) {
	rg.POST("", h.Chat)
	rg.POST("/reset", h.Reset)
}
