package router

import (
	"basegraph.app/intake/internal/http/handler"
	"basegraph.app/intake/internal/service"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	ServiceName string
	Version     string
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	health := handler.NewHealthHandler(cfg.ServiceName, cfg.Version)
	router.GET("/health", health.Health)
	router.GET("/", health.Root)

	v1 := router.Group("/api/v1")
	{
		bugReportHandler := handler.NewBugReportHandler(services.Conversation())
		BugReportRouter(v1.Group("/bug-report-chat"), bugReportHandler)
	}
}
