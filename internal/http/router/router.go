package router

import (
	"flowforge.app/forge/internal/http/handler"
	"flowforge.app/forge/internal/service"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	IsProduction bool
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		workflowHandler := handler.NewWorkflowHandler(services.Workflows())
		WorkflowRouter(v1.Group("/workflows"), workflowHandler)
	}
}
