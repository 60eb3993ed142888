package router

import (
	"flowforge.app/forge/internal/http/handler"
	"github.com/gin-gonic/gin"
)

func WorkflowRouter(router *gin.RouterGroup, handler *handler.WorkflowHandler) {
	router.POST("", handler.Create)
	router.POST("/generate", handler.Generate)
	router.GET("", handler.List)
	router.GET("/:id", handler.Get)
	router.POST("/:id/stages", handler.AddStage)
	router.DELETE("/:id/stages/:stageID", handler.RemoveStage)
	router.GET("/:id/gaps", handler.Gaps)
	router.GET("/:id/questions", handler.Questions)
	router.POST("/:id/answers", handler.Answers)
	router.POST("/:id/save", handler.Save)
}
