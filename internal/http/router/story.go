package router

import (
	"github.com/gin-gonic/gin"

	"dealerops.dev/storyline/internal/http/handler"
)

func StoryRouter(router *gin.RouterGroup, story *handler.StoryHandler, logs *handler.StoryLogHandler) {
	router.POST("", story.Generate)
	router.GET("/logs", logs.List)
	router.GET("/logs/:id", logs.GetByID)
}
