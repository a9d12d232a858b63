package router

import (
	"github.com/gin-gonic/gin"

	"dealerops.dev/storyline/internal/generate"
	"dealerops.dev/storyline/internal/http/handler"
	"dealerops.dev/storyline/internal/store"
)

func SetupRoutes(router *gin.Engine, generator generate.Service, logs store.StoryLogStore) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		storyHandler := handler.NewStoryHandler(generator)
		logHandler := handler.NewStoryLogHandler(logs)
		StoryRouter(v1.Group("/story"), storyHandler, logHandler)
	}
}
