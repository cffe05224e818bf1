package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"videowall/internal/common"
	"videowall/internal/httpapi/handlers"
	"videowall/internal/httpapi/middleware"
)

func NewRouter(h *handlers.Handler) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Use(middleware.RequestID())

	r.GET("/api/health", h.Health)

	// task state
	r.GET("/api/task-status", h.TaskStatus)
	r.GET("/api/task-status/:task_id", h.TaskStatusByID)
	r.DELETE("/api/task/:task_id", h.DeleteTask)

	// generation
	r.POST("/generate", h.GeneratePrompts)
	r.POST("/api/generate-video", h.GenerateVideo)
	r.POST("/api/generate-videos", h.GenerateVideos)
	r.GET("/api/test-prompts", h.TestPrompts)
	r.GET("/api/test-connection", h.TestConnection)

	// media
	r.GET("/view", h.View)
	r.POST("/api/merge-videos", h.MergeVideos)
	r.Static("/static/output", h.Cfg.OutputDir)

	// voice
	r.POST("/test_voice", h.TestVoice)

	return r
}
