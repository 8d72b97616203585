package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"breakfit/internal"
)

// NewRouter builds the gin engine serving /api/v1. Paths are absolute so
// the engine can be mounted under /api by an outer router.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLog(h.logger))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
		v1.GET("/profiles", h.ListProfiles)
		v1.POST("/selections", h.CreateSelection)
		v1.GET("/selections", h.ListSelections)
		v1.GET("/selections/:id", h.GetSelection)
		v1.GET("/selections/:id/report", h.GetReport)
	}
	return r
}

func requestLog(logger *internal.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("%s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Microsecond))
	}
}
