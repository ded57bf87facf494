package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, actorMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/overrides")

	// === Staff Routes ===
	group.Use(actorMiddleware, staffMiddleware)
	{
		group.GET("", h.List)
		group.POST("", h.Create)
		group.DELETE("/:id", h.Delete)
	}
}
