package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, actorMiddleware, staffMiddleware gin.HandlerFunc) {
	group := g.Group("/booking-requests")

	// === Staff Routes ===
	group.Use(actorMiddleware, staffMiddleware)
	{
		group.GET("", h.List)
		group.GET("/:id", h.Get)
		group.POST("/:id/transition", h.Transition)
		group.GET("/:id/hold", h.GetHold)
		group.DELETE("/:id/hold", h.ReleaseHold)
	}
}
