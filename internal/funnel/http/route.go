package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler, actorMiddleware gin.HandlerFunc) {
	group := g.Group("/funnel")

	// Anonymous visitors walk the funnel too; the middleware only resolves
	// whatever identity is present.
	group.Use(actorMiddleware)
	{
		group.POST("", h.Start)
		group.POST("/resume", h.Resume)
		group.GET("/:id", h.Status)
		group.POST("/:id/date", h.SelectDate)
		group.POST("/:id/slot", h.SelectSlot)
		group.POST("/:id/checkout", h.StartCheckout)
		group.DELETE("/:id", h.Close)
	}
}
