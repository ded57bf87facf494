package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	group := g.Group("/availability")
	{
		group.GET("/day", h.GetDay)
		group.GET("/slot", h.GetSlot)
		group.GET("/month", h.GetMonth)
	}
}
