package http

import (
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(g *gin.RouterGroup, h *Handler) {
	// No auth middleware: Stripe authenticates via the webhook signature.
	g.POST("/payments/webhook", h.Webhook)
}
