package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/checkout"
)

// Handler receives payment-completion notifications from Stripe.
type Handler struct {
	service       checkout.Service
	webhookSecret string
	logger        *zap.Logger
}

func NewHandler(service checkout.Service, webhookSecret string, logger *zap.Logger) *Handler {
	return &Handler{service: service, webhookSecret: webhookSecret, logger: logger}
}

// Webhook handles checkout.session.completed and checkout.session.expired.
// The stage only advances on an explicit success signal; delivery failures
// are retried by Stripe, so handlers must be idempotent.
func (h *Handler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, 65536))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read payload"})
		return
	}

	var event stripe.Event
	if h.webhookSecret != "" {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.webhookSecret)
		if err != nil {
			h.logger.Warn("webhook signature verification failed", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
			return
		}
	} else {
		// Dev mode without a webhook secret: accept unverified payloads.
		if err := json.Unmarshal(payload, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
			return
		}
	}

	switch event.Type {
	case "checkout.session.completed":
		h.handleSession(c, event, func(requestID, sessionID string) error {
			return h.service.CompletePayment(c.Request.Context(), requestID, sessionID)
		})
	case "checkout.session.expired":
		h.handleSession(c, event, func(requestID, _ string) error {
			return h.service.FailPayment(c.Request.Context(), requestID)
		})
	default:
		// Unhandled event types are acknowledged so Stripe stops retrying.
		c.Status(http.StatusOK)
	}
}

func (h *Handler) handleSession(c *gin.Context, event stripe.Event, apply func(requestID, sessionID string) error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session payload"})
		return
	}

	requestID := sess.ClientReferenceID
	if requestID == "" {
		requestID = sess.Metadata["booking_request_id"]
	}
	if requestID == "" {
		h.logger.Error("webhook session without booking request reference",
			zap.String("sessionID", sess.ID))
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing booking request reference"})
		return
	}

	if err := apply(requestID, sess.ID); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("requestID", requestID),
			zap.String("eventType", string(event.Type)),
			zap.Error(err))
		// Non-2xx makes Stripe retry delivery.
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}

	c.Status(http.StatusOK)
}
