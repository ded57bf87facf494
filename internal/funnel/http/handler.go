package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumen-studio/booking-engine/internal/auth"
	"github.com/lumen-studio/booking-engine/internal/funnel"
	"github.com/lumen-studio/booking-engine/internal/pkg/response"
)

type Handler struct {
	service funnel.Service
}

func NewHandler(service funnel.Service) *Handler {
	return &Handler{service: service}
}

// Start opens a new funnel session.
func (h *Handler) Start(c *gin.Context) {
	var req StartFunnelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.Start(c.Request.Context(), funnel.StartInput{
		Mode:       funnel.Mode(req.Mode),
		OfferingID: req.OfferingID,
		CampaignID: req.CampaignID,
		Actor:      auth.GetActor(c),
		Timezone:   req.Timezone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewSessionResponse(sess))
}

// SelectDate records the event date. Campaign flows may answer with an
// auth_required payload instead of advancing.
func (h *Handler) SelectDate(c *gin.Context) {
	var req SelectDateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", req.EventDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: "invalid event_date"})
		return
	}

	res, err := h.service.SelectDate(c.Request.Context(), c.Param("id"), date, req.Timezone)
	if err != nil {
		response.Error(c, err)
		return
	}

	if res.AuthRequired {
		c.JSON(http.StatusUnauthorized, AuthRequiredResponse{AuthRequired: true, Pending: *res.Pending})
		return
	}
	c.JSON(http.StatusOK, NewSessionResponse(res.Session))
}

// Status is polled by the client through the checking step.
func (h *Handler) Status(c *gin.Context) {
	st, err := h.service.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStatusResponse(st))
}

// SelectSlot commits a slot choice.
func (h *Handler) SelectSlot(c *gin.Context) {
	var req SelectSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	st, err := h.service.SelectSlot(c.Request.Context(), c.Param("id"), req.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewStatusResponse(st))
}

// StartCheckout places the hold and returns the payment redirect.
func (h *Handler) StartCheckout(c *gin.Context) {
	res, authRes, err := h.service.StartCheckout(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if authRes != nil && authRes.AuthRequired {
		c.JSON(http.StatusUnauthorized, AuthRequiredResponse{AuthRequired: true, Pending: *authRes.Pending})
		return
	}

	c.JSON(http.StatusOK, CheckoutResponse{
		RedirectURL:   res.RedirectURL,
		HoldExpiresAt: res.HoldExpiresAt,
	})
}

// Resume restores a funnel from a persisted envelope after authentication.
func (h *Handler) Resume(c *gin.Context) {
	var req ResumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	sess, err := h.service.Resume(c.Request.Context(), req.Pending, auth.GetActor(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewSessionResponse(sess))
}

// Close discards the session without touching the booking request.
func (h *Handler) Close(c *gin.Context) {
	h.service.Close(c.Param("id"))
	c.Status(http.StatusNoContent)
}
