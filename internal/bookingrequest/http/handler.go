package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumen-studio/booking-engine/internal/availability"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/pkg/request"
	"github.com/lumen-studio/booking-engine/internal/pkg/response"
)

// Handler serves the staff pipeline: listing requests, moving them to
// contacted/cancelled, and inspecting or force-releasing their holds.
type Handler struct {
	service     bookingrequest.Service
	holdService hold.Service
	oracle      availability.Service
}

func NewHandler(service bookingrequest.Service, holdService hold.Service, oracle availability.Service) *Handler {
	return &Handler{service: service, holdService: holdService, oracle: oracle}
}

// List returns a filtered, paginated page of booking requests.
func (h *Handler) List(c *gin.Context) {
	var req ListRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}

	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 20
	}

	items, total, err := h.service.List(c.Request.Context(), bookingrequest.Filter{
		Stage:      req.Stage,
		OfferingID: req.OfferingID,
		UserID:     req.UserID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       page,
		PageSize:   pageSize,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]BookingRequestResponse, 0, len(items))
	for _, r := range items {
		resp = append(resp, NewBookingRequestResponse(r))
	}
	c.JSON(http.StatusOK, response.NewPageResponse(resp, page, pageSize, total))
}

// Get returns one request together with its derived availability status,
// so staff see needs_review cases inline.
func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	r, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	slot, err := h.oracle.GetRequestStatus(c.Request.Context(), r.OfferingID(), r.EventDate, r.SelectedTime)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request":      NewBookingRequestResponse(r),
		"availability": slot,
	})
}

// Transition moves a request to contacted or cancelled.
func (h *Handler) Transition(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}
	var body TransitionRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	r, err := h.service.StaffTransition(c.Request.Context(), uri.ID, bookingrequest.Stage(body.Stage))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewBookingRequestResponse(r))
}

// GetHold returns the request's active hold, if any.
func (h *Handler) GetHold(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	hd, err := h.holdService.GetActiveByRequestID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewHoldResponse(hd))
}

// ReleaseHold force-releases every active hold a request owns. Staff use
// this to free capacity stuck behind an abandoned checkout.
func (h *Handler) ReleaseHold(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.holdService.ReleaseForRequest(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
