package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumen-studio/booking-engine/internal/auth"
	"github.com/lumen-studio/booking-engine/internal/override"
	"github.com/lumen-studio/booking-engine/internal/pkg/request"
	"github.com/lumen-studio/booking-engine/internal/pkg/response"
)

type Handler struct {
	service override.Service
}

func NewHandler(service override.Service) *Handler {
	return &Handler{service: service}
}

// Create records a blackout or capacity override.
func (h *Handler) Create(c *gin.Context) {
	var req CreateOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	date, _ := time.Parse("2006-01-02", req.Date)
	o, err := h.service.Create(c.Request.Context(), override.CreateRequest{
		OfferingID:       req.OfferingID,
		Date:             date,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		Blackout:         req.Blackout,
		CapacityOverride: req.CapacityOverride,
		Note:             req.Note,
		CreatedBy:        auth.GetUserID(c),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewOverrideResponse(o))
}

// List returns a filtered, paginated page of overrides.
func (h *Handler) List(c *gin.Context) {
	var req ListOverridesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
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

	items, total, err := h.service.List(c.Request.Context(), override.Filter{
		OfferingID: req.OfferingID,
		DateFrom:   req.DateFrom,
		DateTo:     req.DateTo,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]OverrideResponse, 0, len(items))
	for _, o := range items {
		resp = append(resp, NewOverrideResponse(o))
	}
	c.JSON(http.StatusOK, response.NewPageResponse(resp, page, pageSize, total))
}

// Delete removes an override. Already-acquired holds are not revisited;
// the change only affects derivations from now on.
func (h *Handler) Delete(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	if err := h.service.Delete(c.Request.Context(), req.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
