package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/pkg/request"
	"github.com/lumen-studio/booking-engine/internal/pkg/response"
)

type Handler struct {
	service offering.Service
}

func NewHandler(service offering.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Get(c *gin.Context) {
	var req request.ByIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	o, err := h.service.GetByID(c.Request.Context(), req.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewOfferingResponse(o))
}

func (h *Handler) List(c *gin.Context) {
	var req ListOfferingsRequest
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

	items, total, err := h.service.List(c.Request.Context(), offering.Filter{
		Kind:       req.Kind,
		CampaignID: req.CampaignID,
		ActiveOnly: req.ActiveOnly,
		Page:       page,
		PageSize:   pageSize,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	resp := make([]OfferingResponse, 0, len(items))
	for _, o := range items {
		resp = append(resp, NewOfferingResponse(o))
	}
	c.JSON(http.StatusOK, response.NewPageResponse(resp, page, pageSize, total))
}
