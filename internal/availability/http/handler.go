package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lumen-studio/booking-engine/internal/availability"
	"github.com/lumen-studio/booking-engine/internal/pkg/response"
)

type Handler struct {
	service availability.Service
}

func NewHandler(service availability.Service) *Handler {
	return &Handler{service: service}
}

// GetDay returns the derived day status with its slot breakdown.
func (h *Handler) GetDay(c *gin.Context) {
	var q DayQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}
	day, err := h.service.GetDayStatus(c.Request.Context(), q.OfferingID, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, day)
}

// GetSlot returns the derived status of one slot window.
func (h *Handler) GetSlot(c *gin.Context) {
	var q SlotQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", q.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}
	slot, err := h.service.GetRequestStatus(c.Request.Context(), q.OfferingID, date, &q.Time)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, slot)
}

// GetMonth returns day statuses for a whole month, keyed by ISO date.
// Used by calendar views to paint the grid in one round trip.
func (h *Handler) GetMonth(c *gin.Context) {
	var q MonthQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}

	month, err := time.Parse("2006-01", q.Month)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse{Error: err.Error()})
		return
	}
	days, err := h.service.GetMonthStatus(c.Request.Context(), q.OfferingID, month.Year(), month.Month())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"days": days})
}
