package http

import (
	"time"

	"github.com/lumen-studio/booking-engine/internal/override"
	"github.com/lumen-studio/booking-engine/internal/pkg/request"
)

// CreateOverrideRequest creates a blackout or capacity override for one
// offering-date. Window times are optional; omitting them applies the
// override to the whole day.
type CreateOverrideRequest struct {
	OfferingID       string     `json:"offering_id" binding:"required,uuid"`
	Date             string     `json:"date" binding:"required,datetime=2006-01-02"`
	WindowStart      *time.Time `json:"window_start" time_format:"2006-01-02T15:04:05Z07:00"`
	WindowEnd        *time.Time `json:"window_end" time_format:"2006-01-02T15:04:05Z07:00"`
	Blackout         bool       `json:"blackout"`
	CapacityOverride *int       `json:"capacity_override" binding:"omitempty,min=0"`
	Note             string     `json:"note" binding:"max=500"`
}

// ListOverridesRequest defines query parameters for listing overrides.
type ListOverridesRequest struct {
	request.ListParams
	OfferingID string     `form:"offering_id" binding:"omitempty,uuid"`
	DateFrom   *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"date_to" time_format:"2006-01-02"`
}

type OverrideResponse struct {
	ID               string     `json:"id"`
	OfferingID       string     `json:"offering_id"`
	Date             string     `json:"date"`
	WindowStart      *time.Time `json:"window_start,omitempty"`
	WindowEnd        *time.Time `json:"window_end,omitempty"`
	Blackout         bool       `json:"blackout"`
	CapacityOverride *int       `json:"capacity_override,omitempty"`
	Note             string     `json:"note,omitempty"`
	CreatedBy        string     `json:"created_by"`
	CreatedAt        time.Time  `json:"created_at"`
}

func NewOverrideResponse(o *override.Override) OverrideResponse {
	return OverrideResponse{
		ID:               o.ID,
		OfferingID:       o.OfferingID,
		Date:             o.Date.Format("2006-01-02"),
		WindowStart:      o.WindowStart,
		WindowEnd:        o.WindowEnd,
		Blackout:         o.Blackout,
		CapacityOverride: o.CapacityOverride,
		Note:             o.Note,
		CreatedBy:        o.CreatedBy,
		CreatedAt:        o.CreatedAt,
	}
}
