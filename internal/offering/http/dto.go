package http

import (
	"time"

	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/pkg/request"
)

// ListOfferingsRequest defines query parameters for listing offerings.
type ListOfferingsRequest struct {
	request.ListParams
	Kind       string `form:"kind" binding:"omitempty,oneof=product campaign_package"`
	CampaignID string `form:"campaign_id" binding:"omitempty,uuid"`
	ActiveOnly bool   `form:"active_only"`
}

type OfferingResponse struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Kind                string    `json:"kind"`
	CampaignID          *string   `json:"campaign_id,omitempty"`
	DayStart            string    `json:"day_start"`
	DayEnd              string    `json:"day_end"`
	SlotDurationMinutes int       `json:"slot_duration_minutes"`
	SlotCapacity        int       `json:"slot_capacity"`
	PriceCents          int64     `json:"price_cents"`
	Currency            string    `json:"currency"`
	Active              bool      `json:"active"`
	CreatedAt           time.Time `json:"created_at"`
}

func NewOfferingResponse(o *offering.Offering) OfferingResponse {
	return OfferingResponse{
		ID:                  o.ID,
		Name:                o.Name,
		Kind:                string(o.Kind),
		CampaignID:          o.CampaignID,
		DayStart:            o.DayStart,
		DayEnd:              o.DayEnd,
		SlotDurationMinutes: o.SlotDurationMinutes,
		SlotCapacity:        o.SlotCapacity,
		PriceCents:          o.PriceCents,
		Currency:            o.Currency,
		Active:              o.Active,
		CreatedAt:           o.CreatedAt,
	}
}
