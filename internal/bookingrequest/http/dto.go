package http

import (
	"time"

	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/pkg/request"
)

// ListRequestsRequest defines query parameters for the staff pipeline list.
type ListRequestsRequest struct {
	request.ListParams
	Stage      string     `form:"stage" binding:"omitempty,oneof=date_selected time_selected checkout_started paid contacted expired cancelled"`
	OfferingID string     `form:"offering_id" binding:"omitempty,uuid"`
	UserID     string     `form:"user_id" binding:"omitempty"`
	DateFrom   *time.Time `form:"date_from" time_format:"2006-01-02"`
	DateTo     *time.Time `form:"date_to" time_format:"2006-01-02"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=event_date created_at last_seen_at stage"`
	SortOrder  string     `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// Validate performs custom validation for ListRequestsRequest.
func (r *ListRequestsRequest) Validate() error {
	if r.DateFrom != nil && r.DateTo != nil && r.DateFrom.After(*r.DateTo) {
		return bookingrequest.ErrInvalidDateRange
	}
	return nil
}

// TransitionRequest moves a request to a staff-reachable stage.
type TransitionRequest struct {
	Stage string `json:"stage" binding:"required,oneof=contacted cancelled"`
}

type BookingRequestResponse struct {
	ID                  string  `json:"id"`
	ProductID           *string `json:"product_id,omitempty"`
	PackageID           *string `json:"package_id,omitempty"`
	CampaignID          *string `json:"campaign_id,omitempty"`
	UserID              *string `json:"user_id,omitempty"`
	VisitorID           *string `json:"visitor_id,omitempty"`
	EventDate           string  `json:"event_date"`
	Timezone            string  `json:"timezone,omitempty"`
	SelectedTime        *string `json:"selected_time,omitempty"`
	Stage               string  `json:"stage"`
	AvailabilityVersion string  `json:"availability_version"`
	OfferExpiresAt      time.Time `json:"offer_expires_at"`
	LastSeenAt          time.Time `json:"last_seen_at"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func NewBookingRequestResponse(r *bookingrequest.BookingRequest) BookingRequestResponse {
	return BookingRequestResponse{
		ID:                  r.ID,
		ProductID:           r.ProductID,
		PackageID:           r.PackageID,
		CampaignID:          r.CampaignID,
		UserID:              r.UserID,
		VisitorID:           r.VisitorID,
		EventDate:           r.EventDate.Format("2006-01-02"),
		Timezone:            r.Timezone,
		SelectedTime:        r.SelectedTime,
		Stage:               string(r.Stage),
		AvailabilityVersion: string(r.AvailabilityVersion),
		OfferExpiresAt:      r.OfferExpiresAt,
		LastSeenAt:          r.LastSeenAt,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

type HoldResponse struct {
	ID               string    `json:"id"`
	BookingRequestID string    `json:"booking_request_id"`
	OfferingID       string    `json:"offering_id"`
	WindowStart      time.Time `json:"window_start"`
	WindowEnd        time.Time `json:"window_end"`
	Status           string    `json:"status"`
	ExpiresAt        time.Time `json:"expires_at"`
}

func NewHoldResponse(h *hold.Hold) HoldResponse {
	return HoldResponse{
		ID:               h.ID,
		BookingRequestID: h.BookingRequestID,
		OfferingID:       h.OfferingID,
		WindowStart:      h.WindowStart,
		WindowEnd:        h.WindowEnd,
		Status:           string(h.Status),
		ExpiresAt:        h.ExpiresAt,
	}
}
