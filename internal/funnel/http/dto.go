package http

import (
	"time"

	"github.com/lumen-studio/booking-engine/internal/availability"
	"github.com/lumen-studio/booking-engine/internal/funnel"
)

// StartFunnelRequest opens a booking funnel session.
type StartFunnelRequest struct {
	Mode       string `json:"mode" binding:"required,oneof=product campaign_package campaign_pricing_card"`
	OfferingID string `json:"offering_id" binding:"required,uuid"`
	CampaignID string `json:"campaign_id" binding:"omitempty,uuid"`
	Timezone   string `json:"timezone" binding:"omitempty,timezone"`
}

// SelectDateRequest records the caller's chosen event date.
type SelectDateRequest struct {
	EventDate string `json:"event_date" binding:"required,datetime=2006-01-02"`
	Timezone  string `json:"timezone" binding:"omitempty,timezone"`
}

// SelectSlotRequest commits a slot choice, as a wall clock like "14:00:00".
type SelectSlotRequest struct {
	Time string `json:"time" binding:"required,datetime=15:04:05"`
}

// ResumeRequest carries the envelope persisted before an auth redirect.
type ResumeRequest struct {
	Pending funnel.PendingBooking `json:"pending" binding:"required"`
}

type SessionResponse struct {
	ID         string `json:"id"`
	Mode       string `json:"mode"`
	OfferingID string `json:"offering_id"`
	CampaignID string `json:"campaign_id,omitempty"`
	Step       string `json:"step"`
	EventDate  string `json:"event_date,omitempty"`
}

func NewSessionResponse(s *funnel.Session) SessionResponse {
	resp := SessionResponse{
		ID:         s.ID,
		Mode:       string(s.Mode),
		OfferingID: s.OfferingID,
		CampaignID: s.CampaignID,
		Step:       string(s.Step),
	}
	if !s.EventDate.IsZero() {
		resp.EventDate = s.EventDate.Format("2006-01-02")
	}
	return resp
}

// AuthRequiredResponse tells the client to authenticate and keep the
// envelope for a later resume.
type AuthRequiredResponse struct {
	AuthRequired bool                  `json:"auth_required"`
	Pending      funnel.PendingBooking `json:"pending"`
}

type StatusResponse struct {
	Step            string                        `json:"step"`
	EventDate       string                        `json:"event_date,omitempty"`
	RemainingWaitMS int64                         `json:"remaining_wait_ms,omitempty"`
	Day             *availability.DayAvailability `json:"day,omitempty"`
	Version         string                        `json:"availability_version,omitempty"`
	RequestID       string                        `json:"booking_request_id,omitempty"`
}

func NewStatusResponse(st *funnel.Status) StatusResponse {
	resp := StatusResponse{
		Step:            string(st.Step),
		RemainingWaitMS: st.RemainingWaitMS,
		Day:             st.Day,
		Version:         string(st.Version),
		RequestID:       st.RequestID,
	}
	if st.EventDate != nil {
		resp.EventDate = st.EventDate.Format("2006-01-02")
	}
	return resp
}

type CheckoutResponse struct {
	RedirectURL   string    `json:"redirect_url"`
	HoldExpiresAt time.Time `json:"hold_expires_at"`
}
