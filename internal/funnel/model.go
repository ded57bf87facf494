package funnel

import (
	"net/http"
	"time"

	"github.com/lumen-studio/booking-engine/internal/auth"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
)

var (
	ErrSessionNotFound = apperror.New(http.StatusNotFound, "funnel session not found")
	ErrAuthRequired    = apperror.New(http.StatusUnauthorized, "authentication required to continue booking")
	ErrStaleResume     = apperror.New(http.StatusGone, "saved booking state is too old, please start again")
	ErrWrongStep       = apperror.New(http.StatusConflict, "action not valid for the current funnel step")
	ErrBadEnvelope     = apperror.New(http.StatusBadRequest, "invalid resume envelope")
)

// Mode distinguishes the booking flows. Campaign-backed flows gate on
// authentication immediately after date selection so anonymous callers
// cannot explore paid campaign inventory; the standard product flow gates
// only at the final checkout click.
type Mode string

const (
	ModeProduct             Mode = "product"
	ModeCampaignPackage     Mode = "campaign_package"
	ModeCampaignPricingCard Mode = "campaign_pricing_card"
)

// RequiresAuthAtDate reports whether the mode needs an authenticated actor
// before any availability check runs.
func (m Mode) RequiresAuthAtDate() bool {
	return m == ModeCampaignPackage || m == ModeCampaignPricingCard
}

func (m Mode) Valid() bool {
	switch m {
	case ModeProduct, ModeCampaignPackage, ModeCampaignPricingCard:
		return true
	}
	return false
}

// Step is the funnel position of one session.
type Step string

const (
	StepDate     Step = "date"
	StepChecking Step = "checking"
	StepSlots    Step = "slots"
	StepCheckout Step = "checkout"
)

// Session is the cooperative state of one caller's walk through the
// funnel. It lives in memory only; closing it never cancels the
// underlying booking request or its hold.
type Session struct {
	ID         string
	Mode       Mode
	OfferingID string
	CampaignID string
	Actor      auth.Actor
	Timezone   string

	Step              Step
	EventDate         time.Time
	CheckingStartedAt time.Time

	BookingRequestID string
	Version          bookingrequest.AvailabilityVersion

	CreatedAt time.Time
	UpdatedAt time.Time
}
