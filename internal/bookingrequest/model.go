package bookingrequest

import (
	"net/http"
	"time"

	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
)

var (
	ErrNotFound          = apperror.New(http.StatusNotFound, "booking request not found")
	ErrInvalidTransition = apperror.New(http.StatusConflict, "invalid stage transition")
	ErrRequestExpired    = apperror.New(http.StatusGone, "booking request expired, please pick a new date")
	ErrTimeRequired      = apperror.New(http.StatusBadRequest, "a selected time is required for this stage")
	ErrActorRequired     = apperror.New(http.StatusBadRequest, "either a user id or a visitor id is required")
	ErrSubjectRequired   = apperror.New(http.StatusBadRequest, "exactly one of product id or package id is required")
	ErrInvalidDateRange  = apperror.New(http.StatusBadRequest, "date_from must not be after date_to")
)

// Stage is the funnel position of a booking request.
type Stage string

const (
	StageDateSelected    Stage = "date_selected"
	StageTimeSelected    Stage = "time_selected"
	StageCheckoutStarted Stage = "checkout_started"
	StagePaid            Stage = "paid"
	StageContacted       Stage = "contacted"
	StageExpired         Stage = "expired"
	StageCancelled       Stage = "cancelled"
)

// AvailabilityVersion snapshots which slot-offer tier the caller was shown
// at creation time. A caller who started under a promotional full tier is
// not retroactively denied when the offer window lapses; the next render
// shows a limited banner instead.
type AvailabilityVersion string

const (
	VersionFull    AvailabilityVersion = "full"
	VersionLimited AvailabilityVersion = "limited"
)

// transitions is the allowed edge set of the stage machine. Forward-only
// through the funnel; checkout_started may fall back to time_selected when
// a payment fails or is abandoned. Staff side exits are validated
// separately in StaffTransition.
var transitions = map[Stage][]Stage{
	StageDateSelected:    {StageTimeSelected, StageContacted, StageCancelled, StageExpired},
	StageTimeSelected:    {StageCheckoutStarted, StageContacted, StageCancelled, StageExpired},
	StageCheckoutStarted: {StagePaid, StageTimeSelected, StageContacted, StageCancelled, StageExpired},
	StageContacted:       {StageCancelled},
}

// CanTransition reports whether from -> to is an allowed edge.
func CanTransition(from, to Stage) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Terminal reports whether the stage is immutable. Contacted is a staff
// parking state, not terminal: it may still be cancelled.
func (s Stage) Terminal() bool {
	return s == StagePaid || s == StageExpired || s == StageCancelled
}

// AtLeastTimeSelected reports whether the stage implies a committed time
// choice.
func (s Stage) AtLeastTimeSelected() bool {
	switch s {
	case StageTimeSelected, StageCheckoutStarted, StagePaid:
		return true
	}
	return false
}

// BookingRequest is the durable record of one visitor's reservation
// attempt: which date and time they chose, how far through the funnel they
// got, and the payment session it eventually linked to.
type BookingRequest struct {
	ID string

	// Subject: exactly one of ProductID / PackageID is set.
	ProductID  *string
	PackageID  *string
	CampaignID *string

	// Actor: exactly one of UserID / VisitorID is set.
	UserID    *string
	VisitorID *string

	EventDate    time.Time // calendar date, timezone-naive
	Timezone     string    // caller's IANA zone, advisory only
	SelectedTime *string   // Format: HH:MM:SS, nil until chosen

	Stage               Stage
	AvailabilityVersion AvailabilityVersion

	OfferExpiresAt time.Time
	LastSeenAt     time.Time

	StripeCheckoutSessionID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OfferingID returns whichever offering reference the request carries.
func (r *BookingRequest) OfferingID() string {
	if r.ProductID != nil {
		return *r.ProductID
	}
	if r.PackageID != nil {
		return *r.PackageID
	}
	return ""
}

// Overdue reports whether the offer deadline has passed for a request that
// never reached a terminal stage.
func (r *BookingRequest) Overdue(now time.Time) bool {
	return !r.Stage.Terminal() && now.After(r.OfferExpiresAt)
}

// Filter defines parameters for the staff pipeline listing.
type Filter struct {
	Stage      string
	OfferingID string
	UserID     string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
