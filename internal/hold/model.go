package hold

import (
	"net/http"
	"time"

	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
)

var (
	ErrSlotUnavailable = apperror.New(http.StatusConflict, "slot no longer available")
	ErrNotFound        = apperror.New(http.StatusNotFound, "hold not found")
	ErrAlreadyExpired  = apperror.New(http.StatusGone, "hold already expired")
	ErrOfferingMissing = apperror.New(http.StatusUnprocessableEntity, "offering cannot be resolved")
)

type Status string

const (
	StatusActive   Status = "active"
	StatusReleased Status = "released"
	StatusExpired  Status = "expired"
)

// Hold is a time-boxed exclusive claim on one unit of an offering's
// capacity for a concrete window. Exclusivity is enforced at the data
// store: the capacity check and the insert commit as one transaction, so
// availability readers see the claimed unit immediately.
//
// A hold's life is independent of its booking request: it can expire while
// the request stays at time_selected, at which point the freed capacity is
// visible to the next availability read.
type Hold struct {
	ID               string
	BookingRequestID string
	OfferingID       string

	WindowStart time.Time
	WindowEnd   time.Time

	Status    Status
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ActiveAt reports whether the hold still claims capacity at the given
// instant. Expiry is lazy: a row can be status=active in storage yet no
// longer count, until the sweeper flips it.
func (h *Hold) ActiveAt(t time.Time) bool {
	return h.Status == StatusActive && h.ExpiresAt.After(t)
}

// WindowCount is one offering window with its active hold count, produced
// for the capacity audit.
type WindowCount struct {
	OfferingID  string
	WindowStart time.Time
	WindowEnd   time.Time
	Holds       int
}
