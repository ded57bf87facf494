package booking

import (
	"net/http"
	"time"

	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
)

var (
	ErrNotFound = apperror.New(http.StatusNotFound, "booking not found")
)

// Booking is a confirmed, paid reservation of one unit of an offering's
// capacity for a concrete window. Rows are only ever written by the
// payment-completion path; the availability oracle counts them against
// capacity alongside active holds.
type Booking struct {
	ID               string
	BookingRequestID string
	OfferingID       string

	UserID    *string
	VisitorID *string

	WindowStart time.Time
	WindowEnd   time.Time

	CreatedAt time.Time
}
