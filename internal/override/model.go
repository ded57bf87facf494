package override

import (
	"net/http"
	"time"

	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
)

var (
	ErrNotFound       = apperror.New(http.StatusNotFound, "override not found")
	ErrInvalidWindow  = apperror.New(http.StatusBadRequest, "window start must be before window end")
	ErrNothingToApply = apperror.New(http.StatusBadRequest, "override must set blackout or a capacity value")
)

// Override is an admin-entered availability rule for one offering and date:
// either a blackout (the date/window is not bookable at all) or a capacity
// replacement. A nil window scopes the rule to the whole day.
type Override struct {
	ID         string
	OfferingID string
	Date       time.Time // calendar date, midnight

	WindowStart *time.Time
	WindowEnd   *time.Time

	Blackout         bool
	CapacityOverride *int

	Note      string
	CreatedBy string
	CreatedAt time.Time
}

// AppliesTo reports whether the override covers the given slot window.
func (o *Override) AppliesTo(start, end time.Time) bool {
	if o.WindowStart == nil || o.WindowEnd == nil {
		return true // whole-day rule
	}
	return o.WindowStart.Before(end) && o.WindowEnd.After(start)
}

// Effective resolves a set of overrides against one slot window, in the
// derivation order the availability rules require: any applicable blackout
// wins; otherwise the first applicable capacity override replaces the
// offering default.
func Effective(overrides []*Override, start, end time.Time) (blackout bool, capacity *int) {
	for _, o := range overrides {
		if !o.AppliesTo(start, end) {
			continue
		}
		if o.Blackout {
			return true, nil
		}
		if capacity == nil && o.CapacityOverride != nil {
			capacity = o.CapacityOverride
		}
	}
	return false, capacity
}

// Filter defines parameters for listing overrides.
type Filter struct {
	OfferingID string
	DateFrom   *time.Time
	DateTo     *time.Time
	Page       int
	PageSize   int
}
