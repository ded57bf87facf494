package availability

import "time"

// Status is the derived bookability of a day or slot. Derived on demand,
// never persisted.
type Status string

const (
	StatusAvailable   Status = "available"
	StatusLimited     Status = "limited"
	StatusFull        Status = "full"
	StatusBlocked     Status = "blocked"
	StatusNeedsReview Status = "needs_review"
)

// Reason codes attached to derived statuses, for staff tooling.
const (
	ReasonBlackout           = "admin_blackout"
	ReasonCapacityReached    = "capacity_reached"
	ReasonLastUnit           = "last_unit_remaining"
	ReasonOfferingUnresolved = "offering_unresolved"
	ReasonNoTimeSelected     = "no_time_selected"
)

// SlotAvailability is the derived state of one concrete slot window.
type SlotAvailability struct {
	WindowStart     time.Time `json:"window_start"`
	WindowEnd       time.Time `json:"window_end"`
	Status          Status    `json:"status"`
	Reason          string    `json:"reason,omitempty"`
	Capacity        int       `json:"capacity"`
	Used            int       `json:"used"`
	OverrideApplied bool      `json:"override_applied"`
}

// DayAvailability aggregates the slot statuses of one calendar date.
type DayAvailability struct {
	Date     time.Time          `json:"date"`
	Status   Status             `json:"status"`
	Reason   string             `json:"reason,omitempty"`
	Capacity int                `json:"capacity"`
	Used     int                `json:"used"`
	Slots    []SlotAvailability `json:"slots"`
}
