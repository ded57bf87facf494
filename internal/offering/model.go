package offering

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
)

var (
	ErrNotFound     = apperror.New(http.StatusNotFound, "offering not found")
	ErrInvalidClock = apperror.New(http.StatusBadRequest, "invalid time of day, expected HH:MM or HH:MM:SS")
	ErrOutsideHours = apperror.New(http.StatusBadRequest, "time is outside the offering's operating window")
)

type Kind string

const (
	KindProduct         Kind = "product"
	KindCampaignPackage Kind = "campaign_package"
)

// Offering is a bookable studio service: a standalone product or a
// promotional-campaign package. Owned by the content-management subsystem;
// this engine reads it but never writes it.
type Offering struct {
	ID         string
	Name       string
	Kind       Kind
	CampaignID *string // set when Kind is campaign_package

	// Daily operating window in the studio's local clock.
	DayStart string // Format: HH:MM:SS
	DayEnd   string // Format: HH:MM:SS

	SlotDurationMinutes int
	SlotCapacity        int

	PriceCents int64
	Currency   string

	Active    bool
	CreatedAt time.Time
}

// Window is a concrete slot time range on a given date.
type Window struct {
	Start time.Time
	End   time.Time
}

// Filter defines parameters for listing offerings.
type Filter struct {
	Kind       string
	CampaignID string
	ActiveOnly bool
	Page       int
	PageSize   int
}

// ParseClock parses a HH:MM or HH:MM:SS string into hours and minutes.
func ParseClock(s string) (hour, minute int, err error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, 0, ErrInvalidClock
	}
	if _, err := fmt.Sscanf(parts[0]+":"+parts[1], "%d:%d", &hour, &minute); err != nil {
		return 0, 0, ErrInvalidClock
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, ErrInvalidClock
	}
	return hour, minute, nil
}

// clockOn anchors a HH:MM[:SS] clock string onto the given calendar date.
func clockOn(date time.Time, clock string) (time.Time, error) {
	h, m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), h, m, 0, 0, date.Location()), nil
}

// DaySlots generates the offering's slot grid for a calendar date, stepping
// from DayStart with the configured slot duration. Slots that would run
// past DayEnd are dropped.
func (o *Offering) DaySlots(date time.Time) ([]Window, error) {
	open, err := clockOn(date, o.DayStart)
	if err != nil {
		return nil, err
	}
	closeAt, err := clockOn(date, o.DayEnd)
	if err != nil {
		return nil, err
	}

	step := time.Duration(o.SlotDurationMinutes) * time.Minute
	if step <= 0 {
		return nil, fmt.Errorf("offering %s has non-positive slot duration", o.ID)
	}

	var slots []Window
	for cur := open; cur.Before(closeAt); cur = cur.Add(step) {
		end := cur.Add(step)
		if end.After(closeAt) {
			break
		}
		slots = append(slots, Window{Start: cur, End: end})
	}
	return slots, nil
}

// WindowAt anchors a selected time-of-day onto a date and returns the
// concrete slot window. The clock must land inside the operating window.
func (o *Offering) WindowAt(date time.Time, clock string) (Window, error) {
	start, err := clockOn(date, clock)
	if err != nil {
		return Window{}, err
	}

	open, err := clockOn(date, o.DayStart)
	if err != nil {
		return Window{}, err
	}
	closeAt, err := clockOn(date, o.DayEnd)
	if err != nil {
		return Window{}, err
	}

	end := start.Add(time.Duration(o.SlotDurationMinutes) * time.Minute)
	if start.Before(open) || end.After(closeAt) {
		return Window{}, ErrOutsideHours
	}
	return Window{Start: start, End: end}, nil
}
