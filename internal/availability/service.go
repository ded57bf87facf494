package availability

import (
	"context"
	"errors"
	"time"

	"github.com/lumen-studio/booking-engine/internal/booking"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/override"
)

// Service is the availability oracle: a pure read over offering capacity,
// admin overrides, active holds and confirmed bookings. It never creates
// or mutates records, so repeated polling is safe and idempotent.
type Service interface {
	GetDayStatus(ctx context.Context, offeringID string, date time.Time) (*DayAvailability, error)
	GetSlotStatus(ctx context.Context, offeringID string, windowStart, windowEnd time.Time) (*SlotAvailability, error)

	// GetMonthStatus returns day statuses keyed by ISO date (2006-01-02)
	// for calendar rendering.
	GetMonthStatus(ctx context.Context, offeringID string, year int, month time.Month) (map[string]*DayAvailability, error)

	// GetRequestStatus derives the status a booking request's selection
	// currently has. A request without a selected time, or whose offering
	// can no longer be resolved, yields needs_review so staff tooling never
	// treats it as bookable.
	GetRequestStatus(ctx context.Context, offeringID string, date time.Time, selectedTime *string) (*SlotAvailability, error)
}

type service struct {
	offeringService offering.Service
	overrideService override.Service
	holdRepo        hold.Repository
	bookingRepo     booking.Repository
}

func NewService(
	offeringService offering.Service,
	overrideService override.Service,
	holdRepo hold.Repository,
	bookingRepo booking.Repository,
) Service {
	return &service{
		offeringService: offeringService,
		overrideService: overrideService,
		holdRepo:        holdRepo,
		bookingRepo:     bookingRepo,
	}
}

func needsReview(reason string) *SlotAvailability {
	return &SlotAvailability{Status: StatusNeedsReview, Reason: reason}
}

func (s *service) GetDayStatus(ctx context.Context, offeringID string, date time.Time) (*DayAvailability, error) {
	off, err := s.offeringService.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			return &DayAvailability{Date: date, Status: StatusNeedsReview, Reason: ReasonOfferingUnresolved}, nil
		}
		return nil, err
	}

	overrides, err := s.overrideService.ListForDate(ctx, offeringID, date)
	if err != nil {
		return nil, err
	}

	return s.dayStatus(ctx, off, date, overrides)
}

func (s *service) dayStatus(ctx context.Context, off *offering.Offering, date time.Time, overrides []*override.Override) (*DayAvailability, error) {
	windows, err := off.DaySlots(date)
	if err != nil {
		return nil, err
	}

	day := &DayAvailability{Date: date, Capacity: off.SlotCapacity}

	// A whole-day blackout blocks the date outright.
	for _, o := range overrides {
		if o.Blackout && o.WindowStart == nil {
			day.Status = StatusBlocked
			day.Reason = ReasonBlackout
			return day, nil
		}
	}

	for _, w := range windows {
		slot, err := s.slotStatus(ctx, off, overrides, w.Start, w.End)
		if err != nil {
			return nil, err
		}
		day.Slots = append(day.Slots, *slot)
		day.Used += slot.Used
	}

	day.Status = deriveDayStatus(day.Slots)
	if day.Status == StatusFull {
		day.Reason = ReasonCapacityReached
	}
	return day, nil
}

func (s *service) GetSlotStatus(ctx context.Context, offeringID string, windowStart, windowEnd time.Time) (*SlotAvailability, error) {
	off, err := s.offeringService.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			sa := needsReview(ReasonOfferingUnresolved)
			sa.WindowStart, sa.WindowEnd = windowStart, windowEnd
			return sa, nil
		}
		return nil, err
	}

	date := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, windowStart.Location())
	overrides, err := s.overrideService.ListForDate(ctx, offeringID, date)
	if err != nil {
		return nil, err
	}

	return s.slotStatus(ctx, off, overrides, windowStart, windowEnd)
}

func (s *service) slotStatus(ctx context.Context, off *offering.Offering, overrides []*override.Override, start, end time.Time) (*SlotAvailability, error) {
	blackout, capOverride := override.Effective(overrides, start, end)

	capacity := off.SlotCapacity
	if capOverride != nil {
		capacity = *capOverride
	}

	holds, err := s.holdRepo.CountActiveOverlapping(ctx, off.ID, start, end)
	if err != nil {
		return nil, err
	}
	bookings, err := s.bookingRepo.CountOverlapping(ctx, off.ID, start, end)
	if err != nil {
		return nil, err
	}
	used := holds + bookings

	status, reason := deriveSlotStatus(capacity, used, blackout)
	return &SlotAvailability{
		WindowStart:     start,
		WindowEnd:       end,
		Status:          status,
		Reason:          reason,
		Capacity:        capacity,
		Used:            used,
		OverrideApplied: blackout || capOverride != nil,
	}, nil
}

func (s *service) GetMonthStatus(ctx context.Context, offeringID string, year int, month time.Month) (map[string]*DayAvailability, error) {
	off, err := s.offeringService.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			return nil, offering.ErrNotFound
		}
		return nil, err
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	result := make(map[string]*DayAvailability)

	for date := first; date.Month() == month; date = date.AddDate(0, 0, 1) {
		overrides, err := s.overrideService.ListForDate(ctx, offeringID, date)
		if err != nil {
			return nil, err
		}
		day, err := s.dayStatus(ctx, off, date, overrides)
		if err != nil {
			return nil, err
		}
		result[date.Format("2006-01-02")] = day
	}

	return result, nil
}

func (s *service) GetRequestStatus(ctx context.Context, offeringID string, date time.Time, selectedTime *string) (*SlotAvailability, error) {
	if selectedTime == nil {
		return needsReview(ReasonNoTimeSelected), nil
	}

	off, err := s.offeringService.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			return needsReview(ReasonOfferingUnresolved), nil
		}
		return nil, err
	}

	w, err := off.WindowAt(date, *selectedTime)
	if err != nil {
		return needsReview(ReasonNoTimeSelected), nil
	}

	return s.GetSlotStatus(ctx, offeringID, w.Start, w.End)
}
