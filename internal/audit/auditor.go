// Package audit periodically re-checks the capacity invariant: for every
// slot window, active holds plus confirmed bookings must not exceed the
// effective capacity. Violations are reported, never auto-corrected;
// overbooked slots need a human decision.
package audit

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/booking"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/override"
	"github.com/lumen-studio/booking-engine/internal/pkg/metrics"
)

type Auditor struct {
	holds           hold.Repository
	bookings        booking.Repository
	offeringService offering.Service
	overrideService override.Service
	interval        time.Duration
	logger          *zap.Logger
}

func New(
	holds hold.Repository,
	bookings booking.Repository,
	offeringService offering.Service,
	overrideService override.Service,
	interval time.Duration,
	logger *zap.Logger,
) *Auditor {
	return &Auditor{
		holds:           holds,
		bookings:        bookings,
		offeringService: offeringService,
		overrideService: overrideService,
		interval:        interval,
		logger:          logger,
	}
}

// Start blocks until ctx is cancelled. Run it in its own goroutine.
func (a *Auditor) Start(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("capacity auditor shutting down")
			return
		case <-ticker.C:
			a.Run(ctx)
		}
	}
}

// Run performs one audit pass over every window that currently has active
// holds.
func (a *Auditor) Run(ctx context.Context) {
	now := time.Now().UTC()
	counts, err := a.holds.ActiveWindowCounts(ctx, now)
	if err != nil {
		a.logger.Error("capacity audit failed to list hold windows", zap.Error(err))
		return
	}

	violations := 0
	for _, wc := range counts {
		if a.check(ctx, wc) {
			violations++
		}
	}
	if violations > 0 {
		metrics.AuditViolations.Add(float64(violations))
	}
}

// check returns true when the window is over effective capacity.
func (a *Auditor) check(ctx context.Context, wc hold.WindowCount) bool {
	off, err := a.offeringService.GetByID(ctx, wc.OfferingID)
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			// Holds referencing a vanished offering are their own problem;
			// the sweeper will age them out.
			a.logger.Warn("audit found holds for unknown offering",
				zap.String("offeringID", wc.OfferingID))
			return false
		}
		a.logger.Error("capacity audit lookup failed", zap.Error(err))
		return false
	}

	capacity := off.SlotCapacity
	overrides, err := a.overrideService.ListForDate(ctx, wc.OfferingID, wc.WindowStart)
	if err != nil {
		a.logger.Error("capacity audit override lookup failed", zap.Error(err))
		return false
	}
	if _, capOverride := override.Effective(overrides, wc.WindowStart, wc.WindowEnd); capOverride != nil {
		capacity = *capOverride
	}

	booked, err := a.bookings.CountOverlapping(ctx, wc.OfferingID, wc.WindowStart, wc.WindowEnd)
	if err != nil {
		a.logger.Error("capacity audit booking count failed", zap.Error(err))
		return false
	}

	if wc.Holds+booked <= capacity {
		return false
	}

	a.logger.Error("capacity invariant violated",
		zap.String("offeringID", wc.OfferingID),
		zap.Time("windowStart", wc.WindowStart),
		zap.Time("windowEnd", wc.WindowEnd),
		zap.Int("holds", wc.Holds),
		zap.Int("bookings", booked),
		zap.Int("capacity", capacity))
	return true
}
