package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/booking"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/override"
)

type fakeHoldRepo struct {
	counts []hold.WindowCount
}

func (f *fakeHoldRepo) Acquire(ctx context.Context, h *hold.Hold, capacity int) error { return nil }
func (f *fakeHoldRepo) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}
func (f *fakeHoldRepo) GetActiveByRequestID(ctx context.Context, requestID string) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}
func (f *fakeHoldRepo) Renew(ctx context.Context, id string, expiresAt time.Time) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}
func (f *fakeHoldRepo) Release(ctx context.Context, id string) error              { return nil }
func (f *fakeHoldRepo) ReleaseTx(ctx context.Context, tx pgx.Tx, id string) error { return nil }
func (f *fakeHoldRepo) ReleaseByRequestID(ctx context.Context, requestID string) error {
	return nil
}
func (f *fakeHoldRepo) CountActiveOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	return 0, nil
}
func (f *fakeHoldRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}
func (f *fakeHoldRepo) ActiveWindowCounts(ctx context.Context, now time.Time) ([]hold.WindowCount, error) {
	return f.counts, nil
}

type fakeBookingRepo struct {
	count int
}

func (f *fakeBookingRepo) CreateTx(ctx context.Context, tx pgx.Tx, b *booking.Booking) error {
	return nil
}
func (f *fakeBookingRepo) GetByRequestID(ctx context.Context, requestID string) (*booking.Booking, error) {
	return nil, booking.ErrNotFound
}
func (f *fakeBookingRepo) CountOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	return f.count, nil
}

type fakeOfferings struct {
	offering *offering.Offering
}

func (f *fakeOfferings) GetByID(ctx context.Context, id string) (*offering.Offering, error) {
	if f.offering == nil || f.offering.ID != id {
		return nil, offering.ErrNotFound
	}
	return f.offering, nil
}
func (f *fakeOfferings) List(ctx context.Context, filter offering.Filter) ([]*offering.Offering, int, error) {
	return nil, 0, nil
}

type fakeOverrides struct {
	rows []*override.Override
}

func (f *fakeOverrides) Create(ctx context.Context, req override.CreateRequest) (*override.Override, error) {
	return nil, nil
}
func (f *fakeOverrides) ListForDate(ctx context.Context, offeringID string, date time.Time) ([]*override.Override, error) {
	return f.rows, nil
}
func (f *fakeOverrides) List(ctx context.Context, filter override.Filter) ([]*override.Override, int, error) {
	return f.rows, len(f.rows), nil
}
func (f *fakeOverrides) Delete(ctx context.Context, id string) error { return nil }

func testWindowCount(holds int) hold.WindowCount {
	start := time.Date(2026, 9, 5, 14, 0, 0, 0, time.UTC)
	return hold.WindowCount{
		OfferingID:  "off-1",
		WindowStart: start,
		WindowEnd:   start.Add(2 * time.Hour),
		Holds:       holds,
	}
}

func newTestAuditor(holds *fakeHoldRepo, bookings *fakeBookingRepo, overrides *fakeOverrides) *Auditor {
	offerings := &fakeOfferings{offering: &offering.Offering{ID: "off-1", SlotCapacity: 2}}
	return New(holds, bookings, offerings, overrides, time.Minute, zap.NewNop())
}

func TestCheckWithinCapacity(t *testing.T) {
	a := newTestAuditor(&fakeHoldRepo{}, &fakeBookingRepo{count: 1}, &fakeOverrides{})
	assert.False(t, a.check(context.Background(), testWindowCount(1)))
}

func TestCheckOverCapacity(t *testing.T) {
	a := newTestAuditor(&fakeHoldRepo{}, &fakeBookingRepo{count: 2}, &fakeOverrides{})
	assert.True(t, a.check(context.Background(), testWindowCount(1)))
}

func TestCheckHonorsCapacityOverride(t *testing.T) {
	one := 1
	overrides := &fakeOverrides{rows: []*override.Override{{CapacityOverride: &one}}}
	a := newTestAuditor(&fakeHoldRepo{}, &fakeBookingRepo{}, overrides)

	// Two holds against an overridden capacity of one.
	assert.True(t, a.check(context.Background(), testWindowCount(2)))
}

func TestCheckUnknownOfferingIsNotAViolation(t *testing.T) {
	a := newTestAuditor(&fakeHoldRepo{}, &fakeBookingRepo{}, &fakeOverrides{})
	wc := testWindowCount(5)
	wc.OfferingID = "missing"
	assert.False(t, a.check(context.Background(), wc))
}
