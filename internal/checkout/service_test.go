package checkout

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/booking"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
)

type fakeRequests struct {
	request *bookingrequest.BookingRequest
}

func (f *fakeRequests) FindOrCreate(ctx context.Context, in bookingrequest.FindOrCreateInput) (*bookingrequest.BookingRequest, error) {
	return nil, nil
}

func (f *fakeRequests) GetByID(ctx context.Context, id string) (*bookingrequest.BookingRequest, error) {
	if f.request == nil || f.request.ID != id {
		return nil, bookingrequest.ErrNotFound
	}
	r := *f.request
	return &r, nil
}

func (f *fakeRequests) SelectTime(ctx context.Context, id string, clock string) (*bookingrequest.BookingRequest, error) {
	return nil, nil
}

func (f *fakeRequests) Touch(ctx context.Context, id string) error { return nil }

func (f *fakeRequests) List(ctx context.Context, filter bookingrequest.Filter) ([]*bookingrequest.BookingRequest, int, error) {
	return nil, 0, nil
}

func (f *fakeRequests) StaffTransition(ctx context.Context, id string, to bookingrequest.Stage) (*bookingrequest.BookingRequest, error) {
	return nil, nil
}

func (f *fakeRequests) ExpireOverdue(ctx context.Context) (int, error) { return 0, nil }

type fakeRequestRepo struct {
	request     *bookingrequest.BookingRequest
	stageMoves  []string
	updated     *bookingrequest.BookingRequest
	updateStage error
}

func (f *fakeRequestRepo) Create(ctx context.Context, r *bookingrequest.BookingRequest) error {
	return nil
}

func (f *fakeRequestRepo) GetByID(ctx context.Context, id string) (*bookingrequest.BookingRequest, error) {
	if f.request == nil || f.request.ID != id {
		return nil, bookingrequest.ErrNotFound
	}
	r := *f.request
	return &r, nil
}

func (f *fakeRequestRepo) FindActive(ctx context.Context, offeringID string, userID, visitorID *string, eventDate time.Time) (*bookingrequest.BookingRequest, error) {
	return nil, bookingrequest.ErrNotFound
}

func (f *fakeRequestRepo) Update(ctx context.Context, r *bookingrequest.BookingRequest) error {
	cp := *r
	f.updated = &cp
	return nil
}

func (f *fakeRequestRepo) SelectTime(ctx context.Context, id string, clock string, at time.Time) error {
	return nil
}

func (f *fakeRequestRepo) UpdateStage(ctx context.Context, id string, from, to bookingrequest.Stage) error {
	if f.updateStage != nil {
		return f.updateStage
	}
	f.stageMoves = append(f.stageMoves, string(from)+"->"+string(to))
	return nil
}

func (f *fakeRequestRepo) UpdateStageTx(ctx context.Context, tx pgx.Tx, id string, from, to bookingrequest.Stage) error {
	return f.UpdateStage(ctx, id, from, to)
}

func (f *fakeRequestRepo) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	return nil
}

func (f *fakeRequestRepo) List(ctx context.Context, filter bookingrequest.Filter) ([]*bookingrequest.BookingRequest, int, error) {
	return nil, 0, nil
}

func (f *fakeRequestRepo) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	return nil, nil
}

type fakeHoldService struct {
	active *hold.Hold

	acquired  []string
	renewed   []string
	releasedByID []string
	releasedByRequest []string
	renewErr error
}

func (f *fakeHoldService) Acquire(ctx context.Context, requestID, offeringID string, windowStart, windowEnd time.Time) (*hold.Hold, error) {
	f.acquired = append(f.acquired, requestID)
	return &hold.Hold{
		ID:               "hold-new",
		BookingRequestID: requestID,
		OfferingID:       offeringID,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		Status:           hold.StatusActive,
		ExpiresAt:        time.Now().UTC().Add(15 * time.Minute),
	}, nil
}

func (f *fakeHoldService) Renew(ctx context.Context, id string) (*hold.Hold, error) {
	if f.renewErr != nil {
		return nil, f.renewErr
	}
	f.renewed = append(f.renewed, id)
	h := *f.active
	h.ExpiresAt = time.Now().UTC().Add(15 * time.Minute)
	return &h, nil
}

func (f *fakeHoldService) Release(ctx context.Context, id string) error {
	f.releasedByID = append(f.releasedByID, id)
	return nil
}

func (f *fakeHoldService) ReleaseForRequest(ctx context.Context, requestID string) error {
	f.releasedByRequest = append(f.releasedByRequest, requestID)
	return nil
}

func (f *fakeHoldService) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}

func (f *fakeHoldService) GetActiveByRequestID(ctx context.Context, requestID string) (*hold.Hold, error) {
	if f.active == nil {
		return nil, hold.ErrNotFound
	}
	h := *f.active
	return &h, nil
}

type fakeHoldRepo struct{}

func (fakeHoldRepo) Acquire(ctx context.Context, h *hold.Hold, capacity int) error { return nil }
func (fakeHoldRepo) GetByID(ctx context.Context, id string) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}
func (fakeHoldRepo) GetActiveByRequestID(ctx context.Context, requestID string) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}
func (fakeHoldRepo) Renew(ctx context.Context, id string, expiresAt time.Time) (*hold.Hold, error) {
	return nil, hold.ErrNotFound
}
func (fakeHoldRepo) Release(ctx context.Context, id string) error                  { return nil }
func (fakeHoldRepo) ReleaseTx(ctx context.Context, tx pgx.Tx, id string) error     { return nil }
func (fakeHoldRepo) ReleaseByRequestID(ctx context.Context, requestID string) error { return nil }
func (fakeHoldRepo) CountActiveOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	return 0, nil
}
func (fakeHoldRepo) ExpireStale(ctx context.Context, now time.Time) (int64, error) { return 0, nil }
func (fakeHoldRepo) ActiveWindowCounts(ctx context.Context, now time.Time) ([]hold.WindowCount, error) {
	return nil, nil
}

type fakeBookingRepo struct{}

func (fakeBookingRepo) CreateTx(ctx context.Context, tx pgx.Tx, b *booking.Booking) error { return nil }
func (fakeBookingRepo) GetByRequestID(ctx context.Context, requestID string) (*booking.Booking, error) {
	return nil, booking.ErrNotFound
}
func (fakeBookingRepo) CountOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	return 0, nil
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

type fakeClient struct {
	err      error
	sessions []SessionRequest
}

func (f *fakeClient) CreateSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sessions = append(f.sessions, req)
	return &Session{ID: "cs_test_1", URL: "https://pay.example/cs_test_1"}, nil
}

type fixture struct {
	svc      Service
	requests *fakeRequests
	repo     *fakeRequestRepo
	holds    *fakeHoldService
	client   *fakeClient
}

func newFixture(r *bookingrequest.BookingRequest) *fixture {
	requests := &fakeRequests{request: r}
	repo := &fakeRequestRepo{request: r}
	holds := &fakeHoldService{}
	client := &fakeClient{}
	offerings := &fakeOfferings{offering: &offering.Offering{
		ID:                  "off-1",
		Name:                "Portrait Session",
		DayStart:            "10:00:00",
		DayEnd:              "18:00:00",
		SlotDurationMinutes: 120,
		PriceCents:          19900,
		Currency:            "eur",
	}}

	svc := NewService(nil, requests, repo, holds, fakeHoldRepo{}, fakeBookingRepo{},
		offerings, client, zap.NewNop())
	return &fixture{svc: svc, requests: requests, repo: repo, holds: holds, client: client}
}

func timeSelectedRequest() *bookingrequest.BookingRequest {
	product := "off-1"
	visitor := "v-1"
	clock := "14:00:00"
	return &bookingrequest.BookingRequest{
		ID:             "req-1",
		ProductID:      &product,
		VisitorID:      &visitor,
		EventDate:      time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		SelectedTime:   &clock,
		Stage:          bookingrequest.StageTimeSelected,
		OfferExpiresAt: time.Now().UTC().Add(time.Hour),
	}
}

func TestStartHappyPath(t *testing.T) {
	f := newFixture(timeSelectedRequest())

	res, err := f.svc.Start(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "https://pay.example/cs_test_1", res.RedirectURL)
	assert.Equal(t, "hold-new", res.HoldID)
	assert.Equal(t, []string{"req-1"}, f.holds.acquired)
	assert.Equal(t, []string{"time_selected->checkout_started"}, f.repo.stageMoves)

	require.NotNil(t, f.repo.updated)
	require.NotNil(t, f.repo.updated.StripeCheckoutSessionID)
	assert.Equal(t, "cs_test_1", *f.repo.updated.StripeCheckoutSessionID)

	require.Len(t, f.client.sessions, 1)
	sr := f.client.sessions[0]
	assert.Equal(t, "req-1", sr.BookingRequestID)
	assert.Equal(t, int64(19900), sr.PriceCents)
	assert.Equal(t, "14:00:00", sr.SelectedTime)
}

func TestStartReusesMatchingHold(t *testing.T) {
	f := newFixture(timeSelectedRequest())
	f.holds.active = &hold.Hold{
		ID:               "hold-1",
		BookingRequestID: "req-1",
		OfferingID:       "off-1",
		WindowStart:      time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC),
		WindowEnd:        time.Date(2026, 8, 15, 16, 0, 0, 0, time.UTC),
		Status:           hold.StatusActive,
		ExpiresAt:        time.Now().UTC().Add(5 * time.Minute),
	}

	res, err := f.svc.Start(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "hold-1", res.HoldID)
	assert.Equal(t, []string{"hold-1"}, f.holds.renewed)
	assert.Empty(t, f.holds.acquired)
}

func TestStartReleasesMismatchedHold(t *testing.T) {
	f := newFixture(timeSelectedRequest())
	// The caller re-picked 14:00 but the hold still covers 10:00.
	f.holds.active = &hold.Hold{
		ID:               "hold-old",
		BookingRequestID: "req-1",
		OfferingID:       "off-1",
		WindowStart:      time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		WindowEnd:        time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC),
		Status:           hold.StatusActive,
		ExpiresAt:        time.Now().UTC().Add(5 * time.Minute),
	}

	res, err := f.svc.Start(context.Background(), "req-1")
	require.NoError(t, err)

	assert.Equal(t, "hold-new", res.HoldID)
	assert.Equal(t, []string{"hold-old"}, f.holds.releasedByID)
	assert.Equal(t, []string{"req-1"}, f.holds.acquired)
}

func TestStartStageValidation(t *testing.T) {
	t.Run("expired request", func(t *testing.T) {
		r := timeSelectedRequest()
		r.Stage = bookingrequest.StageExpired
		f := newFixture(r)
		_, err := f.svc.Start(context.Background(), "req-1")
		assert.ErrorIs(t, err, bookingrequest.ErrRequestExpired)
	})

	t.Run("date_selected is too early", func(t *testing.T) {
		r := timeSelectedRequest()
		r.Stage = bookingrequest.StageDateSelected
		f := newFixture(r)
		_, err := f.svc.Start(context.Background(), "req-1")
		assert.ErrorIs(t, err, bookingrequest.ErrInvalidTransition)
	})

	t.Run("no selected time", func(t *testing.T) {
		r := timeSelectedRequest()
		r.SelectedTime = nil
		f := newFixture(r)
		_, err := f.svc.Start(context.Background(), "req-1")
		assert.ErrorIs(t, err, bookingrequest.ErrTimeRequired)
	})

	t.Run("selection outside operating hours", func(t *testing.T) {
		r := timeSelectedRequest()
		late := "17:00:00"
		r.SelectedTime = &late
		f := newFixture(r)
		_, err := f.svc.Start(context.Background(), "req-1")
		assert.ErrorIs(t, err, offering.ErrOutsideHours)
	})
}

func TestStartSessionCreationFailures(t *testing.T) {
	t.Run("slot claimed maps to slot unavailable", func(t *testing.T) {
		f := newFixture(timeSelectedRequest())
		f.client.err = ErrSlotClaimed
		_, err := f.svc.Start(context.Background(), "req-1")
		assert.ErrorIs(t, err, hold.ErrSlotUnavailable)
	})

	t.Run("collaborator outage", func(t *testing.T) {
		f := newFixture(timeSelectedRequest())
		f.client.err = context.DeadlineExceeded
		_, err := f.svc.Start(context.Background(), "req-1")
		assert.ErrorIs(t, err, ErrCheckoutFailed)
	})
}

func TestStartAtCheckoutStartedDoesNotReAdvance(t *testing.T) {
	r := timeSelectedRequest()
	r.Stage = bookingrequest.StageCheckoutStarted
	f := newFixture(r)

	_, err := f.svc.Start(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Empty(t, f.repo.stageMoves)
}

func TestCompletePaymentDuplicateDeliveryAcks(t *testing.T) {
	r := timeSelectedRequest()
	r.Stage = bookingrequest.StagePaid
	sessID := "cs_test_1"
	r.StripeCheckoutSessionID = &sessID
	f := newFixture(r)

	// A redelivered completion event for an already confirmed request must
	// ack cleanly so the notifier stops retrying.
	require.NoError(t, f.svc.CompletePayment(context.Background(), "req-1", "cs_test_1"))
	assert.Empty(t, f.repo.stageMoves)
}

func TestFailPayment(t *testing.T) {
	t.Run("reverts to time_selected and frees the hold", func(t *testing.T) {
		r := timeSelectedRequest()
		r.Stage = bookingrequest.StageCheckoutStarted
		f := newFixture(r)

		require.NoError(t, f.svc.FailPayment(context.Background(), "req-1"))
		assert.Equal(t, []string{"checkout_started->time_selected"}, f.repo.stageMoves)
		assert.Equal(t, []string{"req-1"}, f.holds.releasedByRequest)
	})

	t.Run("no-op when the request already moved on", func(t *testing.T) {
		f := newFixture(timeSelectedRequest())
		f.repo.updateStage = bookingrequest.ErrInvalidTransition

		require.NoError(t, f.svc.FailPayment(context.Background(), "req-1"))
		assert.Empty(t, f.holds.releasedByRequest)
	})
}
