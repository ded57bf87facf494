package funnel

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/auth"
	"github.com/lumen-studio/booking-engine/internal/availability"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/checkout"
	"github.com/lumen-studio/booking-engine/internal/hold"
)

// StartInput opens a funnel session for one offering and flow mode.
type StartInput struct {
	Mode       Mode
	OfferingID string
	CampaignID string
	Actor      auth.Actor
	Timezone   string
}

// DateResult is the outcome of a date selection: either the session moved
// to the checking step, or authentication is required first and the caller
// must persist the envelope, authenticate, and resume.
type DateResult struct {
	Session      *Session
	AuthRequired bool
	Pending      *PendingBooking
}

// Status is a point-in-time view of the session, polled by the client.
// During the checking step RemainingWaitMS counts down the paced delay;
// once it reaches zero the slot list is included.
type Status struct {
	Step            Step                          `json:"step"`
	EventDate       *time.Time                    `json:"event_date,omitempty"`
	RemainingWaitMS int64                         `json:"remaining_wait_ms,omitempty"`
	Day             *availability.DayAvailability `json:"day,omitempty"`
	Version         bookingrequest.AvailabilityVersion `json:"availability_version,omitempty"`
	RequestID       string                        `json:"booking_request_id,omitempty"`
}

// CheckoutResult mirrors checkout.StartResult for the HTTP layer.
type CheckoutResult struct {
	RedirectURL   string
	HoldExpiresAt time.Time
}

type Service interface {
	Start(ctx context.Context, in StartInput) (*Session, error)

	// SelectDate records the caller's date. Campaign-backed modes demand an
	// authenticated actor before any availability is revealed; anonymous
	// callers get an envelope to persist across the auth redirect.
	SelectDate(ctx context.Context, sessionID string, date time.Time, timezone string) (*DateResult, error)

	// Status drives the paced checking step and, once the delay has fully
	// elapsed, surfaces the slot list. The pacing is a UX device: it is
	// never skipped, even though the underlying lookup is fast.
	Status(ctx context.Context, sessionID string) (*Status, error)

	// SelectSlot commits a slot choice after re-checking it is still open.
	SelectSlot(ctx context.Context, sessionID string, clock string) (*Status, error)

	// StartCheckout acquires the hold and creates the payment session.
	// Anonymous callers in product mode are bounced to authentication here,
	// with the same envelope mechanism as campaign date gating.
	StartCheckout(ctx context.Context, sessionID string) (*CheckoutResult, *DateResult, error)

	// Resume restores a funnel from a persisted envelope after a successful
	// authentication, landing directly at the checking step with the saved
	// date. Stale envelopes are rejected.
	Resume(ctx context.Context, p PendingBooking, actor auth.Actor) (*Session, error)

	// Close discards the session. The underlying booking request and any
	// hold it owns are deliberately left alone; only the hold TTL or an
	// explicit date change frees capacity.
	Close(sessionID string)
}

type service struct {
	store          *Store
	oracle         availability.Service
	requests       bookingrequest.Service
	checkout       checkout.Service
	checkingDelay  time.Duration
	resumeTTL      time.Duration
	logger         *zap.Logger
	now            func() time.Time
}

func NewService(
	store *Store,
	oracle availability.Service,
	requests bookingrequest.Service,
	checkoutService checkout.Service,
	checkingDelay time.Duration,
	resumeTTL time.Duration,
	logger *zap.Logger,
) Service {
	return &service{
		store:         store,
		oracle:        oracle,
		requests:      requests,
		checkout:      checkoutService,
		checkingDelay: checkingDelay,
		resumeTTL:     resumeTTL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *service) Start(ctx context.Context, in StartInput) (*Session, error) {
	if !in.Mode.Valid() {
		return nil, ErrBadEnvelope
	}

	sess := &Session{
		Mode:       in.Mode,
		OfferingID: in.OfferingID,
		CampaignID: in.CampaignID,
		Actor:      in.Actor,
		Timezone:   in.Timezone,
		Step:       StepDate,
	}
	return s.store.Create(sess), nil
}

// version derives the availability snapshot tag for a new request:
// campaign-backed flows are shown the promotional full tier, the standard
// flow the limited one. The tag is fixed at creation and never
// re-validated against the live promotional window.
func (s *service) version(mode Mode) bookingrequest.AvailabilityVersion {
	if mode.RequiresAuthAtDate() {
		return bookingrequest.VersionFull
	}
	return bookingrequest.VersionLimited
}

func (s *service) SelectDate(ctx context.Context, sessionID string, date time.Time, timezone string) (*DateResult, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepDate {
		return nil, ErrWrongStep
	}
	if timezone != "" {
		sess.Timezone = timezone
	}

	if sess.Mode.RequiresAuthAtDate() && !sess.Actor.IsAuthenticated() {
		// No availability check may run against this date yet: persist the
		// selection, close the funnel, and let the client authenticate.
		pending := Seal(sess.Mode, sess.OfferingID, sess.CampaignID, date, sess.Timezone, s.now())
		s.store.Delete(sess.ID)
		return &DateResult{AuthRequired: true, Pending: &pending}, nil
	}

	if err := s.beginChecking(ctx, sess, date); err != nil {
		return nil, err
	}
	return &DateResult{Session: sess}, nil
}

// beginChecking creates/finds the booking request for the date and enters
// the paced checking step.
func (s *service) beginChecking(ctx context.Context, sess *Session, date time.Time) error {
	in := bookingrequest.FindOrCreateInput{
		EventDate: date,
		Timezone:  sess.Timezone,
		Version:   s.version(sess.Mode),
	}
	if sess.Mode == ModeCampaignPackage {
		in.PackageID = &sess.OfferingID
	} else {
		in.ProductID = &sess.OfferingID
	}
	if sess.CampaignID != "" {
		in.CampaignID = &sess.CampaignID
	}
	if sess.Actor.IsAuthenticated() {
		in.UserID = &sess.Actor.UserID
	} else if sess.Actor.VisitorID != "" {
		in.VisitorID = &sess.Actor.VisitorID
	}

	r, err := s.requests.FindOrCreate(ctx, in)
	if err != nil {
		return err
	}

	// If the found request is already further along, keep its version so
	// the caller is not silently downgraded mid-funnel.
	sess.BookingRequestID = r.ID
	sess.Version = r.AvailabilityVersion
	sess.EventDate = date
	sess.Step = StepChecking
	sess.CheckingStartedAt = s.now()
	s.store.Save(sess)
	return nil
}

func (s *service) Status(ctx context.Context, sessionID string) (*Status, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	st := &Status{
		Step:      sess.Step,
		Version:   sess.Version,
		RequestID: sess.BookingRequestID,
	}
	if !sess.EventDate.IsZero() {
		d := sess.EventDate
		st.EventDate = &d
	}

	switch sess.Step {
	case StepChecking:
		elapsed := s.now().Sub(sess.CheckingStartedAt)
		if elapsed < s.checkingDelay {
			st.RemainingWaitMS = int64((s.checkingDelay - elapsed) / time.Millisecond)
			return st, nil
		}
		// Delay served; reveal the slot list.
		sess.Step = StepSlots
		s.store.Save(sess)
		st.Step = StepSlots
		fallthrough
	case StepSlots, StepCheckout:
		if sess.BookingRequestID != "" {
			if err := s.requests.Touch(ctx, sess.BookingRequestID); err != nil {
				s.logger.Debug("touch booking request failed",
					zap.String("requestID", sess.BookingRequestID), zap.Error(err))
			}
		}
		day, err := s.oracle.GetDayStatus(ctx, sess.OfferingID, sess.EventDate)
		if err != nil {
			return nil, err
		}
		st.Day = day
	}

	return st, nil
}

func (s *service) SelectSlot(ctx context.Context, sessionID string, clock string) (*Status, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Step != StepSlots && sess.Step != StepCheckout {
		return nil, ErrWrongStep
	}

	// Re-check the slot is still open before committing the choice.
	slot, err := s.oracle.GetRequestStatus(ctx, sess.OfferingID, sess.EventDate, &clock)
	if err != nil {
		return nil, err
	}
	switch slot.Status {
	case availability.StatusFull, availability.StatusBlocked:
		return nil, hold.ErrSlotUnavailable
	case availability.StatusNeedsReview:
		return nil, hold.ErrOfferingMissing
	}

	if _, err := s.requests.SelectTime(ctx, sess.BookingRequestID, clock); err != nil {
		return nil, err
	}

	sess.Step = StepCheckout
	s.store.Save(sess)

	return s.Status(ctx, sessionID)
}

func (s *service) StartCheckout(ctx context.Context, sessionID string) (*CheckoutResult, *DateResult, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step != StepCheckout {
		return nil, nil, ErrWrongStep
	}

	if !sess.Actor.IsAuthenticated() {
		pending := Seal(sess.Mode, sess.OfferingID, sess.CampaignID, sess.EventDate, sess.Timezone, s.now())
		s.store.Delete(sess.ID)
		return nil, &DateResult{AuthRequired: true, Pending: &pending}, nil
	}

	res, err := s.checkout.Start(ctx, sess.BookingRequestID)
	if err != nil {
		if errors.Is(err, hold.ErrSlotUnavailable) {
			// Lost the capacity race: back to the slot list with fresh
			// availability, never a blind retry.
			sess.Step = StepSlots
			s.store.Save(sess)
		}
		return nil, nil, err
	}

	s.store.Save(sess)
	return &CheckoutResult{
		RedirectURL:   res.RedirectURL,
		HoldExpiresAt: res.HoldExpiresAt,
	}, nil, nil
}

func (s *service) Resume(ctx context.Context, p PendingBooking, actor auth.Actor) (*Session, error) {
	if !actor.IsAuthenticated() {
		return nil, ErrAuthRequired
	}

	mode, offeringID, campaignID, eventDate, timezone, err := Open(p, s.now(), s.resumeTTL)
	if err != nil {
		return nil, err
	}

	sess := s.store.Create(&Session{
		Mode:       mode,
		OfferingID: offeringID,
		CampaignID: campaignID,
		Actor:      actor,
		Timezone:   timezone,
		Step:       StepDate,
	})

	if err := s.beginChecking(ctx, sess, eventDate); err != nil {
		s.store.Delete(sess.ID)
		return nil, err
	}

	s.logger.Info("funnel resumed after authentication",
		zap.String("sessionID", sess.ID),
		zap.String("offeringID", offeringID),
		zap.Time("eventDate", eventDate))
	return sess, nil
}

func (s *service) Close(sessionID string) {
	s.store.Delete(sessionID)
}
