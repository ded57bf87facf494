package hold

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/override"
	"github.com/lumen-studio/booking-engine/internal/pkg/metrics"
)

type Service interface {
	// Acquire claims one unit of the offering's capacity for the window.
	// On a lost capacity race it returns ErrSlotUnavailable; the funnel is
	// expected to re-run availability and re-prompt slot choice, never
	// retry blindly.
	Acquire(ctx context.Context, requestID, offeringID string, windowStart, windowEnd time.Time) (*Hold, error)

	// Renew extends the hold's deadline by the TTL from now. Used when a
	// caller lingers on the checkout step.
	Renew(ctx context.Context, id string) (*Hold, error)

	// Release is idempotent; releasing an already released or expired hold
	// succeeds without effect.
	Release(ctx context.Context, id string) error

	// ReleaseForRequest frees every active hold a booking request owns.
	// Used when a request is cancelled, expired, or its date changes.
	ReleaseForRequest(ctx context.Context, requestID string) error

	GetByID(ctx context.Context, id string) (*Hold, error)
	GetActiveByRequestID(ctx context.Context, requestID string) (*Hold, error)
}

type service struct {
	repo            Repository
	offeringService offering.Service
	overrideService override.Service
	ttl             time.Duration
	logger          *zap.Logger
}

func NewService(repo Repository, offeringService offering.Service, overrideService override.Service, ttl time.Duration, logger *zap.Logger) Service {
	return &service{
		repo:            repo,
		offeringService: offeringService,
		overrideService: overrideService,
		ttl:             ttl,
		logger:          logger,
	}
}

func (s *service) Acquire(ctx context.Context, requestID, offeringID string, windowStart, windowEnd time.Time) (*Hold, error) {
	off, err := s.offeringService.GetByID(ctx, offeringID)
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			return nil, ErrOfferingMissing
		}
		return nil, err
	}

	date := time.Date(windowStart.Year(), windowStart.Month(), windowStart.Day(), 0, 0, 0, 0, windowStart.Location())
	overrides, err := s.overrideService.ListForDate(ctx, offeringID, date)
	if err != nil {
		return nil, err
	}

	blackout, capOverride := override.Effective(overrides, windowStart, windowEnd)
	if blackout {
		return nil, ErrSlotUnavailable
	}

	capacity := off.SlotCapacity
	if capOverride != nil {
		capacity = *capOverride
	}

	h := &Hold{
		BookingRequestID: requestID,
		OfferingID:       offeringID,
		WindowStart:      windowStart,
		WindowEnd:        windowEnd,
		ExpiresAt:        time.Now().UTC().Add(s.ttl),
	}

	if err := s.repo.Acquire(ctx, h, capacity); err != nil {
		if errors.Is(err, ErrSlotUnavailable) {
			metrics.HoldConflicts.Inc()
			s.logger.Info("hold acquisition lost capacity race",
				zap.String("offeringID", offeringID),
				zap.Time("windowStart", windowStart))
		}
		return nil, err
	}

	metrics.HoldsAcquired.Inc()
	s.logger.Info("hold acquired",
		zap.String("holdID", h.ID),
		zap.String("requestID", requestID),
		zap.String("offeringID", offeringID),
		zap.Time("expiresAt", h.ExpiresAt))
	return h, nil
}

func (s *service) Renew(ctx context.Context, id string) (*Hold, error) {
	h, err := s.repo.Renew(ctx, id, time.Now().UTC().Add(s.ttl))
	if err != nil {
		return nil, err
	}
	s.logger.Debug("hold renewed", zap.String("holdID", id), zap.Time("expiresAt", h.ExpiresAt))
	return h, nil
}

func (s *service) Release(ctx context.Context, id string) error {
	if err := s.repo.Release(ctx, id); err != nil {
		return err
	}
	metrics.HoldsReleased.Inc()
	return nil
}

func (s *service) ReleaseForRequest(ctx context.Context, requestID string) error {
	return s.repo.ReleaseByRequestID(ctx, requestID)
}

func (s *service) GetByID(ctx context.Context, id string) (*Hold, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) GetActiveByRequestID(ctx context.Context, requestID string) (*Hold, error) {
	return s.repo.GetActiveByRequestID(ctx, requestID)
}
