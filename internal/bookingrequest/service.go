package bookingrequest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/pkg/metrics"
)

// FindOrCreateInput carries the tuple that identifies one reservation
// intent. Exactly one of ProductID / PackageID and exactly one of UserID /
// VisitorID must be set.
type FindOrCreateInput struct {
	ProductID  *string
	PackageID  *string
	CampaignID *string

	UserID    *string
	VisitorID *string

	EventDate time.Time
	Timezone  string

	Version AvailabilityVersion
}

type Service interface {
	// FindOrCreate returns the existing non-terminal, unexpired request for
	// the tuple, or creates a fresh one at date_selected. Re-opening the
	// funnel for the same date never spawns duplicates.
	FindOrCreate(ctx context.Context, in FindOrCreateInput) (*BookingRequest, error)

	// GetByID lazily expires an overdue request before returning it.
	GetByID(ctx context.Context, id string) (*BookingRequest, error)

	// SelectTime commits a time-of-day choice and advances date_selected ->
	// time_selected. Re-selecting while still at time_selected is allowed.
	SelectTime(ctx context.Context, id string, clock string) (*BookingRequest, error)

	// Touch records a client interaction on last_seen_at.
	Touch(ctx context.Context, id string) error

	List(ctx context.Context, filter Filter) ([]*BookingRequest, int, error)

	// StaffTransition moves a request to contacted or cancelled. Cancelling
	// releases any hold the request still owns.
	StaffTransition(ctx context.Context, id string, to Stage) (*BookingRequest, error)

	// ExpireOverdue flips all overdue requests to expired and frees their
	// holds. Rows are kept for audit, never deleted.
	ExpireOverdue(ctx context.Context) (int, error)
}

type service struct {
	repo        Repository
	holdService hold.Service
	offerTTL    time.Duration
	logger      *zap.Logger
}

func NewService(repo Repository, holdService hold.Service, offerTTL time.Duration, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		holdService: holdService,
		offerTTL:    offerTTL,
		logger:      logger,
	}
}

func (in FindOrCreateInput) validate() error {
	if (in.ProductID == nil) == (in.PackageID == nil) {
		return ErrSubjectRequired
	}
	if in.UserID == nil && in.VisitorID == nil {
		return ErrActorRequired
	}
	return nil
}

func (in FindOrCreateInput) offeringID() string {
	if in.ProductID != nil {
		return *in.ProductID
	}
	return *in.PackageID
}

func (s *service) FindOrCreate(ctx context.Context, in FindOrCreateInput) (*BookingRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	existing, err := s.repo.FindActive(ctx, in.offeringID(), in.UserID, in.VisitorID, in.EventDate)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		if !existing.Overdue(now) {
			if err := s.repo.TouchLastSeen(ctx, existing.ID, now); err != nil {
				return nil, err
			}
			existing.LastSeenAt = now
			return existing, nil
		}
		// A stale request blocks the tuple's unique index; expire it in
		// place and fall through to create a fresh one.
		if err := s.expire(ctx, existing); err != nil {
			return nil, err
		}
	}

	r := &BookingRequest{
		ProductID:           in.ProductID,
		PackageID:           in.PackageID,
		CampaignID:          in.CampaignID,
		UserID:              in.UserID,
		VisitorID:           in.VisitorID,
		EventDate:           in.EventDate,
		Timezone:            in.Timezone,
		Stage:               StageDateSelected,
		AvailabilityVersion: in.Version,
		OfferExpiresAt:      now.Add(s.offerTTL),
		LastSeenAt:          now,
	}

	err = s.repo.Create(ctx, r)
	if errors.Is(err, ErrDuplicateActive) {
		// Lost a concurrent create for the same tuple; the winner's row is
		// the request we want.
		return s.repo.FindActive(ctx, in.offeringID(), in.UserID, in.VisitorID, in.EventDate)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("booking request created",
		zap.String("requestID", r.ID),
		zap.String("offeringID", r.OfferingID()),
		zap.Time("eventDate", r.EventDate))
	return r, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*BookingRequest, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Overdue(time.Now().UTC()) {
		if err := s.expire(ctx, r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// expire flips one overdue request to expired and frees its hold.
func (s *service) expire(ctx context.Context, r *BookingRequest) error {
	if err := s.repo.UpdateStage(ctx, r.ID, r.Stage, StageExpired); err != nil {
		return err
	}
	r.Stage = StageExpired
	if err := s.holdService.ReleaseForRequest(ctx, r.ID); err != nil {
		s.logger.Error("failed to release holds for expired request",
			zap.String("requestID", r.ID), zap.Error(err))
	}
	metrics.RequestsExpired.Inc()
	return nil
}

func (s *service) SelectTime(ctx context.Context, id string, clock string) (*BookingRequest, error) {
	r, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Stage == StageExpired {
		return nil, ErrRequestExpired
	}

	if r.Stage != StageDateSelected && r.Stage != StageTimeSelected {
		return nil, ErrInvalidTransition
	}

	// Stage and selection land in one conditional write; a request at
	// time_selected always carries a non-null selected_time.
	now := time.Now().UTC()
	if err := s.repo.SelectTime(ctx, id, clock, now); err != nil {
		return nil, err
	}
	r.Stage = StageTimeSelected
	r.SelectedTime = &clock
	r.LastSeenAt = now
	return r, nil
}

func (s *service) Touch(ctx context.Context, id string) error {
	return s.repo.TouchLastSeen(ctx, id, time.Now().UTC())
}

func (s *service) List(ctx context.Context, filter Filter) ([]*BookingRequest, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) StaffTransition(ctx context.Context, id string, to Stage) (*BookingRequest, error) {
	if to != StageContacted && to != StageCancelled {
		return nil, ErrInvalidTransition
	}

	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(r.Stage, to) {
		return nil, ErrInvalidTransition
	}

	if err := s.repo.UpdateStage(ctx, id, r.Stage, to); err != nil {
		return nil, err
	}
	r.Stage = to

	if to == StageCancelled {
		if err := s.holdService.ReleaseForRequest(ctx, id); err != nil {
			s.logger.Error("failed to release holds for cancelled request",
				zap.String("requestID", id), zap.Error(err))
		}
	}

	s.logger.Info("staff transition applied",
		zap.String("requestID", id), zap.String("stage", string(to)))
	return r, nil
}

func (s *service) ExpireOverdue(ctx context.Context) (int, error) {
	ids, err := s.repo.ExpireOverdue(ctx, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if err := s.holdService.ReleaseForRequest(ctx, id); err != nil {
			s.logger.Error("failed to release holds for expired request",
				zap.String("requestID", id), zap.Error(err))
		}
	}
	if len(ids) > 0 {
		metrics.RequestsExpired.Add(float64(len(ids)))
		s.logger.Info("expired overdue booking requests", zap.Int("count", len(ids)))
	}
	return len(ids), nil
}
