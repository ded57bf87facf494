package override

import (
	"context"
	"time"
)

type CreateRequest struct {
	OfferingID       string
	Date             time.Time
	WindowStart      *time.Time
	WindowEnd        *time.Time
	Blackout         bool
	CapacityOverride *int
	Note             string
	CreatedBy        string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Override, error)
	ListForDate(ctx context.Context, offeringID string, date time.Time) ([]*Override, error)
	List(ctx context.Context, filter Filter) ([]*Override, int, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Override, error) {
	if !req.Blackout && req.CapacityOverride == nil {
		return nil, ErrNothingToApply
	}
	if (req.WindowStart == nil) != (req.WindowEnd == nil) {
		return nil, ErrInvalidWindow
	}
	if req.WindowStart != nil && !req.WindowStart.Before(*req.WindowEnd) {
		return nil, ErrInvalidWindow
	}

	o := &Override{
		OfferingID:       req.OfferingID,
		Date:             req.Date,
		WindowStart:      req.WindowStart,
		WindowEnd:        req.WindowEnd,
		Blackout:         req.Blackout,
		CapacityOverride: req.CapacityOverride,
		Note:             req.Note,
		CreatedBy:        req.CreatedBy,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}

func (s *service) ListForDate(ctx context.Context, offeringID string, date time.Time) ([]*Override, error) {
	return s.repo.ListForDate(ctx, offeringID, date)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Override, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
