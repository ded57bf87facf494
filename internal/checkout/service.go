package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/lumen-studio/booking-engine/internal/booking"
	"github.com/lumen-studio/booking-engine/internal/bookingrequest"
	"github.com/lumen-studio/booking-engine/internal/hold"
	"github.com/lumen-studio/booking-engine/internal/offering"
	"github.com/lumen-studio/booking-engine/internal/pkg/apperror"
	"github.com/lumen-studio/booking-engine/internal/pkg/metrics"
)

var (
	ErrCheckoutFailed = apperror.New(http.StatusBadGateway, "could not create a payment session, please try again")
)

// StartResult is what the funnel hands back to the caller after a
// successful start_checkout.
type StartResult struct {
	RedirectURL   string
	HoldID        string
	HoldExpiresAt time.Time
}

type Service interface {
	// Start acquires (or revalidates) a slot hold for the request and
	// creates a payment session. The stage only advances once both
	// succeeded; a lost capacity race surfaces as hold.ErrSlotUnavailable
	// and the caller is redirected to slot re-selection.
	Start(ctx context.Context, requestID string) (*StartResult, error)

	// CompletePayment is invoked by the payment-completion notifier. It
	// advances the request to paid, converts the hold into a confirmed
	// booking, and releases the hold in a single transaction.
	CompletePayment(ctx context.Context, requestID, checkoutSessionID string) error

	// FailPayment reverts an abandoned or failed checkout to time_selected
	// and frees the hold.
	FailPayment(ctx context.Context, requestID string) error
}

type service struct {
	pool            *pgxpool.Pool
	requestService  bookingrequest.Service
	requestRepo     bookingrequest.Repository
	holdService     hold.Service
	holdRepo        hold.Repository
	bookingRepo     booking.Repository
	offeringService offering.Service
	client          Client
	logger          *zap.Logger
}

func NewService(
	pool *pgxpool.Pool,
	requestService bookingrequest.Service,
	requestRepo bookingrequest.Repository,
	holdService hold.Service,
	holdRepo hold.Repository,
	bookingRepo booking.Repository,
	offeringService offering.Service,
	client Client,
	logger *zap.Logger,
) Service {
	return &service{
		pool:            pool,
		requestService:  requestService,
		requestRepo:     requestRepo,
		holdService:     holdService,
		holdRepo:        holdRepo,
		bookingRepo:     bookingRepo,
		offeringService: offeringService,
		client:          client,
		logger:          logger,
	}
}

func (s *service) Start(ctx context.Context, requestID string) (*StartResult, error) {
	r, err := s.requestService.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if r.Stage == bookingrequest.StageExpired {
		return nil, bookingrequest.ErrRequestExpired
	}
	if r.Stage != bookingrequest.StageTimeSelected && r.Stage != bookingrequest.StageCheckoutStarted {
		return nil, bookingrequest.ErrInvalidTransition
	}
	if r.SelectedTime == nil {
		return nil, bookingrequest.ErrTimeRequired
	}

	off, err := s.offeringService.GetByID(ctx, r.OfferingID())
	if err != nil {
		if errors.Is(err, offering.ErrNotFound) {
			return nil, hold.ErrOfferingMissing
		}
		return nil, err
	}

	w, err := off.WindowAt(r.EventDate, *r.SelectedTime)
	if err != nil {
		return nil, err
	}

	// Re-validate client-held state: reuse the request's own hold when it
	// still covers the window, otherwise acquire fresh.
	h, err := s.revalidateHold(ctx, r.ID, off.ID, w)
	if err != nil {
		return nil, err
	}

	actorID := ""
	if r.UserID != nil {
		actorID = *r.UserID
	} else if r.VisitorID != nil {
		actorID = *r.VisitorID
	}

	sess, err := s.client.CreateSession(ctx, SessionRequest{
		BookingRequestID: r.ID,
		OfferingID:       off.ID,
		OfferingName:     off.Name,
		EventDate:        r.EventDate,
		SelectedTime:     *r.SelectedTime,
		PriceCents:       off.PriceCents,
		Currency:         off.Currency,
		ActorID:          actorID,
	})
	if err != nil {
		if errors.Is(err, ErrSlotClaimed) {
			// The collaborator saw the slot go; same recovery path as a
			// lost hold acquisition.
			return nil, hold.ErrSlotUnavailable
		}
		s.logger.Error("checkout session creation failed",
			zap.String("requestID", r.ID), zap.Error(err))
		return nil, ErrCheckoutFailed
	}

	// Advance the stage only after both the hold and the session exist.
	if r.Stage == bookingrequest.StageTimeSelected {
		if err := s.requestRepo.UpdateStage(ctx, r.ID, bookingrequest.StageTimeSelected, bookingrequest.StageCheckoutStarted); err != nil {
			return nil, err
		}
		r.Stage = bookingrequest.StageCheckoutStarted
	}
	r.StripeCheckoutSessionID = &sess.ID
	r.LastSeenAt = time.Now().UTC()
	if err := s.requestRepo.Update(ctx, r); err != nil {
		return nil, err
	}

	s.logger.Info("checkout started",
		zap.String("requestID", r.ID),
		zap.String("checkoutSessionID", sess.ID),
		zap.String("holdID", h.ID))

	return &StartResult{
		RedirectURL:   sess.URL,
		HoldID:        h.ID,
		HoldExpiresAt: h.ExpiresAt,
	}, nil
}

func (s *service) revalidateHold(ctx context.Context, requestID, offeringID string, w offering.Window) (*hold.Hold, error) {
	existing, err := s.holdService.GetActiveByRequestID(ctx, requestID)
	if err == nil && existing.WindowStart.Equal(w.Start) && existing.WindowEnd.Equal(w.End) {
		renewed, renewErr := s.holdService.Renew(ctx, existing.ID)
		if renewErr == nil {
			return renewed, nil
		}
		// Lapsed between read and renew; fall through to acquire fresh.
	} else if err != nil && !errors.Is(err, hold.ErrNotFound) {
		return nil, err
	} else if existing != nil {
		// Hold covers a different window (the caller re-picked); free it
		// before claiming the new one.
		if err := s.holdService.Release(ctx, existing.ID); err != nil {
			return nil, err
		}
	}

	return s.holdService.Acquire(ctx, requestID, offeringID, w.Start, w.End)
}

func (s *service) CompletePayment(ctx context.Context, requestID, checkoutSessionID string) error {
	r, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return err
	}

	// Stripe delivers completion events at least once. A repeat for a
	// request this session already confirmed is acked, not reprocessed.
	if r.Stage == bookingrequest.StagePaid &&
		r.StripeCheckoutSessionID != nil && *r.StripeCheckoutSessionID == checkoutSessionID {
		s.logger.Info("duplicate payment completion ignored",
			zap.String("requestID", requestID),
			zap.String("checkoutSessionID", checkoutSessionID))
		return nil
	}

	activeHold, holdErr := s.holdRepo.GetActiveByRequestID(ctx, requestID)

	// Determine the confirmed window: the hold's if one survives, else
	// recomputed from the request's selection.
	var start, end time.Time
	if holdErr == nil {
		start, end = activeHold.WindowStart, activeHold.WindowEnd
	} else {
		if r.SelectedTime == nil {
			return bookingrequest.ErrTimeRequired
		}
		off, err := s.offeringService.GetByID(ctx, r.OfferingID())
		if err != nil {
			return err
		}
		w, err := off.WindowAt(r.EventDate, *r.SelectedTime)
		if err != nil {
			return err
		}
		start, end = w.Start, w.End
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin payment completion tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.requestRepo.UpdateStageTx(ctx, tx, requestID, bookingrequest.StageCheckoutStarted, bookingrequest.StagePaid); err != nil {
		// Payment arrived for a request no longer at checkout_started
		// (e.g. expired in the meantime). Never auto-corrected; staff
		// reconcile manually.
		s.logger.Error("payment received for request not at checkout_started",
			zap.String("requestID", requestID),
			zap.String("stage", string(r.Stage)),
			zap.String("checkoutSessionID", checkoutSessionID))
		return err
	}

	if holdErr == nil {
		if err := s.holdRepo.ReleaseTx(ctx, tx, activeHold.ID); err != nil {
			return err
		}
	}

	b := &booking.Booking{
		BookingRequestID: requestID,
		OfferingID:       r.OfferingID(),
		UserID:           r.UserID,
		VisitorID:        r.VisitorID,
		WindowStart:      start,
		WindowEnd:        end,
	}
	if err := s.bookingRepo.CreateTx(ctx, tx, b); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit payment completion tx failed: %w", err)
	}

	metrics.PaymentsCompleted.Inc()
	s.logger.Info("payment completed, booking confirmed",
		zap.String("requestID", requestID),
		zap.String("bookingID", b.ID))
	return nil
}

func (s *service) FailPayment(ctx context.Context, requestID string) error {
	err := s.requestRepo.UpdateStage(ctx, requestID, bookingrequest.StageCheckoutStarted, bookingrequest.StageTimeSelected)
	if err != nil {
		if errors.Is(err, bookingrequest.ErrInvalidTransition) {
			// Already moved on (paid, expired, cancelled); nothing to undo.
			return nil
		}
		return err
	}

	if err := s.holdService.ReleaseForRequest(ctx, requestID); err != nil {
		s.logger.Error("failed to release holds after failed payment",
			zap.String("requestID", requestID), zap.Error(err))
	}

	s.logger.Info("checkout reverted after failed or abandoned payment",
		zap.String("requestID", requestID))
	return nil
}
