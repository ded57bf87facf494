package bookingrequest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateActive is returned by Create when another non-terminal
// request for the same (offering, actor, event_date) tuple won the insert
// race. Callers re-fetch with FindActive.
var ErrDuplicateActive = errors.New("active booking request already exists for this tuple")

type Repository interface {
	Create(ctx context.Context, r *BookingRequest) error
	GetByID(ctx context.Context, id string) (*BookingRequest, error)

	// FindActive returns the non-terminal request for the subject + actor +
	// date tuple, if one exists.
	FindActive(ctx context.Context, offeringID string, userID, visitorID *string, eventDate time.Time) (*BookingRequest, error)

	Update(ctx context.Context, r *BookingRequest) error

	// SelectTime moves the request to time_selected and records the chosen
	// time in one conditional statement, so the stage and selected_time
	// columns can never diverge. Only date_selected and time_selected rows
	// qualify; anything else fails with ErrInvalidTransition.
	SelectTime(ctx context.Context, id string, clock string, at time.Time) error

	// UpdateStage performs a conditional stage move: it only succeeds when
	// the stored stage still equals from, making concurrent transitions
	// lose cleanly with ErrInvalidTransition.
	UpdateStage(ctx context.Context, id string, from, to Stage) error
	UpdateStageTx(ctx context.Context, tx pgx.Tx, id string, from, to Stage) error

	TouchLastSeen(ctx context.Context, id string, at time.Time) error

	List(ctx context.Context, filter Filter) ([]*BookingRequest, int, error)

	// ExpireOverdue flips non-terminal requests whose offer deadline has
	// passed to expired and returns their ids so the caller can release
	// any holds they still own. Expired rows are never deleted.
	ExpireOverdue(ctx context.Context, now time.Time) ([]string, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const requestColumns = `id, product_id, package_id, campaign_id, user_id, visitor_id,
	event_date, timezone, selected_time, stage, availability_version,
	offer_expires_at, last_seen_at, stripe_checkout_session_id, created_at, updated_at`

func scanRequest(row pgx.Row) (*BookingRequest, error) {
	var r BookingRequest
	err := row.Scan(
		&r.ID, &r.ProductID, &r.PackageID, &r.CampaignID, &r.UserID, &r.VisitorID,
		&r.EventDate, &r.Timezone, &r.SelectedTime, &r.Stage, &r.AvailabilityVersion,
		&r.OfferExpiresAt, &r.LastSeenAt, &r.StripeCheckoutSessionID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (repo *pgxRepository) Create(ctx context.Context, r *BookingRequest) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.booking_requests").
		Columns("product_id", "package_id", "campaign_id", "user_id", "visitor_id",
			"event_date", "timezone", "stage", "availability_version",
			"offer_expires_at", "last_seen_at").
		Values(r.ProductID, r.PackageID, r.CampaignID, r.UserID, r.VisitorID,
			r.EventDate, r.Timezone, r.Stage, r.AvailabilityVersion,
			r.OfferExpiresAt, r.LastSeenAt).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking request query failed: %w", err)
	}

	err = repo.pool.QueryRow(ctx, query, args...).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		// uq_booking_requests_active: partial unique index over the
		// (offering, actor, event_date) tuple for non-terminal stages.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return ErrDuplicateActive
		}
		return fmt.Errorf("create booking request failed: %w", err)
	}
	return nil
}

func (repo *pgxRepository) GetByID(ctx context.Context, id string) (*BookingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM public.booking_requests WHERE id = $1`

	r, err := scanRequest(repo.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking request failed: %w", err)
	}
	return r, nil
}

func (repo *pgxRepository) FindActive(ctx context.Context, offeringID string, userID, visitorID *string, eventDate time.Time) (*BookingRequest, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(requestColumns).
		From("public.booking_requests").
		Where(squirrel.Or{
			squirrel.Eq{"product_id": offeringID},
			squirrel.Eq{"package_id": offeringID},
		}).
		Where(squirrel.Eq{"event_date": eventDate}).
		Where(squirrel.NotEq{"stage": []Stage{StagePaid, StageExpired, StageCancelled}}).
		OrderBy("created_at DESC").
		Limit(1)

	if userID != nil {
		query = query.Where(squirrel.Eq{"user_id": *userID})
	} else if visitorID != nil {
		query = query.Where(squirrel.Eq{"visitor_id": *visitorID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find active request query failed: %w", err)
	}

	r, err := scanRequest(repo.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find active request failed: %w", err)
	}
	return r, nil
}

func (repo *pgxRepository) Update(ctx context.Context, r *BookingRequest) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Update("public.booking_requests").
		Set("selected_time", r.SelectedTime).
		Set("stage", r.Stage).
		Set("availability_version", r.AvailabilityVersion).
		Set("last_seen_at", r.LastSeenAt).
		Set("stripe_checkout_session_id", r.StripeCheckoutSessionID).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": r.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update booking request query failed: %w", err)
	}

	ct, err := repo.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update booking request failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *pgxRepository) SelectTime(ctx context.Context, id string, clock string, at time.Time) error {
	const query = `
		UPDATE public.booking_requests
		SET stage = 'time_selected', selected_time = $2, last_seen_at = $3, updated_at = now()
		WHERE id = $1 AND stage IN ('date_selected', 'time_selected')
	`
	ct, err := repo.pool.Exec(ctx, query, id, clock, at)
	if err != nil {
		return fmt.Errorf("select time failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (repo *pgxRepository) UpdateStage(ctx context.Context, id string, from, to Stage) error {
	const query = `
		UPDATE public.booking_requests
		SET stage = $3, updated_at = now()
		WHERE id = $1 AND stage = $2
	`
	ct, err := repo.pool.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("update stage failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (repo *pgxRepository) UpdateStageTx(ctx context.Context, tx pgx.Tx, id string, from, to Stage) error {
	const query = `
		UPDATE public.booking_requests
		SET stage = $3, updated_at = now()
		WHERE id = $1 AND stage = $2
	`
	ct, err := tx.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("update stage failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (repo *pgxRepository) TouchLastSeen(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE public.booking_requests
		SET last_seen_at = $2, updated_at = now()
		WHERE id = $1
	`
	ct, err := repo.pool.Exec(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("touch booking request failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (repo *pgxRepository) List(ctx context.Context, filter Filter) ([]*BookingRequest, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(requestColumns + ", count(*) OVER() as total_count").
		From("public.booking_requests")

	if filter.Stage != "" {
		query = query.Where(squirrel.Eq{"stage": filter.Stage})
	}
	if filter.OfferingID != "" {
		query = query.Where(squirrel.Or{
			squirrel.Eq{"product_id": filter.OfferingID},
			squirrel.Eq{"package_id": filter.OfferingID},
		})
	}
	if filter.UserID != "" {
		query = query.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"event_date": filter.DateFrom})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.LtOrEq{"event_date": filter.DateTo})
	}

	orderBy := "created_at"
	if filter.SortBy != "" {
		orderBy = filter.SortBy
	}
	orderDir := "DESC"
	if filter.SortOrder != "" {
		orderDir = filter.SortOrder
	}
	query = query.OrderBy(orderBy + " " + orderDir)

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 {
		filter.PageSize = 20
	}
	offset := (filter.Page - 1) * filter.PageSize
	query = query.Limit(uint64(filter.PageSize)).Offset(uint64(offset))

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list booking requests query failed: %w", err)
	}

	rows, err := repo.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list booking requests failed: %w", err)
	}
	defer rows.Close()

	var requests []*BookingRequest
	var total int

	for rows.Next() {
		var r BookingRequest
		if err := rows.Scan(
			&r.ID, &r.ProductID, &r.PackageID, &r.CampaignID, &r.UserID, &r.VisitorID,
			&r.EventDate, &r.Timezone, &r.SelectedTime, &r.Stage, &r.AvailabilityVersion,
			&r.OfferExpiresAt, &r.LastSeenAt, &r.StripeCheckoutSessionID, &r.CreatedAt, &r.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan booking request failed: %w", err)
		}
		requests = append(requests, &r)
	}

	return requests, total, nil
}

func (repo *pgxRepository) ExpireOverdue(ctx context.Context, now time.Time) ([]string, error) {
	const query = `
		UPDATE public.booking_requests
		SET stage = 'expired', updated_at = now()
		WHERE stage IN ('date_selected', 'time_selected', 'checkout_started')
		  AND offer_expires_at <= $1
		RETURNING id
	`
	rows, err := repo.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("expire overdue requests failed: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan expired request id failed: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
