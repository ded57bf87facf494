package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	// CreateTx inserts a confirmed booking inside an existing transaction.
	// The payment-completion path runs the stage transition, the hold
	// release and this insert as one atomic unit.
	CreateTx(ctx context.Context, tx pgx.Tx, b *Booking) error

	GetByRequestID(ctx context.Context, requestID string) (*Booking, error)

	// CountOverlapping counts confirmed bookings for the offering whose
	// window intersects [start, end).
	CountOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) CreateTx(ctx context.Context, tx pgx.Tx, b *Booking) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.bookings").
		Columns("booking_request_id", "offering_id", "user_id", "visitor_id",
			"window_start", "window_end").
		Values(b.BookingRequestID, b.OfferingID, b.UserID, b.VisitorID,
			b.WindowStart, b.WindowEnd).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create booking query failed: %w", err)
	}

	return tx.QueryRow(ctx, query, args...).Scan(&b.ID, &b.CreatedAt)
}

func (r *pgxRepository) GetByRequestID(ctx context.Context, requestID string) (*Booking, error) {
	const query = `
		SELECT id, booking_request_id, offering_id, user_id, visitor_id,
		       window_start, window_end, created_at
		FROM public.bookings
		WHERE booking_request_id = $1
	`
	row := r.pool.QueryRow(ctx, query, requestID)

	var b Booking
	if err := row.Scan(
		&b.ID, &b.BookingRequestID, &b.OfferingID, &b.UserID, &b.VisitorID,
		&b.WindowStart, &b.WindowEnd, &b.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get booking failed: %w", err)
	}
	return &b, nil
}

func (r *pgxRepository) CountOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.bookings").
		Where(squirrel.Eq{"offering_id": offeringID}).
		Where(squirrel.Lt{"window_start": end}).
		Where(squirrel.Gt{"window_end": start}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count bookings query failed: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count bookings failed: %w", err)
	}
	return count, nil
}
