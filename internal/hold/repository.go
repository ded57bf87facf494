package hold

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

type Repository interface {
	// Acquire performs the capacity check and the insert as a single
	// transaction. The capacity is re-checked immediately before commit
	// while the offering row is locked, which closes the race between two
	// callers both reading "available" for the last unit. The loser gets
	// ErrSlotUnavailable.
	Acquire(ctx context.Context, h *Hold, capacity int) error

	GetByID(ctx context.Context, id string) (*Hold, error)
	GetActiveByRequestID(ctx context.Context, requestID string) (*Hold, error)

	// Renew extends expires_at. Fails with ErrAlreadyExpired when the hold
	// has lapsed and with ErrNotFound when it never existed or was released.
	Renew(ctx context.Context, id string, expiresAt time.Time) (*Hold, error)

	// Release flips active -> released. Releasing a hold that is already
	// released or expired is a no-op, not an error.
	Release(ctx context.Context, id string) error
	ReleaseTx(ctx context.Context, tx pgx.Tx, id string) error
	ReleaseByRequestID(ctx context.Context, requestID string) error

	// CountActiveOverlapping counts non-expired active holds for the
	// offering whose window intersects [start, end).
	CountActiveOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error)

	// ExpireStale flips active holds whose expires_at has passed to
	// expired, returning how many rows changed.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)

	// ActiveWindowCounts groups active holds by offering and window for
	// the capacity audit.
	ActiveWindowCounts(ctx context.Context, now time.Time) ([]WindowCount, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

const holdColumns = `id, booking_request_id, offering_id, window_start, window_end, status, created_at, expires_at`

func (r *pgxRepository) Acquire(ctx context.Context, h *Hold, capacity int) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin acquire hold tx failed: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the offering row to serialize concurrent acquires per offering.
	var offeringID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM public.offerings WHERE id = $1 FOR UPDATE`,
		h.OfferingID,
	).Scan(&offeringID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOfferingMissing
		}
		return fmt.Errorf("lock offering failed: %w", err)
	}

	// Re-check capacity under the lock: active non-expired holds plus
	// confirmed bookings overlapping the window.
	const usedQuery = `
		SELECT
			(SELECT count(*) FROM public.slot_holds
			 WHERE offering_id = $1 AND status = 'active' AND expires_at > now()
			   AND window_start < $3 AND window_end > $2)
			+
			(SELECT count(*) FROM public.bookings
			 WHERE offering_id = $1 AND window_start < $3 AND window_end > $2)
	`
	var used int
	if err := tx.QueryRow(ctx, usedQuery, h.OfferingID, h.WindowStart, h.WindowEnd).Scan(&used); err != nil {
		return fmt.Errorf("count used capacity failed: %w", err)
	}
	if used >= capacity {
		return ErrSlotUnavailable
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO public.slot_holds
			(booking_request_id, offering_id, window_start, window_end, status, expires_at)
		VALUES ($1, $2, $3, $4, 'active', $5)
		RETURNING id, created_at
	`, h.BookingRequestID, h.OfferingID, h.WindowStart, h.WindowEnd, h.ExpiresAt,
	).Scan(&h.ID, &h.CreatedAt)
	if err != nil {
		// The slot_holds exclusion constraint is the storage-level backstop
		// for the same race; map it to the same caller-visible error.
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) &&
			(pgErr.Code == pgerrcode.ExclusionViolation || pgErr.Code == pgerrcode.UniqueViolation) {
			return ErrSlotUnavailable
		}
		return fmt.Errorf("insert hold failed: %w", err)
	}
	h.Status = StatusActive

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit acquire hold tx failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Hold, error) {
	query := `SELECT ` + holdColumns + ` FROM public.slot_holds WHERE id = $1`

	var h Hold
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&h.ID, &h.BookingRequestID, &h.OfferingID, &h.WindowStart, &h.WindowEnd,
		&h.Status, &h.CreatedAt, &h.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get hold failed: %w", err)
	}
	return &h, nil
}

func (r *pgxRepository) GetActiveByRequestID(ctx context.Context, requestID string) (*Hold, error) {
	query := `
		SELECT ` + holdColumns + `
		FROM public.slot_holds
		WHERE booking_request_id = $1 AND status = 'active' AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1
	`

	var h Hold
	err := r.pool.QueryRow(ctx, query, requestID).Scan(
		&h.ID, &h.BookingRequestID, &h.OfferingID, &h.WindowStart, &h.WindowEnd,
		&h.Status, &h.CreatedAt, &h.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get active hold failed: %w", err)
	}
	return &h, nil
}

func (r *pgxRepository) Renew(ctx context.Context, id string, expiresAt time.Time) (*Hold, error) {
	query := `
		UPDATE public.slot_holds
		SET expires_at = $2
		WHERE id = $1 AND status = 'active' AND expires_at > now()
		RETURNING ` + holdColumns

	var h Hold
	err := r.pool.QueryRow(ctx, query, id, expiresAt).Scan(
		&h.ID, &h.BookingRequestID, &h.OfferingID, &h.WindowStart, &h.WindowEnd,
		&h.Status, &h.CreatedAt, &h.ExpiresAt,
	)
	if err == nil {
		return &h, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("renew hold failed: %w", err)
	}

	// Distinguish a lapsed hold from one that never existed.
	existing, getErr := r.GetByID(ctx, id)
	if getErr != nil {
		return nil, ErrNotFound
	}
	if existing.Status == StatusActive || existing.Status == StatusExpired {
		return nil, ErrAlreadyExpired
	}
	return nil, ErrNotFound
}

func (r *pgxRepository) Release(ctx context.Context, id string) error {
	// Idempotent: only active rows change; repeat calls are no-ops.
	const query = `
		UPDATE public.slot_holds
		SET status = 'released'
		WHERE id = $1 AND status = 'active'
	`
	if _, err := r.pool.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("release hold failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ReleaseTx(ctx context.Context, tx pgx.Tx, id string) error {
	const query = `
		UPDATE public.slot_holds
		SET status = 'released'
		WHERE id = $1 AND status = 'active'
	`
	if _, err := tx.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("release hold failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) ReleaseByRequestID(ctx context.Context, requestID string) error {
	const query = `
		UPDATE public.slot_holds
		SET status = 'released'
		WHERE booking_request_id = $1 AND status = 'active'
	`
	if _, err := r.pool.Exec(ctx, query, requestID); err != nil {
		return fmt.Errorf("release holds for request failed: %w", err)
	}
	return nil
}

func (r *pgxRepository) CountActiveOverlapping(ctx context.Context, offeringID string, start, end time.Time) (int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Select("count(*)").
		From("public.slot_holds").
		Where(squirrel.Eq{"offering_id": offeringID}).
		Where(squirrel.Eq{"status": StatusActive}).
		Where(squirrel.Expr("expires_at > now()")).
		Where(squirrel.Lt{"window_start": end}).
		Where(squirrel.Gt{"window_end": start}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count holds query failed: %w", err)
	}

	var count int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count holds failed: %w", err)
	}
	return count, nil
}

func (r *pgxRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE public.slot_holds
		SET status = 'expired'
		WHERE status = 'active' AND expires_at <= $1
	`
	ct, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("expire stale holds failed: %w", err)
	}
	return ct.RowsAffected(), nil
}

func (r *pgxRepository) ActiveWindowCounts(ctx context.Context, now time.Time) ([]WindowCount, error) {
	const query = `
		SELECT offering_id, window_start, window_end, count(*)
		FROM public.slot_holds
		WHERE status = 'active' AND expires_at > $1
		GROUP BY offering_id, window_start, window_end
	`
	rows, err := r.pool.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("active window counts failed: %w", err)
	}
	defer rows.Close()

	var counts []WindowCount
	for rows.Next() {
		var wc WindowCount
		if err := rows.Scan(&wc.OfferingID, &wc.WindowStart, &wc.WindowEnd, &wc.Holds); err != nil {
			return nil, fmt.Errorf("scan window count failed: %w", err)
		}
		counts = append(counts, wc)
	}
	return counts, nil
}
