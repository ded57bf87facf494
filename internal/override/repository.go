package override

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	Create(ctx context.Context, o *Override) error
	ListForDate(ctx context.Context, offeringID string, date time.Time) ([]*Override, error)
	List(ctx context.Context, filter Filter) ([]*Override, int, error)
	Delete(ctx context.Context, id string) error
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) Create(ctx context.Context, o *Override) error {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query, args, err := psql.Insert("public.availability_overrides").
		Columns("offering_id", "date", "window_start", "window_end",
			"blackout", "capacity_override", "note", "created_by").
		Values(o.OfferingID, o.Date, o.WindowStart, o.WindowEnd,
			o.Blackout, o.CapacityOverride, o.Note, o.CreatedBy).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build create override query failed: %w", err)
	}

	return r.pool.QueryRow(ctx, query, args...).Scan(&o.ID, &o.CreatedAt)
}

func (r *pgxRepository) ListForDate(ctx context.Context, offeringID string, date time.Time) ([]*Override, error) {
	const query = `
		SELECT id, offering_id, date, window_start, window_end,
		       blackout, capacity_override, note, created_by, created_at
		FROM public.availability_overrides
		WHERE offering_id = $1 AND date = $2
		ORDER BY blackout DESC, created_at
	`
	rows, err := r.pool.Query(ctx, query, offeringID, date)
	if err != nil {
		return nil, fmt.Errorf("list overrides for date failed: %w", err)
	}
	defer rows.Close()

	return scanOverrides(rows.Next, rows.Scan)
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Override, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "offering_id", "date", "window_start", "window_end",
		"blackout", "capacity_override", "note", "created_by", "created_at",
		"count(*) OVER() as total_count",
	).From("public.availability_overrides")

	if filter.OfferingID != "" {
		query = query.Where(squirrel.Eq{"offering_id": filter.OfferingID})
	}
	if filter.DateFrom != nil {
		query = query.Where(squirrel.GtOrEq{"date": filter.DateFrom})
	}
	if filter.DateTo != nil {
		query = query.Where(squirrel.LtOrEq{"date": filter.DateTo})
	}

	query = query.OrderBy("date DESC, created_at DESC")

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
		return nil, 0, fmt.Errorf("build list overrides query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list overrides failed: %w", err)
	}
	defer rows.Close()

	var overrides []*Override
	var total int

	for rows.Next() {
		var o Override
		if err := rows.Scan(
			&o.ID, &o.OfferingID, &o.Date, &o.WindowStart, &o.WindowEnd,
			&o.Blackout, &o.CapacityOverride, &o.Note, &o.CreatedBy, &o.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan override failed: %w", err)
		}
		overrides = append(overrides, &o)
	}

	return overrides, total, nil
}

func (r *pgxRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM public.availability_overrides WHERE id = $1`
	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete override failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanOverrides(next func() bool, scan func(...any) error) ([]*Override, error) {
	var overrides []*Override
	for next() {
		var o Override
		if err := scan(
			&o.ID, &o.OfferingID, &o.Date, &o.WindowStart, &o.WindowEnd,
			&o.Blackout, &o.CapacityOverride, &o.Note, &o.CreatedBy, &o.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan override failed: %w", err)
		}
		overrides = append(overrides, &o)
	}
	return overrides, nil
}
