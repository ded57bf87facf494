package offering

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*Offering, error)
	List(ctx context.Context, filter Filter) ([]*Offering, int, error)
}

type pgxRepository struct {
	pool *pgxpool.Pool
}

func NewPgxRepository(pool *pgxpool.Pool) Repository {
	return &pgxRepository{pool: pool}
}

func (r *pgxRepository) GetByID(ctx context.Context, id string) (*Offering, error) {
	const query = `
		SELECT id, name, kind, campaign_id, day_start, day_end,
		       slot_duration_minutes, slot_capacity, price_cents, currency,
		       active, created_at
		FROM public.offerings
		WHERE id = $1
	`
	row := r.pool.QueryRow(ctx, query, id)

	var o Offering
	if err := row.Scan(
		&o.ID, &o.Name, &o.Kind, &o.CampaignID, &o.DayStart, &o.DayEnd,
		&o.SlotDurationMinutes, &o.SlotCapacity, &o.PriceCents, &o.Currency,
		&o.Active, &o.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get offering failed: %w", err)
	}
	return &o, nil
}

func (r *pgxRepository) List(ctx context.Context, filter Filter) ([]*Offering, int, error) {
	psql := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
	query := psql.Select(
		"id", "name", "kind", "campaign_id", "day_start", "day_end",
		"slot_duration_minutes", "slot_capacity", "price_cents", "currency",
		"active", "created_at",
		"count(*) OVER() as total_count",
	).From("public.offerings")

	if filter.Kind != "" {
		query = query.Where(squirrel.Eq{"kind": filter.Kind})
	}
	if filter.CampaignID != "" {
		query = query.Where(squirrel.Eq{"campaign_id": filter.CampaignID})
	}
	if filter.ActiveOnly {
		query = query.Where(squirrel.Eq{"active": true})
	}

	query = query.OrderBy("created_at DESC")

	// Pagination
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
		return nil, 0, fmt.Errorf("build list offerings query failed: %w", err)
	}

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list offerings failed: %w", err)
	}
	defer rows.Close()

	var offerings []*Offering
	var total int

	for rows.Next() {
		var o Offering
		if err := rows.Scan(
			&o.ID, &o.Name, &o.Kind, &o.CampaignID, &o.DayStart, &o.DayEnd,
			&o.SlotDurationMinutes, &o.SlotCapacity, &o.PriceCents, &o.Currency,
			&o.Active, &o.CreatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan offering failed: %w", err)
		}
		offerings = append(offerings, &o)
	}

	return offerings, total, nil
}
