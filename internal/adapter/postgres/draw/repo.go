// Package draw implements the lottery draw repository using PostgreSQL.
package draw

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lottobill/lottobill-backend/internal/adapter/postgres"
	"github.com/lottobill/lottobill-backend/internal/domain"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides draw persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new draw repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Upsert stores a draw. A later announcement for the same (region, period)
// replaces the earlier numbers; the row keeps its original id.
func (r *Repo) Upsert(ctx context.Context, d *domain.DrawResult) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Insert("draws").
		Columns("id", "region", "period", "numbers", "zodiacs", "colors", "recorded_at").
		Values(d.ID, d.Region, d.Period, d.Numbers, d.Zodiacs, d.Colors, d.RecordedAt).
		Suffix(`ON CONFLICT (region, period) DO UPDATE SET
			numbers = EXCLUDED.numbers,
			zodiacs = EXCLUDED.zodiacs,
			colors = EXCLUDED.colors,
			recorded_at = EXCLUDED.recorded_at
			RETURNING id`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&d.ID); err != nil {
		return postgres.MapError(err, "draw", d.Region+"/"+d.Period)
	}
	return nil
}

// Latest returns the most recently recorded draw for a region, or
// domain.ErrNotFound when nothing was recorded yet.
func (r *Repo) Latest(ctx context.Context, region string) (*domain.DrawResult, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select("id", "region", "period", "numbers", "zodiacs", "colors", "recorded_at").
		From("draws").
		Where(squirrel.Eq{"region": region}).
		OrderBy("recorded_at DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var d domain.DrawResult
	err = q.QueryRow(ctx, sql, args...).Scan(
		&d.ID, &d.Region, &d.Period, &d.Numbers, &d.Zodiacs, &d.Colors, &d.RecordedAt,
	)
	if err != nil {
		return nil, postgres.MapError(err, "draw", region)
	}
	return &d, nil
}
