// Package odds implements the per-user odds schedule repository.
package odds

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lottobill/lottobill-backend/internal/adapter/postgres"
	"github.com/lottobill/lottobill-backend/internal/domain"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides odds schedule persistence backed by PostgreSQL. The schedule
// is a single JSONB row per user.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new odds schedule repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// GetByUser returns the user's schedule, or domain.ErrNotFound when none was
// ever saved.
func (r *Repo) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select("user_id", "odds", "updated_at").
		From("odds_schedules").
		Where(squirrel.Eq{"user_id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var (
		schedule domain.OddsSchedule
		oddsJSON []byte
	)
	err = q.QueryRow(ctx, sql, args...).Scan(&schedule.UserID, &oddsJSON, &schedule.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "odds schedule", userID.String())
	}
	if err := json.Unmarshal(oddsJSON, &schedule.Values); err != nil {
		return nil, fmt.Errorf("unmarshal odds: %w", err)
	}
	return &schedule, nil
}

// Upsert saves the user's schedule, replacing any previous values.
func (r *Repo) Upsert(ctx context.Context, schedule *domain.OddsSchedule) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	oddsJSON, err := json.Marshal(schedule.Values)
	if err != nil {
		return fmt.Errorf("marshal odds: %w", err)
	}

	sql, args, err := psql.Insert("odds_schedules").
		Columns("user_id", "odds", "updated_at").
		Values(schedule.UserID, oddsJSON, squirrel.Expr("now()")).
		Suffix(`ON CONFLICT (user_id) DO UPDATE SET
			odds = EXCLUDED.odds,
			updated_at = now()
			RETURNING updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&schedule.UpdatedAt); err != nil {
		return postgres.MapError(err, "odds schedule", schedule.UserID.String())
	}
	return nil
}
