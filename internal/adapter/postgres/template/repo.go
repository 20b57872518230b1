// Package template implements the parse template catalog repository.
package template

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/lottobill/lottobill-backend/internal/adapter/postgres"
	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/internal/service/parse"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repo provides the parse template catalog backed by PostgreSQL. Rows with a
// NULL user_id are global defaults shared by everyone.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new template catalog repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// TemplatesFor returns the user's own templates if any exist, else the global
// rows, ordered by priority. An empty result means no catalog rows exist and
// the caller should use its built-in defaults.
func (r *Repo) TemplatesFor(ctx context.Context, userID uuid.UUID) ([]parse.Template, error) {
	templates, err := r.list(ctx, squirrel.Eq{"user_id": userID})
	if err != nil {
		return nil, err
	}
	if len(templates) > 0 {
		return templates, nil
	}
	return r.list(ctx, squirrel.Eq{"user_id": nil})
}

// Save inserts a template row. A nil userID makes it a global default.
func (r *Repo) Save(ctx context.Context, userID *uuid.UUID, t *parse.Template) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Insert("parse_templates").
		Columns("id", "user_id", "name", "category", "pattern", "priority").
		Values(t.ID, userID, t.Name, string(t.Category), t.Pattern, t.Priority).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := q.Exec(ctx, sql, args...); err != nil {
		return postgres.MapError(err, "parse template", t.Name)
	}
	return nil
}

func (r *Repo) list(ctx context.Context, where squirrel.Eq) ([]parse.Template, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select("id", "name", "category", "pattern", "priority").
		From("parse_templates").
		Where(where).
		OrderBy("priority ASC", "created_at ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "parse templates", "")
	}
	defer rows.Close()

	var templates []parse.Template
	for rows.Next() {
		var (
			t        parse.Template
			category string
		)
		if err := rows.Scan(&t.ID, &t.Name, &category, &t.Pattern, &t.Priority); err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		t.Category = domain.Category(category)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}
