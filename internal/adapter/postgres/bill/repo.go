// Package bill implements the bill repository using PostgreSQL. Slips and
// settlements are stored as JSONB documents alongside the bill row.
package bill

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

const billColumns = "id, user_id, source, raw_text, status, parse_version, slips, total_winnings, created_at, updated_at"

// Repo provides bill persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new bill repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Create inserts a new bill with its parsed slips.
func (r *Repo) Create(ctx context.Context, bill *domain.Bill) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	slips, err := json.Marshal(bill.Slips)
	if err != nil {
		return fmt.Errorf("marshal slips: %w", err)
	}

	sql, args, err := psql.Insert("bills").
		Columns("id", "user_id", "source", "raw_text", "status", "parse_version", "slips").
		Values(bill.ID, bill.UserID, bill.Source, bill.RawText, string(bill.Status), bill.ParseVersion, slips).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if err := q.QueryRow(ctx, sql, args...).Scan(&bill.CreatedAt, &bill.UpdatedAt); err != nil {
		return postgres.MapError(err, "bill", bill.ID.String())
	}
	return nil
}

// GetByID returns a bill by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	return r.get(ctx, id, false)
}

// GetForUpdate returns a bill with its row locked for the current
// transaction.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	return r.get(ctx, id, true)
}

func (r *Repo) get(ctx context.Context, id uuid.UUID, forUpdate bool) (*domain.Bill, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	b := psql.Select(billColumns).From("bills").Where(squirrel.Eq{"id": id})
	if forUpdate {
		b = b.Suffix("FOR UPDATE")
	}
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	bill, err := scanBill(q.QueryRow(ctx, sql, args...))
	if err != nil {
		return nil, postgres.MapError(err, "bill", id.String())
	}
	return bill, nil
}

// ListByUser returns the user's bills, newest first.
func (r *Repo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Bill, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := psql.Select(billColumns).From("bills").
		Where(squirrel.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, "bills", userID.String())
	}
	defer rows.Close()

	var bills []domain.Bill
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *bill)
	}
	return bills, rows.Err()
}

// SaveSettlement persists the settled slips (with winnings filled in), the
// bill totals, and the settlement document.
func (r *Repo) SaveSettlement(ctx context.Context, bill *domain.Bill, st *domain.Settlement) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	slips, err := json.Marshal(bill.Slips)
	if err != nil {
		return fmt.Errorf("marshal slips: %w", err)
	}
	settlement, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settlement: %w", err)
	}

	sql, args, err := psql.Update("bills").
		Set("slips", slips).
		Set("settlement", settlement).
		Set("total_winnings", bill.TotalWinnings).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": bill.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "bill", bill.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", bill.ID, domain.ErrNotFound)
	}
	return nil
}

// ReplaceParse swaps the bill's slips and settlement under an optimistic
// version check. A concurrent calibration that already bumped parse_version
// makes this a domain.ErrConflict.
func (r *Repo) ReplaceParse(ctx context.Context, bill *domain.Bill, st *domain.Settlement, expectedVersion int) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	slips, err := json.Marshal(bill.Slips)
	if err != nil {
		return fmt.Errorf("marshal slips: %w", err)
	}
	settlement, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal settlement: %w", err)
	}

	sql, args, err := psql.Update("bills").
		Set("slips", slips).
		Set("settlement", settlement).
		Set("status", string(bill.Status)).
		Set("total_winnings", bill.TotalWinnings).
		Set("parse_version", expectedVersion+1).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": bill.ID, "parse_version": expectedVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, "bill", bill.ID.String())
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("bill %s: %w", bill.ID, domain.ErrConflict)
	}
	bill.ParseVersion = expectedVersion + 1
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBill(row rowScanner) (*domain.Bill, error) {
	var (
		bill      domain.Bill
		status    string
		slipsJSON []byte
	)
	err := row.Scan(
		&bill.ID, &bill.UserID, &bill.Source, &bill.RawText, &status,
		&bill.ParseVersion, &slipsJSON, &bill.TotalWinnings,
		&bill.CreatedAt, &bill.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	bill.Status = domain.BillStatus(status)
	if err := json.Unmarshal(slipsJSON, &bill.Slips); err != nil {
		return nil, fmt.Errorf("unmarshal slips: %w", err)
	}
	return &bill, nil
}
