package testhelper

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user row and returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:           uuid.New(),
		Email:        "testuser-" + suffix + "@example.com",
		Name:         "Test User " + suffix,
		PasswordHash: "$2a$10$seeded-hash-" + suffix,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedBill creates a bill row for the user with the given slips and returns
// the filled domain.Bill.
func SeedBill(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, slips []domain.BetSlip) domain.Bill {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	bill := domain.Bill{
		ID:           uuid.New(),
		UserID:       userID,
		Source:       "test",
		RawText:      "seeded bill " + uniqueSuffix(),
		Status:       domain.BillStatusProcessed,
		ParseVersion: 1,
		Slips:        slips,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	bill.Status = bill.DeriveStatus()

	slipsJSON, err := json.Marshal(bill.Slips)
	if err != nil {
		t.Fatalf("testhelper: SeedBill marshal slips: %v", err)
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO bills (id, user_id, source, raw_text, status, parse_version, slips, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		bill.ID, bill.UserID, bill.Source, bill.RawText, string(bill.Status), bill.ParseVersion, slipsJSON,
		bill.CreatedAt, bill.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedBill insert bill: %v", err)
	}

	return bill
}

// SeedDraw creates a draw row and returns the filled domain.DrawResult.
func SeedDraw(t *testing.T, pool *pgxpool.Pool, region, period string, numbers []string) domain.DrawResult {
	t.Helper()
	ctx := context.Background()

	d := domain.DrawResult{
		ID:         uuid.New(),
		Region:     region,
		Period:     period,
		Numbers:    numbers,
		RecordedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
	d.FillDerived()

	_, err := pool.Exec(ctx,
		`INSERT INTO draws (id, region, period, numbers, zodiacs, colors, recorded_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.ID, d.Region, d.Period, d.Numbers, d.Zodiacs, d.Colors, d.RecordedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDraw insert draw: %v", err)
	}

	return d
}

// WagerSlip builds a single-entry slip for seeding bills in tests.
func WagerSlip(line int, category domain.Category, targets []string, amount float64) domain.BetSlip {
	entry := domain.BetEntry{
		Category: category,
		Targets:  targets,
		Amount:   amount,
	}
	entry.TotalCost = entry.ComputeCost()
	return domain.BetSlip{
		LineNumber: line,
		Region:     domain.DefaultRegion,
		RawText:    "seeded wager",
		Method:     domain.ParseMethodTemplate,
		Entries:    []domain.BetEntry{entry},
	}
}
