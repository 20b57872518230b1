package parse

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

type mockCatalog struct {
	templatesForFn func(ctx context.Context, userID uuid.UUID) ([]Template, error)
	saveFn         func(ctx context.Context, userID *uuid.UUID, t *Template) error
}

func (m *mockCatalog) TemplatesFor(ctx context.Context, userID uuid.UUID) ([]Template, error) {
	if m.templatesForFn == nil {
		return nil, nil
	}
	return m.templatesForFn(ctx, userID)
}

func (m *mockCatalog) Save(ctx context.Context, userID *uuid.UUID, t *Template) error {
	if m.saveFn == nil {
		return nil
	}
	return m.saveFn(ctx, userID, t)
}

type mockBillRepo struct {
	createFn     func(ctx context.Context, bill *domain.Bill) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	listByUserFn func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Bill, error)
}

func (m *mockBillRepo) Create(ctx context.Context, bill *domain.Bill) error {
	return m.createFn(ctx, bill)
}
func (m *mockBillRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error) {
	return m.getByIDFn(ctx, id)
}
func (m *mockBillRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Bill, error) {
	return m.listByUserFn(ctx, userID, limit, offset)
}

type mockAI struct {
	parseFn func(ctx context.Context, rawText, regionHint string) (*domain.BetSlip, error)
}

func (m *mockAI) Parse(ctx context.Context, rawText, regionHint string) (*domain.BetSlip, error) {
	return m.parseFn(ctx, rawText, regionHint)
}

func newTestService(bills *mockBillRepo, ai aiParser) *Service {
	if bills == nil {
		bills = &mockBillRepo{}
	}
	return NewService(slog.Default(), &mockCatalog{}, bills, ai)
}

func TestParseText_ZodiacExample(t *testing.T) {
	t.Parallel()

	res, err := newTestService(nil, nil).ParseText(context.Background(), uuid.New(), "蛇猪鸡各数5#")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if res.Status != domain.BillStatusProcessed {
		t.Errorf("status = %s, want processed", res.Status)
	}
	if res.TotalCost != 65 {
		t.Errorf("total cost = %v, want 65", res.TotalCost)
	}
	if res.TargetCount != 13 {
		t.Errorf("target count = %d, want 13", res.TargetCount)
	}
	if len(res.Slips) != 1 || res.Slips[0].Method != domain.ParseMethodTemplate {
		t.Fatalf("slips = %+v, want one template slip", res.Slips)
	}
}

func TestParseText_TwoLines(t *testing.T) {
	t.Parallel()

	res, err := newTestService(nil, nil).ParseText(context.Background(), uuid.New(), "17.29.35各10\n特29 30元")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if len(res.Slips) != 2 {
		t.Fatalf("slips = %d, want 2: %+v", len(res.Slips), res.Slips)
	}
	if res.TotalCost != 60 {
		t.Errorf("total cost = %v, want 60", res.TotalCost)
	}
	if res.TargetCount != 4 {
		t.Errorf("target count = %d, want 4", res.TargetCount)
	}
	if res.Slips[0].LineNumber != 1 || res.Slips[1].LineNumber != 2 {
		t.Errorf("line numbers = %d/%d, want 1/2", res.Slips[0].LineNumber, res.Slips[1].LineNumber)
	}
}

func TestParseText_EmptyText(t *testing.T) {
	t.Parallel()

	_, err := newTestService(nil, nil).ParseText(context.Background(), uuid.New(), "  \n ")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseText_UnrecognizedWithoutAI(t *testing.T) {
	t.Parallel()

	res, err := newTestService(nil, nil).ParseText(context.Background(), uuid.New(), "平特还没想好")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if res.Status != domain.BillStatusUnrecognized {
		t.Errorf("status = %s, want unrecognized", res.Status)
	}
	if res.TotalCost != 0 {
		t.Errorf("total cost = %v, want 0", res.TotalCost)
	}
}

func TestParseText_AIFallbackFires(t *testing.T) {
	t.Parallel()

	var gotHint string
	ai := &mockAI{
		parseFn: func(_ context.Context, _, regionHint string) (*domain.BetSlip, error) {
			gotHint = regionHint
			return &domain.BetSlip{
				Region: regionHint,
				Entries: []domain.BetEntry{{
					Category:  domain.CategorySpecial,
					Region:    regionHint,
					Targets:   []string{"29"},
					Amount:    30,
					TotalCost: 30,
				}},
			}, nil
		},
	}

	res, err := newTestService(nil, ai).ParseText(context.Background(), uuid.New(), "平特还没想好")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if gotHint != domain.DefaultRegion {
		t.Errorf("region hint = %s, want default", gotHint)
	}
	if res.Status != domain.BillStatusProcessed {
		t.Errorf("status = %s, want processed", res.Status)
	}
	if len(res.Slips) != 1 || res.Slips[0].Method != domain.ParseMethodAI {
		t.Fatalf("slips = %+v, want one ai slip", res.Slips)
	}
	if res.Slips[0].LineNumber != 1 {
		t.Errorf("line number = %d, want 1", res.Slips[0].LineNumber)
	}
}

func TestParseText_AIFailureDegradesQuietly(t *testing.T) {
	t.Parallel()

	ai := &mockAI{
		parseFn: func(context.Context, string, string) (*domain.BetSlip, error) {
			return nil, errors.New("upstream busy")
		},
	}

	res, err := newTestService(nil, ai).ParseText(context.Background(), uuid.New(), "平特还没想好")
	if err != nil {
		t.Fatalf("expected no request error, got %v", err)
	}
	if res.Status != domain.BillStatusUnrecognized {
		t.Errorf("status = %s, want unrecognized", res.Status)
	}
}

func TestParseText_AINotCalledWhenTemplatesMatch(t *testing.T) {
	t.Parallel()

	ai := &mockAI{
		parseFn: func(context.Context, string, string) (*domain.BetSlip, error) {
			t.Error("ai must not run when the template pass produced entries")
			return nil, nil
		},
	}

	if _, err := newTestService(nil, ai).ParseText(context.Background(), uuid.New(), "蛇猪鸡各数5#"); err != nil {
		t.Fatalf("ParseText: %v", err)
	}
}

func TestParseText_CatalogErrorFallsBackToBuiltins(t *testing.T) {
	t.Parallel()

	catalog := &mockCatalog{
		templatesForFn: func(context.Context, uuid.UUID) ([]Template, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(slog.Default(), catalog, &mockBillRepo{}, nil)

	res, err := svc.ParseText(context.Background(), uuid.New(), "蛇猪鸡各数5#")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if res.Status != domain.BillStatusProcessed {
		t.Errorf("status = %s, want processed via builtin templates", res.Status)
	}
}

func TestParseText_UserTemplateOverride(t *testing.T) {
	t.Parallel()

	catalog := &mockCatalog{
		templatesForFn: func(context.Context, uuid.UUID) ([]Template, error) {
			return []Template{{
				Name:     "bang_special",
				Category: domain.CategorySpecial,
				Pattern:  `砰\s*(\d{1,2})\s*各\s*(\d+)`,
				Priority: 1,
			}}, nil
		},
	}
	svc := NewService(slog.Default(), catalog, &mockBillRepo{}, nil)

	res, err := svc.ParseText(context.Background(), uuid.New(), "砰29各88 肖")
	if err != nil {
		t.Fatalf("ParseText: %v", err)
	}
	if res.Status != domain.BillStatusProcessed {
		t.Fatalf("status = %s, want processed: %+v", res.Status, res.Slips)
	}
	e := res.Slips[0].Entries[0]
	if e.Category != domain.CategorySpecial || e.TotalCost != 88 {
		t.Errorf("entry = %+v, want special cost 88", e)
	}
}

func TestParseAndStore_PersistsBill(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var stored *domain.Bill
	bills := &mockBillRepo{
		createFn: func(_ context.Context, bill *domain.Bill) error {
			stored = bill
			return nil
		},
	}

	bill, err := newTestService(bills, nil).ParseAndStore(context.Background(), userID, "蛇猪鸡各数5#", domain.SourceManual)
	if err != nil {
		t.Fatalf("ParseAndStore: %v", err)
	}
	if stored == nil || stored.ID != bill.ID {
		t.Fatal("expected the bill to be persisted")
	}
	if bill.UserID != userID {
		t.Errorf("user id = %s, want %s", bill.UserID, userID)
	}
	if bill.ParseVersion != 1 {
		t.Errorf("parse version = %d, want 1", bill.ParseVersion)
	}
	if bill.Status != domain.BillStatusProcessed {
		t.Errorf("status = %s, want processed", bill.Status)
	}
	if bill.Source != domain.SourceManual {
		t.Errorf("source = %s, want manual", bill.Source)
	}
}

func TestParseAndStore_EmailSourceUnwrapped(t *testing.T) {
	t.Parallel()

	raw := "From: punter@example.com\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"蛇猪鸡各数5#\r\n"

	bills := &mockBillRepo{
		createFn: func(context.Context, *domain.Bill) error { return nil },
	}

	bill, err := newTestService(bills, nil).ParseAndStore(context.Background(), uuid.New(), raw, domain.SourceEmail)
	if err != nil {
		t.Fatalf("ParseAndStore: %v", err)
	}
	if bill.Status != domain.BillStatusProcessed {
		t.Fatalf("status = %s, want processed after email unwrap", bill.Status)
	}
	if bill.RawText != "蛇猪鸡各数5#" {
		t.Errorf("raw text = %q, want extracted body", bill.RawText)
	}
}

func TestGetBill_OwnershipEnforced(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	bills := &mockBillRepo{
		getByIDFn: func(_ context.Context, id uuid.UUID) (*domain.Bill, error) {
			return &domain.Bill{ID: id, UserID: owner}, nil
		},
	}
	svc := newTestService(bills, nil)

	if _, err := svc.GetBill(context.Background(), owner, uuid.New()); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := svc.GetBill(context.Background(), uuid.New(), uuid.New()); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for a stranger, got %v", err)
	}
}

func TestListBills_LimitDefaults(t *testing.T) {
	t.Parallel()

	var gotLimit, gotOffset int
	bills := &mockBillRepo{
		listByUserFn: func(_ context.Context, _ uuid.UUID, limit, offset int) ([]domain.Bill, error) {
			gotLimit, gotOffset = limit, offset
			return nil, nil
		},
	}
	svc := newTestService(bills, nil)

	if _, err := svc.ListBills(context.Background(), uuid.New(), 0, -3); err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	if gotLimit != 50 || gotOffset != 0 {
		t.Errorf("limit/offset = %d/%d, want 50/0", gotLimit, gotOffset)
	}

	if _, err := svc.ListBills(context.Background(), uuid.New(), 1000, 10); err != nil {
		t.Fatalf("ListBills: %v", err)
	}
	if gotLimit != 50 || gotOffset != 10 {
		t.Errorf("limit/offset = %d/%d, want 50/10", gotLimit, gotOffset)
	}
}

func TestSaveTemplate_StoresValidated(t *testing.T) {
	t.Parallel()

	var storedOwner *uuid.UUID
	var stored *Template
	catalog := &mockCatalog{
		saveFn: func(_ context.Context, userID *uuid.UUID, tpl *Template) error {
			storedOwner, stored = userID, tpl
			return nil
		},
	}
	svc := NewService(slog.Default(), catalog, &mockBillRepo{}, nil)

	userID := uuid.New()
	got, err := svc.SaveTemplate(context.Background(), userID, Template{
		Name:     "bang",
		Category: domain.CategorySpecial,
		Pattern:  `砰\s*(\d{1,2})\s*各\s*(\d+)`,
	})
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	if stored == nil || storedOwner == nil || *storedOwner != userID {
		t.Fatal("expected the template stored under the user")
	}
	if got.ID == uuid.Nil {
		t.Error("expected a generated ID")
	}
	if got.Priority == 0 {
		t.Error("expected a default priority")
	}
}

func TestSaveTemplate_Rejected(t *testing.T) {
	t.Parallel()

	catalog := &mockCatalog{
		saveFn: func(context.Context, *uuid.UUID, *Template) error {
			t.Error("an invalid template must not reach storage")
			return nil
		},
	}
	svc := NewService(slog.Default(), catalog, &mockBillRepo{}, nil)

	cases := []struct {
		name string
		tpl  Template
	}{
		{"empty name", Template{Category: domain.CategorySpecial, Pattern: `(\d+)各(\d+)`}},
		{"unknown category", Template{Name: "x", Category: "nope", Pattern: `(\d+)各(\d+)`}},
		{"broken pattern", Template{Name: "x", Category: domain.CategorySpecial, Pattern: "("}},
		{"one capture group", Template{Name: "x", Category: domain.CategorySpecial, Pattern: `特(\d+)`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.SaveTemplate(context.Background(), uuid.New(), tc.tpl); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestListTemplates_BuiltinFallback(t *testing.T) {
	t.Parallel()

	svc := NewService(slog.Default(), &mockCatalog{}, &mockBillRepo{}, nil)

	got, err := svc.ListTemplates(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(got) != len(BuiltinTemplates()) {
		t.Errorf("templates = %d, want the builtin catalog", len(got))
	}
}
