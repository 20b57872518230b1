package template_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/adapter/postgres/template"
	"github.com/lottobill/lottobill-backend/internal/adapter/postgres/testhelper"
	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/internal/service/parse"
)

func TestRepo_TemplatesFor_Empty(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := template.New(pool)

	got, err := repo.TemplatesFor(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("TemplatesFor: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected an empty catalog, got %d rows", len(got))
	}
}

func TestRepo_TemplatesFor_GlobalFallback(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := template.New(pool)
	ctx := context.Background()

	global := &parse.Template{
		ID:       uuid.New(),
		Name:     "special_shared",
		Category: domain.CategorySpecial,
		Pattern:  `特码?\s*(\d{1,2})`,
		Priority: 10,
	}
	if err := repo.Save(ctx, nil, global); err != nil {
		t.Fatalf("Save global: %v", err)
	}

	got, err := repo.TemplatesFor(ctx, uuid.New())
	if err != nil {
		t.Fatalf("TemplatesFor: %v", err)
	}
	if len(got) != 1 || got[0].Name != "special_shared" {
		t.Fatalf("expected the global template, got %+v", got)
	}
	if got[0].Category != domain.CategorySpecial {
		t.Errorf("category = %s, want %s", got[0].Category, domain.CategorySpecial)
	}
}

func TestRepo_TemplatesFor_UserRowsShadowGlobals(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := template.New(pool)
	ctx := context.Background()

	u := testhelper.SeedUser(t, pool)

	global := &parse.Template{
		ID:       uuid.New(),
		Name:     "special_shared",
		Category: domain.CategorySpecial,
		Pattern:  `特码?\s*(\d{1,2})`,
		Priority: 10,
	}
	if err := repo.Save(ctx, nil, global); err != nil {
		t.Fatalf("Save global: %v", err)
	}

	own := &parse.Template{
		ID:       uuid.New(),
		Name:     "special_custom",
		Category: domain.CategorySpecial,
		Pattern:  `砰\s*(\d{1,2})`,
		Priority: 5,
	}
	if err := repo.Save(ctx, &u.ID, own); err != nil {
		t.Fatalf("Save user template: %v", err)
	}

	got, err := repo.TemplatesFor(ctx, u.ID)
	if err != nil {
		t.Fatalf("TemplatesFor: %v", err)
	}
	if len(got) != 1 || got[0].Name != "special_custom" {
		t.Fatalf("expected only the user's own template, got %+v", got)
	}
}

func TestRepo_TemplatesFor_OrderedByPriority(t *testing.T) {
	t.Parallel()
	pool := testhelper.SetupTestDB(t)
	repo := template.New(pool)
	ctx := context.Background()

	u := testhelper.SeedUser(t, pool)

	for i, name := range []string{"third", "first", "second"} {
		priorities := map[string]int{"first": 1, "second": 2, "third": 3}
		tpl := &parse.Template{
			ID:       uuid.New(),
			Name:     name,
			Category: domain.CategoryNumberList,
			Pattern:  `(\d{1,2})`,
			Priority: priorities[name],
		}
		if err := repo.Save(ctx, &u.ID, tpl); err != nil {
			t.Fatalf("Save %d: %v", i, err)
		}
	}

	got, err := repo.TemplatesFor(ctx, u.ID)
	if err != nil {
		t.Fatalf("TemplatesFor: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(got))
	}
	for i, want := range []string{"first", "second", "third"} {
		if got[i].Name != want {
			t.Errorf("position %d = %s, want %s", i, got[i].Name, want)
		}
	}
}
