package parse

import (
	"testing"
	"time"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

func builtinParser(t *testing.T) *TemplateParser {
	t.Helper()
	p, dropped := NewTemplateParser(BuiltinTemplates())
	if len(dropped) != 0 {
		t.Fatalf("builtin templates dropped: %v", dropped)
	}
	return p
}

func TestTemplateParser_ZodiacEach(t *testing.T) {
	t.Parallel()

	entries, remaining := builtinParser(t).ParseLine("蛇猪鸡各数5#", domain.DefaultRegion)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Category != domain.CategoryZodiac {
		t.Errorf("category = %s, want zodiac", e.Category)
	}
	if len(e.Targets) != 13 {
		t.Errorf("targets = %d, want 13 (蛇 carries 49)", len(e.Targets))
	}
	if e.Amount != 5 || e.TotalCost != 65 {
		t.Errorf("amount/cost = %v/%v, want 5/65", e.Amount, e.TotalCost)
	}
	if remaining != "" {
		t.Errorf("remaining = %q, want empty", remaining)
	}
}

func TestTemplateParser_NumberList(t *testing.T) {
	t.Parallel()

	entries, _ := builtinParser(t).ParseLine("17.29.35各10", domain.RegionHongKong)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Category != domain.CategoryNumberList {
		t.Errorf("category = %s, want number_list", e.Category)
	}
	want := []string{"17", "29", "35"}
	if len(e.Targets) != len(want) {
		t.Fatalf("targets = %v, want %v", e.Targets, want)
	}
	for i, tok := range want {
		if e.Targets[i] != tok {
			t.Errorf("targets[%d] = %s, want %s", i, e.Targets[i], tok)
		}
	}
	if e.TotalCost != 30 {
		t.Errorf("total cost = %v, want 30", e.TotalCost)
	}
	if e.Region != domain.RegionHongKong {
		t.Errorf("region = %s, want %s", e.Region, domain.RegionHongKong)
	}
}

func TestTemplateParser_SpecialAndListOnOneLine(t *testing.T) {
	t.Parallel()

	entries, remaining := builtinParser(t).ParseLine("17.29.35各10 特29 30", domain.DefaultRegion)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d: %+v", len(entries), entries)
	}

	var special, list *domain.BetEntry
	for i := range entries {
		switch entries[i].Category {
		case domain.CategorySpecial:
			special = &entries[i]
		case domain.CategoryNumberList:
			list = &entries[i]
		}
	}
	if special == nil || list == nil {
		t.Fatalf("expected one special and one number_list entry, got %+v", entries)
	}
	if len(special.Targets) != 1 || special.Targets[0] != "29" || special.TotalCost != 30 {
		t.Errorf("special = %+v, want target 29 cost 30", special)
	}
	if list.TotalCost != 30 {
		t.Errorf("list cost = %v, want 30", list.TotalCost)
	}
	if remaining != "" {
		t.Errorf("remaining = %q, want empty", remaining)
	}
}

func TestTemplateParser_Multiplier(t *testing.T) {
	t.Parallel()

	entries, _ := builtinParser(t).ParseLine("07x30", domain.DefaultRegion)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Category != domain.CategoryMultiplier {
		t.Errorf("category = %s, want multiplier", e.Category)
	}
	if len(e.Targets) != 1 || e.Targets[0] != "07" {
		t.Errorf("targets = %v, want [07]", e.Targets)
	}
	// Multiplier stakes once, not per target.
	if e.TotalCost != 30 {
		t.Errorf("total cost = %v, want 30", e.TotalCost)
	}
}

func TestTemplateParser_ChineseStake(t *testing.T) {
	t.Parallel()

	entries, _ := builtinParser(t).ParseLine("蛇各十五元", domain.DefaultRegion)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Amount != 15 {
		t.Errorf("amount = %v, want 15", entries[0].Amount)
	}
	if entries[0].TotalCost != 75 {
		t.Errorf("total cost = %v, want 75 (5 targets)", entries[0].TotalCost)
	}
}

func TestTemplateParser_UnmatchedTextRemains(t *testing.T) {
	t.Parallel()

	entries, remaining := builtinParser(t).ParseLine("今晚买 17.29各10", domain.DefaultRegion)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if remaining != "今晚买" {
		t.Errorf("remaining = %q, want 今晚买", remaining)
	}
}

func TestTemplateParser_BadNumberRejectsCapture(t *testing.T) {
	t.Parallel()

	// 53 is outside the board; the whole capture is discarded.
	entries, _ := builtinParser(t).ParseLine("17.53各10", domain.DefaultRegion)
	if len(entries) != 0 {
		t.Fatalf("expected 0 entries, got %+v", entries)
	}
}

func TestNewTemplateParser_DropsBadPatterns(t *testing.T) {
	t.Parallel()

	templates := []Template{
		{Name: "broken", Category: domain.CategorySpecial, Pattern: "("},
		{Name: "no_groups", Category: domain.CategorySpecial, Pattern: `\d*`},
		{Name: "one_group", Category: domain.CategorySpecial, Pattern: `特(\d{1,2})`},
		{Name: "fine", Category: domain.CategorySpecial, Pattern: `特(\d{1,2})各(\d+)`},
	}
	p, dropped := NewTemplateParser(templates)
	if len(dropped) != 3 {
		t.Fatalf("dropped = %v, want [broken no_groups one_group]", dropped)
	}
	if len(p.templates) != 1 || p.templates[0].Name != "fine" {
		t.Fatalf("compiled = %+v, want only the well-formed template", p.templates)
	}

	// A catalog with too few capture groups must never reach ParseLine's
	// group extraction.
	entries, remaining := p.ParseLine("hello", domain.DefaultRegion)
	if len(entries) != 0 || remaining != "hello" {
		t.Errorf("entries/remaining = %v/%q, want none/hello", entries, remaining)
	}
}

func TestTemplateParser_ZeroWidthMatchTerminates(t *testing.T) {
	t.Parallel()

	// Both groups are optional, so the pattern matches the empty string at
	// position zero and consumes nothing. The parser must move on instead of
	// re-matching the same spot.
	templates := []Template{
		{Name: "optional", Category: domain.CategoryNumberList, Pattern: `(\d*)(\d*)`},
	}
	p, dropped := NewTemplateParser(templates)
	if len(dropped) != 0 {
		t.Fatalf("dropped = %v, want none", dropped)
	}

	done := make(chan struct{})
	var entries []domain.BetEntry
	var remaining string
	go func() {
		entries, remaining = p.ParseLine("hello", domain.DefaultRegion)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ParseLine did not return on a zero-width match")
	}
	if len(entries) != 0 || remaining != "hello" {
		t.Errorf("entries/remaining = %v/%q, want none/hello", entries, remaining)
	}
}

func TestTemplateParser_DuplicateTargetsDeduped(t *testing.T) {
	t.Parallel()

	entries, _ := builtinParser(t).ParseLine("17.17.29各10", domain.DefaultRegion)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if len(entries[0].Targets) != 2 {
		t.Errorf("targets = %v, want deduped to 2", entries[0].Targets)
	}
	if entries[0].TotalCost != 20 {
		t.Errorf("total cost = %v, want 20", entries[0].TotalCost)
	}
}
