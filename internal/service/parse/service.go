// Package parse turns free-form wagering text into canonical bills using the
// template → manual → AI strategy chain.
package parse

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/pkg/mailtext"
)

type catalogRepo interface {
	// TemplatesFor returns the user's templates if any exist, else the
	// global rows, ordered by priority. An empty slice means the built-in
	// defaults apply.
	TemplatesFor(ctx context.Context, userID uuid.UUID) ([]Template, error)
	// Save inserts a template row. A nil userID makes it a global default.
	Save(ctx context.Context, userID *uuid.UUID, t *Template) error
}

type billRepo interface {
	Create(ctx context.Context, bill *domain.Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Bill, error)
}

type aiParser interface {
	// Parse is best-effort; an error or a nil slip both mean "nothing
	// recognized".
	Parse(ctx context.Context, rawText, regionHint string) (*domain.BetSlip, error)
}

// Result is the outcome of parsing one raw text.
type Result struct {
	Slips       []domain.BetSlip
	Status      domain.BillStatus
	TotalCost   float64
	TargetCount int
	SkippedText []string
}

// Service wires the segmenter and the parse strategies together and owns the
// bill aggregate.
type Service struct {
	log       *slog.Logger
	catalog   catalogRepo
	bills     billRepo
	ai        aiParser
	segmenter *Segmenter
	manual    *ManualParser
}

// NewService creates a parse service. ai may be nil when no AI collaborator
// is configured.
func NewService(log *slog.Logger, catalog catalogRepo, bills billRepo, ai aiParser) *Service {
	return &Service{
		log:       log.With("service", "parse"),
		catalog:   catalog,
		bills:     bills,
		ai:        ai,
		segmenter: NewSegmenter(),
		manual:    NewManualParser(),
	}
}

// ParseText runs the full strategy chain over raw text without persisting
// anything.
func (s *Service) ParseText(ctx context.Context, userID uuid.UUID, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, domain.NewValidationError("text", "empty")
	}

	parser := s.templateParser(ctx, userID)
	seg := s.segmenter.Segment(text)

	slips := make([]domain.BetSlip, 0, len(seg.Lines))
	total := 0
	for _, ln := range seg.Lines {
		entries, remaining := parser.ParseLine(ln.Text, ln.Region)
		method := domain.ParseMethodNone
		if len(entries) > 0 {
			method = domain.ParseMethodTemplate
		}
		slips = append(slips, domain.BetSlip{
			LineNumber:   ln.LineNumber,
			Region:       ln.Region,
			RawText:      ln.Text,
			UnparsedText: remaining,
			Method:       method,
			Entries:      entries,
		})
		total += len(entries)
	}

	if total == 0 {
		if manualSlips := s.manual.Parse(domain.NormalizeText(text), domain.DefaultRegion); len(manualSlips) > 0 {
			for i := range manualSlips {
				manualSlips[i].LineNumber = i + 1
			}
			slips = manualSlips
			total = len(manualSlips)
			s.log.InfoContext(ctx, "manual recognizers fired", slog.Int("slips", len(manualSlips)))
		}
	}

	if total == 0 && s.ai != nil {
		slip, err := s.ai.Parse(ctx, text, domain.DefaultRegion)
		switch {
		case err != nil:
			// AI failure degrades to ParseEmpty, never to a request error.
			s.log.WarnContext(ctx, "ai parse failed", slog.String("error", err.Error()))
		case slip != nil && slip.Recognized():
			slip.LineNumber = 1
			slip.Method = domain.ParseMethodAI
			slips = []domain.BetSlip{*slip}
		}
	}

	res := Result{Slips: slips, SkippedText: seg.Skipped}
	bill := domain.Bill{Slips: slips}
	res.Status = bill.DeriveStatus()
	res.TotalCost = bill.TotalCost()
	res.TargetCount = bill.TargetCount()
	return res, nil
}

// ParseAndStore parses the text and persists the resulting bill. Email
// sources are unwrapped to their text body first.
func (s *Service) ParseAndStore(ctx context.Context, userID uuid.UUID, text, source string) (*domain.Bill, error) {
	if source == domain.SourceEmail {
		text = mailtext.ExtractBody(text)
	}
	res, err := s.ParseText(ctx, userID, text)
	if err != nil {
		return nil, err
	}
	bill := &domain.Bill{
		ID:           uuid.New(),
		UserID:       userID,
		Source:       source,
		RawText:      text,
		Status:       res.Status,
		ParseVersion: 1,
		Slips:        res.Slips,
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "bill parsed",
		slog.String("bill_id", bill.ID.String()),
		slog.String("status", string(bill.Status)),
		slog.Int("slips", len(bill.Slips)),
		slog.Float64("total_cost", res.TotalCost),
	)
	return bill, nil
}

// GetBill returns one of the user's bills.
func (s *Service) GetBill(ctx context.Context, userID, billID uuid.UUID) (*domain.Bill, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return bill, nil
}

// ListBills returns the user's bills, newest first.
func (s *Service) ListBills(ctx context.Context, userID uuid.UUID, limit, offset int) ([]domain.Bill, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.bills.ListByUser(ctx, userID, limit, offset)
}

// templateParser resolves the catalog override chain: user rows, else global
// rows, else built-in defaults. Catalog errors degrade to the defaults.
func (s *Service) templateParser(ctx context.Context, userID uuid.UUID) *TemplateParser {
	templates, err := s.catalog.TemplatesFor(ctx, userID)
	if err != nil {
		s.log.WarnContext(ctx, "template catalog unavailable, using builtins", slog.String("error", err.Error()))
		templates = nil
	}
	if len(templates) == 0 {
		templates = BuiltinTemplates()
	}
	parser, dropped := NewTemplateParser(templates)
	for _, name := range dropped {
		s.log.WarnContext(ctx, "template pattern rejected, skipped", slog.String("template", name))
	}
	return parser
}

// ListTemplates returns the catalog the user's parses run against: their own
// rows, the global rows, or the built-in defaults.
func (s *Service) ListTemplates(ctx context.Context, userID uuid.UUID) ([]Template, error) {
	templates, err := s.catalog.TemplatesFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(templates) == 0 {
		templates = BuiltinTemplates()
	}
	return templates, nil
}

// SaveTemplate validates and stores a template override for the user. The
// pattern must compile and carry the targets and stake capture groups, the
// same bar templateParser holds loaded rows to.
func (s *Service) SaveTemplate(ctx context.Context, userID uuid.UUID, t Template) (*Template, error) {
	if strings.TrimSpace(t.Name) == "" {
		return nil, domain.NewValidationError("name", "required")
	}
	if !t.Category.Valid() {
		return nil, domain.NewValidationError("category", "unknown category")
	}
	re, err := regexp.Compile(t.Pattern)
	if err != nil {
		return nil, domain.NewValidationError("pattern", "does not compile")
	}
	if re.NumSubexp() < 2 {
		return nil, domain.NewValidationError("pattern", "needs targets and stake capture groups")
	}

	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Priority == 0 {
		t.Priority = 50
	}
	if err := s.catalog.Save(ctx, &userID, &t); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "template saved",
		slog.String("template", t.Name),
		slog.String("category", string(t.Category)),
	)
	return &t, nil
}
