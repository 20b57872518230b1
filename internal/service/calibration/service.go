// Package calibration implements the human correction loop: replace one
// stored parse unit, re-settle, persist both atomically, then notify the
// AI-training collaborator.
package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
	"github.com/lottobill/lottobill-backend/internal/service/settlement"
)

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type billRepo interface {
	// GetForUpdate locks the bill row for the transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	// ReplaceParse swaps the bill's slips and settlement, bumping
	// parse_version from expectedVersion. A version mismatch returns
	// domain.ErrConflict.
	ReplaceParse(ctx context.Context, bill *domain.Bill, st *domain.Settlement, expectedVersion int) error
}

type drawSource interface {
	Latest(ctx context.Context, region string) (*domain.DrawResult, error)
}

type oddsRepo interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error)
}

type trainer interface {
	// Train forwards a correction triple; best-effort.
	Train(ctx context.Context, originalText, originalParse, correctedParse, reason string) error
}

// Correction is the human-supplied replacement for one parsed entry.
type Correction struct {
	Category   domain.Category
	Targets    []string
	Amount     float64
	AmountMode domain.AmountMode
	Reason     string
}

// Result reports the calibrated slip and the fresh settlement. BatchID and
// LineNumber identify the replaced unit; TrainWarning carries a training
// notification failure, which never fails the calibration itself.
type Result struct {
	BatchID      uuid.UUID
	LineNumber   int
	Slip         domain.BetSlip
	ParseVersion int
	Settlement   *domain.Settlement
	TrainWarning string
}

// Service runs calibrations. The replace + re-settle + persist sequence is a
// single transaction; concurrent corrections to the same bill are serialized
// by the row lock and the parse_version compare-and-swap.
type Service struct {
	log     *slog.Logger
	tx      txManager
	bills   billRepo
	draws   drawSource
	odds    oddsRepo
	trainer trainer
	timeout time.Duration
}

// NewService creates a calibration service. trainer may be nil.
func NewService(log *slog.Logger, tx txManager, bills billRepo, draws drawSource, odds oddsRepo, tr trainer) *Service {
	return &Service{
		log:     log.With("service", "calibration"),
		tx:      tx,
		bills:   bills,
		draws:   draws,
		odds:    odds,
		trainer: tr,
		timeout: 10 * time.Second,
	}
}

// Calibrate replaces the parse of one wager line, re-settles the bill, and
// persists both atomically. expectedVersion is the parse_version the caller
// read; a mismatch rejects the whole calibration with domain.ErrConflict.
func (s *Service) Calibrate(ctx context.Context, userID, billID uuid.UUID, lineNumber, expectedVersion int, corr Correction) (*Result, error) {
	entry, err := buildCorrectedEntry(corr)
	if err != nil {
		return nil, err
	}

	var (
		res          Result
		originalJSON string
		originalText string
	)
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		bill, err := s.bills.GetForUpdate(txCtx, billID)
		if err != nil {
			return err
		}
		if bill.UserID != userID {
			return domain.ErrForbidden
		}
		if bill.ParseVersion != expectedVersion {
			return domain.ErrConflict
		}
		slip, ok := bill.Slip(lineNumber)
		if !ok {
			return domain.ErrNotFound
		}

		originalText = slip.RawText
		originalJSON = marshalEntries(slip.Entries)
		entry.Region = slip.Region
		entry.RawText = slip.RawText
		slip.Entries = []domain.BetEntry{*entry}
		slip.UnparsedText = ""
		slip.Method = domain.ParseMethodHuman
		bill.Status = bill.DeriveStatus()

		draws, err := s.currentDraws(txCtx, bill)
		if err != nil {
			return err
		}
		schedule, err := s.scheduleFor(txCtx, bill.UserID)
		if err != nil {
			return err
		}
		st := settlement.Compute(bill, draws, schedule)
		st.SettledAt = time.Now().UTC()

		if err := s.bills.ReplaceParse(txCtx, bill, &st, expectedVersion); err != nil {
			return err
		}

		res = Result{
			BatchID:      bill.ID,
			LineNumber:   lineNumber,
			Slip:         *slip,
			ParseVersion: bill.ParseVersion,
			Settlement:   &st,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "calibration applied",
		slog.String("bill_id", billID.String()),
		slog.Int("line", lineNumber),
		slog.String("category", string(corr.Category)),
	)
	res.TrainWarning = s.notifyTrainer(ctx, originalText, originalJSON, marshalEntries(res.Slip.Entries), corr.Reason)
	return &res, nil
}

// notifyTrainer forwards the correction triple after the transaction has
// committed. Failures are surfaced as a warning, never as an error.
func (s *Service) notifyTrainer(ctx context.Context, originalText, originalParse, correctedParse, reason string) string {
	if s.trainer == nil {
		return ""
	}
	trainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.trainer.Train(trainCtx, originalText, originalParse, correctedParse, reason); err != nil {
		s.log.WarnContext(ctx, "ai training notification failed", slog.String("error", err.Error()))
		return "ai training notification failed: " + err.Error()
	}
	return ""
}

// buildCorrectedEntry rebuilds a canonical entry from the correction,
// applying the amount mode to derive the total cost.
func buildCorrectedEntry(corr Correction) (*domain.BetEntry, error) {
	if !corr.Category.Valid() {
		return nil, domain.NewValidationError("category", "unknown category: "+string(corr.Category))
	}
	if !corr.AmountMode.Valid() {
		return nil, domain.NewValidationError("amount_mode", "unknown mode: "+string(corr.AmountMode))
	}
	if corr.Amount <= 0 {
		return nil, domain.NewValidationError("amount", "must be positive")
	}
	targets := make([]string, 0, len(corr.Targets))
	seen := make(map[string]struct{}, len(corr.Targets))
	for _, t := range corr.Targets {
		tok, err := resolveTarget(corr.Category, t)
		if err != nil {
			return nil, err
		}
		for _, token := range tok {
			if _, dup := seen[token]; dup {
				continue
			}
			seen[token] = struct{}{}
			targets = append(targets, token)
		}
	}
	if len(targets) == 0 {
		return nil, domain.NewValidationError("targets", "empty")
	}

	entry := &domain.BetEntry{
		Category: corr.Category,
		Targets:  targets,
		Amount:   corr.Amount,
	}
	switch corr.AmountMode {
	case domain.AmountPerTarget:
		entry.TotalCost = corr.Amount * float64(len(targets))
	case domain.AmountFlat:
		entry.TotalCost = corr.Amount
	}
	return entry, nil
}

// resolveTarget accepts number tokens everywhere and zodiac sign characters
// for the zodiac categories, expanding the latter into their members.
func resolveTarget(cat domain.Category, target string) ([]string, error) {
	if cat == domain.CategoryZodiac || cat == domain.CategorySixZodiac {
		if tokens, ok := domain.ZodiacNumbers(target); ok {
			return tokens, nil
		}
	}
	tok, err := domain.ParseNumberToken(target)
	if err != nil {
		return nil, err
	}
	return []string{tok}, nil
}

func (s *Service) currentDraws(ctx context.Context, bill *domain.Bill) (map[string]*domain.DrawResult, error) {
	draws := make(map[string]*domain.DrawResult)
	seen := make(map[string]struct{})
	for si := range bill.Slips {
		slip := &bill.Slips[si]
		for ei := range slip.Entries {
			region := slip.Entries[ei].Region
			if region == "" {
				region = slip.Region
			}
			if region == "" {
				region = domain.DefaultRegion
			}
			if _, dup := seen[region]; dup {
				continue
			}
			seen[region] = struct{}{}
			draw, err := s.draws.Latest(ctx, region)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					continue
				}
				return nil, err
			}
			draws[region] = draw
		}
	}
	return draws, nil
}

func (s *Service) scheduleFor(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error) {
	schedule, err := s.odds.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return schedule, nil
}

func marshalEntries(entries []domain.BetEntry) string {
	b, err := json.Marshal(entries)
	if err != nil {
		return ""
	}
	return string(b)
}
