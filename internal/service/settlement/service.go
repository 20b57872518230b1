package settlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

type billRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bill, error)
	// SaveSettlement persists the settled bill and its settlement together.
	SaveSettlement(ctx context.Context, bill *domain.Bill, st *domain.Settlement) error
}

type drawSource interface {
	// Latest returns the most recently recorded draw for the region, or
	// domain.ErrNotFound when the region has none yet.
	Latest(ctx context.Context, region string) (*domain.DrawResult, error)
}

type oddsRepo interface {
	// GetByUser returns the user's schedule, or domain.ErrNotFound when the
	// user never customized odds.
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error)
}

// Service loads the inputs a settlement needs and persists the outcome.
type Service struct {
	log   *slog.Logger
	bills billRepo
	draws drawSource
	odds  oddsRepo
	now   func() time.Time
}

// NewService creates a settlement service.
func NewService(log *slog.Logger, bills billRepo, draws drawSource, odds oddsRepo) *Service {
	return &Service{
		log:   log.With("service", "settlement"),
		bills: bills,
		draws: draws,
		odds:  odds,
		now:   time.Now,
	}
}

// SettleBill re-settles a stored bill against the current draws and the
// user's schedule, persisting the result.
func (s *Service) SettleBill(ctx context.Context, userID, billID uuid.UUID) (*domain.Settlement, error) {
	bill, err := s.bills.GetByID(ctx, billID)
	if err != nil {
		return nil, err
	}
	if bill.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return s.settle(ctx, bill)
}

// SettleParsed settles a freshly parsed bill without re-fetching it.
func (s *Service) SettleParsed(ctx context.Context, bill *domain.Bill) (*domain.Settlement, error) {
	return s.settle(ctx, bill)
}

func (s *Service) settle(ctx context.Context, bill *domain.Bill) (*domain.Settlement, error) {
	draws, err := s.currentDraws(ctx, bill)
	if err != nil {
		return nil, err
	}
	schedule, err := s.scheduleFor(ctx, bill.UserID)
	if err != nil {
		return nil, err
	}

	st := Compute(bill, draws, schedule)
	st.SettledAt = s.now().UTC()

	if err := s.bills.SaveSettlement(ctx, bill, &st); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "bill settled",
		slog.String("bill_id", bill.ID.String()),
		slog.Bool("has_lottery_data", st.HasLotteryData),
		slog.Float64("total_win", st.TotalWin),
		slog.Float64("net_profit", st.NetProfit),
	)
	return &st, nil
}

// currentDraws fetches the newest draw for every region the bill wagers on.
// Regions without a draw are simply absent from the map.
func (s *Service) currentDraws(ctx context.Context, bill *domain.Bill) (map[string]*domain.DrawResult, error) {
	draws := make(map[string]*domain.DrawResult)
	for _, region := range billRegions(bill) {
		draw, err := s.draws.Latest(ctx, region)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		draws[region] = draw
	}
	return draws, nil
}

func (s *Service) scheduleFor(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error) {
	schedule, err := s.odds.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	return schedule, err
}

// billRegions collects the distinct regions the bill's entries settle
// against, in first-seen order.
func billRegions(bill *domain.Bill) []string {
	seen := make(map[string]struct{})
	var regions []string
	for si := range bill.Slips {
		slip := &bill.Slips[si]
		for ei := range slip.Entries {
			r := entryRegion(&slip.Entries[ei], slip)
			if _, dup := seen[r]; dup {
				continue
			}
			seen[r] = struct{}{}
			regions = append(regions, r)
		}
	}
	return regions
}
