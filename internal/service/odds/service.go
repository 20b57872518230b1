// Package odds manages per-user payout schedules.
package odds

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

type oddsRepo interface {
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error)
	Upsert(ctx context.Context, schedule *domain.OddsSchedule) error
}

// Service reads and writes odds schedules.
type Service struct {
	log  *slog.Logger
	repo oddsRepo
}

// NewService creates an odds service.
func NewService(log *slog.Logger, repo oddsRepo) *Service {
	return &Service{log: log.With("service", "odds"), repo: repo}
}

// Get returns the user's schedule. Users who never customized odds get an
// empty schedule, which resolves to the default everywhere.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*domain.OddsSchedule, error) {
	schedule, err := s.repo.GetByUser(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return &domain.OddsSchedule{UserID: userID}, nil
	}
	return schedule, err
}

// Put replaces the user's schedule with the given category values.
func (s *Service) Put(ctx context.Context, userID uuid.UUID, values map[domain.Category]float64) (*domain.OddsSchedule, error) {
	if len(values) == 0 {
		return nil, domain.NewValidationError("values", "empty")
	}
	schedule := &domain.OddsSchedule{UserID: userID}
	for c, v := range values {
		if err := schedule.Set(c, v); err != nil {
			return nil, err
		}
	}
	if err := s.repo.Upsert(ctx, schedule); err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "odds schedule updated",
		slog.String("user_id", userID.String()), slog.Int("categories", len(values)))
	return schedule, nil
}

// Play-name aliases accepted by the text shorthand.
var categoryAliases = map[string]domain.Category{
	"特码":   domain.CategorySpecial,
	"六肖":   domain.CategorySixZodiac,
	"生肖":   domain.CategoryZodiac,
	"肖":    domain.CategoryZodiac,
	"号码":   domain.CategoryNumberList,
	"数字":   domain.CategoryNumberList,
	"倍数":   domain.CategoryMultiplier,
	"大小单双": domain.CategoryFlat,
}

var oddsTextRe = regexp.MustCompile(`(特码|六肖|生肖|号码|数字|倍数|大小单双|肖)\s*[:：]?\s*(\d+(?:\.\d+)?)`)

// PutText parses the "特码45 六肖20" shorthand and upserts the schedule.
func (s *Service) PutText(ctx context.Context, userID uuid.UUID, text string) (*domain.OddsSchedule, error) {
	matches := oddsTextRe.FindAllStringSubmatch(domain.NormalizeText(text), -1)
	if len(matches) == 0 {
		return nil, domain.NewValidationError("text", "no odds recognized")
	}
	values := make(map[domain.Category]float64, len(matches))
	for _, m := range matches {
		v, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return nil, domain.NewValidationError("text", "bad odds value: "+m[2])
		}
		values[categoryAliases[m[1]]] = v
	}
	return s.Put(ctx, userID, values)
}
