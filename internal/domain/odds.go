package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultOdds applies wherever a schedule has no entry for a category.
const DefaultOdds = 45.0

// ScenarioOdds is the fixed what-if grid every settlement reports.
var ScenarioOdds = []float64{45, 46, 47}

// OddsSchedule holds a user's per-category payout odds. A nil schedule is
// valid and falls back to DefaultOdds everywhere.
type OddsSchedule struct {
	UserID    uuid.UUID            `json:"user_id"`
	Values    map[Category]float64 `json:"values"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// OddsFor returns the odds for a category and whether they came from the
// schedule; false means the DefaultOdds fallback was used.
func (s *OddsSchedule) OddsFor(c Category) (float64, bool) {
	if s == nil || s.Values == nil {
		return DefaultOdds, false
	}
	v, ok := s.Values[c]
	if !ok || v <= 0 {
		return DefaultOdds, false
	}
	return v, true
}

// Set stores odds for a category, dropping non-positive values.
func (s *OddsSchedule) Set(c Category, odds float64) error {
	if !c.Valid() {
		return NewValidationError("category", "unknown category: "+string(c))
	}
	if odds <= 0 {
		return NewValidationError("odds", "must be positive")
	}
	if s.Values == nil {
		s.Values = make(map[Category]float64)
	}
	s.Values[c] = odds
	return nil
}
