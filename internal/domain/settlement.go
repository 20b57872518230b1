package domain

import (
	"time"

	"github.com/google/uuid"
)

// WinDetail is one winning target of a settlement.
type WinDetail struct {
	LineNumber int      `json:"line_number"`
	Category   Category `json:"category"`
	Region     string   `json:"region"`
	Target     string   `json:"target"`
	Stake      float64  `json:"stake"`
	Odds       float64  `json:"odds"`
	Winnings   float64  `json:"winnings"`
}

// UsedOdds records the odds a settlement actually applied for a category and
// whether they were explicit schedule values or the default fallback.
type UsedOdds struct {
	Value        float64 `json:"value"`
	FromSchedule bool    `json:"from_schedule"`
}

// ScenarioProfit is the outcome of the whole bill at one fixed what-if odds
// value, ignoring the schedule.
type ScenarioProfit struct {
	Odds      float64 `json:"odds"`
	TotalWin  float64 `json:"total_win"`
	NetProfit float64 `json:"net_profit"`
}

// Settlement is the full outcome of a bill against the current draws.
// HasLotteryData is false when at least one wagered region has no recorded
// draw yet; such bills are pending, never counted as losses.
type Settlement struct {
	BillID         uuid.UUID             `json:"bill_id"`
	TotalCost      float64               `json:"total_cost"`
	HasLotteryData bool                  `json:"has_lottery_data"`
	MissingRegions []string              `json:"missing_regions,omitempty"`
	Wins           []WinDetail           `json:"wins"`
	TotalWin       float64               `json:"total_win"`
	NetProfit      float64               `json:"net_profit"`
	UsedOdds       map[Category]UsedOdds `json:"used_odds"`
	Scenarios      []ScenarioProfit      `json:"scenarios"`
	SettledAt      time.Time             `json:"settled_at"`
}
