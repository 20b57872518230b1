// Package settlement computes bill outcomes against recorded draws and odds
// schedules.
package settlement

import (
	"sort"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// Compute settles a bill against the current draws under the given schedule.
// It is deterministic: the same inputs always produce the same result, and
// entry winnings are reset before being repopulated, so re-running after a
// calibration is safe.
//
// Regions without a draw are excluded from the win computation and listed in
// MissingRegions; they are never counted as losses. A nil schedule falls back
// to the default odds everywhere, and every fallback is surfaced in UsedOdds.
func Compute(bill *domain.Bill, draws map[string]*domain.DrawResult, schedule *domain.OddsSchedule) domain.Settlement {
	st := domain.Settlement{
		BillID:    bill.ID,
		TotalCost: bill.TotalCost(),
		Wins:      []domain.WinDetail{},
		UsedOdds:  make(map[domain.Category]domain.UsedOdds),
	}

	missing := make(map[string]struct{})
	var winStakes []float64

	for si := range bill.Slips {
		slip := &bill.Slips[si]
		for ei := range slip.Entries {
			entry := &slip.Entries[ei]
			entry.Winnings = 0

			region := entryRegion(entry, slip)
			draw := draws[region]
			if draw == nil {
				missing[region] = struct{}{}
				continue
			}
			st.HasLotteryData = true

			odds, explicit := schedule.OddsFor(entry.Category)
			st.UsedOdds[entry.Category] = domain.UsedOdds{Value: odds, FromSchedule: explicit}

			stake := entry.TotalCost
			if entry.Category.PricedPerTarget() {
				stake = entry.Amount
			}

			special := draw.Special()
			for _, target := range entry.Targets {
				if target != special {
					continue
				}
				win := stake * odds
				entry.Winnings += win
				st.TotalWin += win
				winStakes = append(winStakes, stake)
				st.Wins = append(st.Wins, domain.WinDetail{
					LineNumber: slip.LineNumber,
					Category:   entry.Category,
					Region:     region,
					Target:     target,
					Stake:      stake,
					Odds:       odds,
					Winnings:   win,
				})
			}
		}
	}

	for r := range missing {
		st.MissingRegions = append(st.MissingRegions, r)
	}
	sort.Strings(st.MissingRegions)

	// What-if grid: the recorded stakes replayed at each fixed odds value,
	// independent of the schedule that produced the real figures.
	st.Scenarios = make([]domain.ScenarioProfit, 0, len(domain.ScenarioOdds))
	for _, odds := range domain.ScenarioOdds {
		var totalWin float64
		for _, stake := range winStakes {
			totalWin += stake * odds
		}
		st.Scenarios = append(st.Scenarios, domain.ScenarioProfit{
			Odds:      odds,
			TotalWin:  totalWin,
			NetProfit: totalWin - st.TotalCost,
		})
	}

	st.NetProfit = st.TotalWin - st.TotalCost
	bill.TotalWinnings = st.TotalWin
	return st
}

// entryRegion resolves the region an entry settles against: the entry's own
// tag, else the slip's, else the default.
func entryRegion(entry *domain.BetEntry, slip *domain.BetSlip) string {
	if entry.Region != "" {
		return entry.Region
	}
	if slip.Region != "" {
		return slip.Region
	}
	return domain.DefaultRegion
}
