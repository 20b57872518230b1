package settlement

import (
	"testing"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

func testDraw(region, special string) *domain.DrawResult {
	d := &domain.DrawResult{
		Region:  region,
		Period:  "2025214",
		Numbers: []string{"05", "17", "23", "31", "42", "48", special},
	}
	d.FillDerived()
	return d
}

func testBill(entries ...domain.BetEntry) *domain.Bill {
	return &domain.Bill{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Status: domain.BillStatusProcessed,
		Slips: []domain.BetSlip{{
			LineNumber: 1,
			Region:     domain.DefaultRegion,
			Method:     domain.ParseMethodTemplate,
			Entries:    entries,
		}},
	}
}

func numberListEntry(amount float64, targets ...string) domain.BetEntry {
	e := domain.BetEntry{
		Category: domain.CategoryNumberList,
		Targets:  targets,
		Amount:   amount,
	}
	e.TotalCost = e.ComputeCost()
	return e
}

func TestCompute_WinAtDefaultOdds(t *testing.T) {
	t.Parallel()

	bill := testBill(numberListEntry(10, "17", "29", "35"))
	draws := map[string]*domain.DrawResult{domain.DefaultRegion: testDraw(domain.DefaultRegion, "29")}

	st := Compute(bill, draws, nil)

	if !st.HasLotteryData {
		t.Fatal("expected HasLotteryData")
	}
	if st.TotalWin != 450 {
		t.Errorf("total win = %v, want 450 (stake 10 at odds 45)", st.TotalWin)
	}
	if st.TotalCost != 30 {
		t.Errorf("total cost = %v, want 30", st.TotalCost)
	}
	if st.NetProfit != 420 {
		t.Errorf("net profit = %v, want 420", st.NetProfit)
	}
	if len(st.Wins) != 1 || st.Wins[0].Target != "29" {
		t.Fatalf("wins = %+v, want one hit on 29", st.Wins)
	}
	used := st.UsedOdds[domain.CategoryNumberList]
	if used.Value != domain.DefaultOdds || used.FromSchedule {
		t.Errorf("used odds = %+v, want default fallback", used)
	}
	if bill.Slips[0].Entries[0].Winnings != 450 {
		t.Errorf("entry winnings = %v, want 450", bill.Slips[0].Entries[0].Winnings)
	}
	if bill.TotalWinnings != 450 {
		t.Errorf("bill total winnings = %v, want 450", bill.TotalWinnings)
	}
}

func TestCompute_ScheduleOddsVisible(t *testing.T) {
	t.Parallel()

	bill := testBill(numberListEntry(10, "29"))
	draws := map[string]*domain.DrawResult{domain.DefaultRegion: testDraw(domain.DefaultRegion, "29")}
	schedule := &domain.OddsSchedule{Values: map[domain.Category]float64{domain.CategoryNumberList: 46}}

	st := Compute(bill, draws, schedule)

	if st.TotalWin != 460 {
		t.Errorf("total win = %v, want 460", st.TotalWin)
	}
	used := st.UsedOdds[domain.CategoryNumberList]
	if used.Value != 46 || !used.FromSchedule {
		t.Errorf("used odds = %+v, want 46 from schedule", used)
	}
}

func TestCompute_SixZodiacStakedOnce(t *testing.T) {
	t.Parallel()

	e := domain.BetEntry{
		Category: domain.CategorySixZodiac,
		Targets:  []string{"05", "17", "29", "41"},
		Amount:   100,
	}
	e.TotalCost = e.ComputeCost()
	bill := testBill(e)
	draws := map[string]*domain.DrawResult{domain.DefaultRegion: testDraw(domain.DefaultRegion, "29")}

	st := Compute(bill, draws, nil)

	if st.TotalCost != 100 {
		t.Errorf("total cost = %v, want 100 (staked once)", st.TotalCost)
	}
	if st.TotalWin != 4500 {
		t.Errorf("total win = %v, want 4500 (whole stake at 45)", st.TotalWin)
	}
}

func TestCompute_MissingDrawIsPendingNotLoss(t *testing.T) {
	t.Parallel()

	bill := testBill(numberListEntry(10, "29"))

	st := Compute(bill, map[string]*domain.DrawResult{}, nil)

	if st.HasLotteryData {
		t.Error("expected HasLotteryData=false with no draw")
	}
	if len(st.MissingRegions) != 1 || st.MissingRegions[0] != domain.DefaultRegion {
		t.Errorf("missing regions = %v, want [%s]", st.MissingRegions, domain.DefaultRegion)
	}
	if st.TotalWin != 0 || st.NetProfit != -st.TotalCost {
		t.Errorf("win/profit = %v/%v; pending regions must not add wins", st.TotalWin, st.NetProfit)
	}
	if len(st.Wins) != 0 {
		t.Errorf("wins = %+v, want none", st.Wins)
	}
}

func TestCompute_Idempotent(t *testing.T) {
	t.Parallel()

	bill := testBill(numberListEntry(10, "29"))
	draws := map[string]*domain.DrawResult{domain.DefaultRegion: testDraw(domain.DefaultRegion, "29")}

	first := Compute(bill, draws, nil)
	second := Compute(bill, draws, nil)

	if first.TotalWin != second.TotalWin {
		t.Errorf("total win changed on recompute: %v then %v", first.TotalWin, second.TotalWin)
	}
	if bill.Slips[0].Entries[0].Winnings != 450 {
		t.Errorf("entry winnings = %v, want 450 after recompute", bill.Slips[0].Entries[0].Winnings)
	}
}

func TestCompute_ScenarioGrid(t *testing.T) {
	t.Parallel()

	bill := testBill(numberListEntry(10, "29"))
	draws := map[string]*domain.DrawResult{domain.DefaultRegion: testDraw(domain.DefaultRegion, "29")}
	schedule := &domain.OddsSchedule{Values: map[domain.Category]float64{domain.CategoryNumberList: 50}}

	st := Compute(bill, draws, schedule)

	if len(st.Scenarios) != 3 {
		t.Fatalf("scenarios = %d, want 3", len(st.Scenarios))
	}
	// The grid replays the winning stakes at 45/46/47 regardless of the
	// schedule odds.
	wantWins := []float64{450, 460, 470}
	for i, sc := range st.Scenarios {
		if sc.Odds != domain.ScenarioOdds[i] {
			t.Errorf("scenario %d odds = %v, want %v", i, sc.Odds, domain.ScenarioOdds[i])
		}
		if sc.TotalWin != wantWins[i] {
			t.Errorf("scenario %d win = %v, want %v", i, sc.TotalWin, wantWins[i])
		}
		if sc.NetProfit != wantWins[i]-st.TotalCost {
			t.Errorf("scenario %d profit = %v, want %v", i, sc.NetProfit, wantWins[i]-st.TotalCost)
		}
	}
}

func TestCompute_EntryRegionOverridesSlip(t *testing.T) {
	t.Parallel()

	e := numberListEntry(10, "29")
	e.Region = domain.RegionHongKong
	bill := testBill(e)

	// Only the entry's region has a draw; the slip's default region does not.
	draws := map[string]*domain.DrawResult{domain.RegionHongKong: testDraw(domain.RegionHongKong, "29")}

	st := Compute(bill, draws, nil)
	if !st.HasLotteryData {
		t.Fatal("expected the entry region draw to apply")
	}
	if len(st.Wins) != 1 || st.Wins[0].Region != domain.RegionHongKong {
		t.Fatalf("wins = %+v, want one Hong Kong hit", st.Wins)
	}
}

func TestCompute_LosingBill(t *testing.T) {
	t.Parallel()

	bill := testBill(numberListEntry(10, "01", "02"))
	draws := map[string]*domain.DrawResult{domain.DefaultRegion: testDraw(domain.DefaultRegion, "29")}

	st := Compute(bill, draws, nil)
	if !st.HasLotteryData {
		t.Fatal("expected HasLotteryData")
	}
	if st.TotalWin != 0 || st.NetProfit != -20 {
		t.Errorf("win/profit = %v/%v, want 0/-20", st.TotalWin, st.NetProfit)
	}
}
