package domain

import (
	"time"

	"github.com/google/uuid"
)

// Category classifies a bet entry by how its targets and stake are read.
type Category string

const (
	// CategoryZodiac stakes the amount on every number of the named signs.
	CategoryZodiac Category = "zodiac"
	// CategoryNumberList stakes the amount on each listed number.
	CategoryNumberList Category = "number_list"
	// CategoryMultiplier stakes on a single number with a multiplier writing (07x30).
	CategoryMultiplier Category = "multiplier"
	// CategorySixZodiac is the 六肖/闷 play: several signs, staked once as a whole.
	CategorySixZodiac Category = "six_zodiac"
	// CategorySpecial is an explicit special-number (特码) bet.
	CategorySpecial Category = "special"
	// CategoryFlat covers 大小单双-style plays staked once.
	CategoryFlat Category = "flat"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryZodiac, CategoryNumberList, CategoryMultiplier,
		CategorySixZodiac, CategorySpecial, CategoryFlat:
		return true
	}
	return false
}

// PricedPerTarget reports whether the entry amount applies to every target
// separately. six_zodiac, multiplier and flat plays stake once for the
// whole entry.
func (c Category) PricedPerTarget() bool {
	switch c {
	case CategoryZodiac, CategoryNumberList, CategorySpecial:
		return true
	}
	return false
}

// AmountMode tells a calibration how to turn the corrected amount into a
// total cost.
type AmountMode string

const (
	// AmountPerTarget multiplies the amount by the number of targets.
	AmountPerTarget AmountMode = "per_target"
	// AmountFlat stores the amount as the entry's total cost unchanged.
	AmountFlat AmountMode = "flat"
)

// Valid reports whether m is a known amount mode.
func (m AmountMode) Valid() bool {
	return m == AmountPerTarget || m == AmountFlat
}

// ParseMethod records which stage of the parsing chain produced a slip.
type ParseMethod string

const (
	ParseMethodTemplate ParseMethod = "template"
	ParseMethodManual   ParseMethod = "manual"
	ParseMethodAI       ParseMethod = "ai"
	ParseMethodHuman    ParseMethod = "human"
	ParseMethodNone     ParseMethod = "none"
)

// BetEntry is one recognized wager unit. Winnings stays zero until the bill
// is settled.
type BetEntry struct {
	Category    Category `json:"category"`
	Region      string   `json:"region"`
	Targets     []string `json:"targets"`
	Amount      float64  `json:"cost_per_target"`
	TotalCost   float64  `json:"total_cost"`
	RawText     string   `json:"raw_text,omitempty"`
	Description string   `json:"description,omitempty"`
	Winnings    float64  `json:"winnings"`
}

// ComputeCost derives the total cost from the amount and the category's
// pricing rule.
func (e *BetEntry) ComputeCost() float64 {
	if e.Category.PricedPerTarget() {
		return e.Amount * float64(len(e.Targets))
	}
	return e.Amount
}

// Validate checks the entry's internal consistency.
func (e *BetEntry) Validate() error {
	var errs []FieldError
	if !e.Category.Valid() {
		errs = append(errs, FieldError{Field: "category", Message: "unknown category"})
	}
	if len(e.Targets) == 0 {
		errs = append(errs, FieldError{Field: "targets", Message: "empty"})
	}
	if e.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be positive"})
	}
	for _, t := range e.Targets {
		if _, err := ParseNumberToken(t); err != nil {
			errs = append(errs, FieldError{Field: "targets", Message: "bad token: " + t})
			break
		}
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// TargetCount counts priced targets: every target for per-target entries,
// one for entries staked as a whole.
func (e *BetEntry) TargetCount() int {
	if e.Category.PricedPerTarget() {
		return len(e.Targets)
	}
	return 1
}

// BetSlip is one wager line of a bill after parsing.
type BetSlip struct {
	LineNumber   int         `json:"line_number"`
	Region       string      `json:"region"`
	RawText      string      `json:"raw_text"`
	UnparsedText string      `json:"unparsed_text,omitempty"`
	Method       ParseMethod `json:"method"`
	Entries      []BetEntry  `json:"entries"`
}

// TotalCost sums the entry costs.
func (s *BetSlip) TotalCost() float64 {
	var sum float64
	for i := range s.Entries {
		sum += s.Entries[i].TotalCost
	}
	return sum
}

// TargetCount sums priced targets across entries.
func (s *BetSlip) TargetCount() int {
	var n int
	for i := range s.Entries {
		n += s.Entries[i].TargetCount()
	}
	return n
}

// Recognized reports whether at least one entry was extracted.
func (s *BetSlip) Recognized() bool { return len(s.Entries) > 0 }

// BillStatus tells whether anything in the bill was recognized.
type BillStatus string

const (
	BillStatusProcessed    BillStatus = "processed"
	BillStatusUnrecognized BillStatus = "unrecognized"
)

// Bill sources. SourceEmail bills carry a raw RFC 2822 message that is
// unwrapped before parsing.
const (
	SourceEmail    = "email"
	SourceTelegram = "telegram"
	SourceManual   = "manual"
)

// Bill is a stored message with its parsed slips. TotalWinnings is filled in
// by settlement.
type Bill struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"user_id"`
	Source        string     `json:"source,omitempty"`
	RawText       string     `json:"raw_text"`
	Status        BillStatus `json:"status"`
	ParseVersion  int        `json:"parse_version"`
	Slips         []BetSlip  `json:"slips"`
	TotalWinnings float64    `json:"total_winnings"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TotalCost sums all slip costs.
func (b *Bill) TotalCost() float64 {
	var sum float64
	for i := range b.Slips {
		sum += b.Slips[i].TotalCost()
	}
	return sum
}

// Slip returns the slip with the given line number.
func (b *Bill) Slip(line int) (*BetSlip, bool) {
	for i := range b.Slips {
		if b.Slips[i].LineNumber == line {
			return &b.Slips[i], true
		}
	}
	return nil, false
}

// TargetCount sums priced targets across slips.
func (b *Bill) TargetCount() int {
	var n int
	for i := range b.Slips {
		n += b.Slips[i].TargetCount()
	}
	return n
}

// DeriveStatus recomputes the bill status: processed when at least one slip
// carries entries, unrecognized otherwise.
func (b *Bill) DeriveStatus() BillStatus {
	for i := range b.Slips {
		if b.Slips[i].Recognized() {
			return BillStatusProcessed
		}
	}
	return BillStatusUnrecognized
}
