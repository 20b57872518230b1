package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Lottery regions. The canonical names match the draw channels' own headers.
const (
	RegionHongKong = "香港六合彩"
	RegionNewMacau = "新澳门六合彩"
	RegionOldMacau = "老澳门六合彩"
)

// DefaultRegion is assumed when a wager names no region at all.
const DefaultRegion = RegionNewMacau

// Regions lists the known regions in display order.
var Regions = []string{RegionNewMacau, RegionHongKong, RegionOldMacau}

// NormalizeRegion maps the shorthand writings found in wager text and draw
// headers onto a canonical region name.
func NormalizeRegion(s string) (string, bool) {
	s = strings.TrimSpace(s)
	switch {
	case s == "":
		return "", false
	case strings.HasPrefix(s, "香港"):
		return RegionHongKong, true
	case strings.HasPrefix(s, "老澳"):
		return RegionOldMacau, true
	case strings.HasPrefix(s, "新澳门"), strings.HasPrefix(s, "澳门"):
		return RegionNewMacau, true
	}
	return "", false
}

// DrawNumberCount is the number of balls in a draw; the last one is the
// special number (特码).
const DrawNumberCount = 7

// DrawResult is one region's draw for one period.
type DrawResult struct {
	ID         uuid.UUID `json:"id"`
	Region     string    `json:"region"`
	Period     string    `json:"period"`
	Numbers    []string  `json:"numbers"`
	Zodiacs    []string  `json:"zodiacs,omitempty"`
	Colors     []string  `json:"colors,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Special returns the special number token (last ball).
func (d *DrawResult) Special() string {
	if len(d.Numbers) == 0 {
		return ""
	}
	return d.Numbers[len(d.Numbers)-1]
}

// Validate checks region, period and ball tokens.
func (d *DrawResult) Validate() error {
	var errs []FieldError
	if _, ok := NormalizeRegion(d.Region); !ok {
		errs = append(errs, FieldError{Field: "region", Message: "unknown region: " + d.Region})
	}
	if d.Period == "" {
		errs = append(errs, FieldError{Field: "period", Message: "empty"})
	}
	if len(d.Numbers) != DrawNumberCount {
		errs = append(errs, FieldError{Field: "numbers", Message: "need exactly 7 numbers"})
	}
	for _, n := range d.Numbers {
		if _, err := ParseNumberToken(n); err != nil {
			errs = append(errs, FieldError{Field: "numbers", Message: "bad token: " + n})
			break
		}
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// FillDerived populates zodiac and colour columns from the game data when the
// source message did not carry them.
func (d *DrawResult) FillDerived() {
	if len(d.Zodiacs) != len(d.Numbers) {
		d.Zodiacs = make([]string, len(d.Numbers))
		for i, n := range d.Numbers {
			d.Zodiacs[i], _ = ZodiacOf(n)
		}
	}
	if len(d.Colors) != len(d.Numbers) {
		d.Colors = make([]string, len(d.Numbers))
		for i, n := range d.Numbers {
			d.Colors[i], _ = ColorOf(n)
		}
	}
}
