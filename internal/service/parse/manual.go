package parse

import (
	"regexp"
	"strings"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// ManualParser is the fallback battery of hand-written recognizers for known
// phrasings the template catalog misses. It only runs when the template pass
// over the whole text produced zero entries. Every recognizer is independent
// and fires at most once per text.
type ManualParser struct{}

// NewManualParser creates the fixed recognizer battery.
func NewManualParser() *ManualParser { return &ManualParser{} }

type recognizer struct {
	name string
	fn   func(text, region string) []domain.BetEntry
}

var manualRecognizers = []recognizer{
	{name: "dotted_number_list", fn: recognizeDottedNumbers},
	{name: "paired_zodiac_groups", fn: recognizePairedZodiacs},
	{name: "six_zodiac", fn: recognizeSixZodiac},
	{name: "zodiac_each", fn: recognizeZodiacEach},
	{name: "flat_play", fn: recognizeFlatPlay},
}

// Parse runs the battery over the normalized text. Dual-region texts are
// split at the region markers first and each half recursed with its own
// region tag. Non-empty recognizer results come back as separate slip
// candidates.
func (m *ManualParser) Parse(text, defaultRegion string) []domain.BetSlip {
	chunks := splitByRegion(text, defaultRegion)
	var slips []domain.BetSlip
	for _, c := range chunks {
		var entries []domain.BetEntry
		for _, rec := range manualRecognizers {
			found := rec.fn(c.text, c.region)
			for i := range found {
				found[i].Description = rec.name
			}
			entries = append(entries, found...)
		}
		if len(entries) == 0 {
			continue
		}
		slips = append(slips, domain.BetSlip{
			Region:  c.region,
			RawText: strings.TrimSpace(c.text),
			Method:  domain.ParseMethodManual,
			Entries: entries,
		})
	}
	return slips
}

type regionChunk struct {
	region string
	text   string
}

var regionMarkRe = regexp.MustCompile(`香港|新澳门|老澳门|老澳|澳门`)

// splitByRegion cuts the text at every region marker. Text before the first
// marker keeps the default region; a text with no markers stays whole.
func splitByRegion(text, defaultRegion string) []regionChunk {
	locs := regionMarkRe.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return []regionChunk{{region: defaultRegion, text: text}}
	}
	var chunks []regionChunk
	if head := strings.TrimSpace(text[:locs[0][0]]); head != "" {
		chunks = append(chunks, regionChunk{region: defaultRegion, text: head})
	}
	for i, loc := range locs {
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		region, ok := domain.NormalizeRegion(text[loc[0]:loc[1]])
		if !ok {
			region = defaultRegion
		}
		chunk := strings.Trim(strings.TrimSpace(text[loc[1]:end]), ":：,，")
		if chunk == "" {
			continue
		}
		chunks = append(chunks, regionChunk{region: region, text: chunk})
	}
	return chunks
}

var dottedNumbersRe = regexp.MustCompile(`((?:\d{1,2}\.)+\d{1,2})\s*各\s*(` + amountCls + `+)\s*[块元#]?`)

// recognizeDottedNumbers handles point-separated lists like
// "11.22.33各5块" (香港 mail shorthand).
func recognizeDottedNumbers(text, region string) []domain.BetEntry {
	m := dottedNumbersRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	entry, ok := buildEntry(domain.CategoryNumberList, m[1], m[2], region, m[0])
	if !ok {
		return nil
	}
	return []domain.BetEntry{entry}
}

var pairedZodiacRe = regexp.MustCompile(`(` + zodiacCls + `(?:\s*[,，、]\s*` + zodiacCls + `)+)\s*数各\s*(` + amountCls + `+)\s*元?`)

// recognizePairedZodiacs handles "鼠，牛数各5元，兔，马数各10元": every group
// keeps its own per-unit cost.
func recognizePairedZodiacs(text, region string) []domain.BetEntry {
	var entries []domain.BetEntry
	for _, m := range pairedZodiacRe.FindAllStringSubmatch(text, -1) {
		entry, ok := buildEntry(domain.CategoryZodiac, m[1], m[2], region, m[0])
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}

var sixZodiacRes = []*regexp.Regexp{
	regexp.MustCompile(`(` + zodiacCls + `{2,12})\s*肖?\s*(` + amountCls + `+)\s*闷`),
	regexp.MustCompile(`(` + zodiacCls + `{2,12})\s*肖\s*(` + amountCls + `+)\s*[元块#]?`),
}

// recognizeSixZodiac handles the 肖/闷 combination play: the named signs are
// staked once as a whole, not per member.
func recognizeSixZodiac(text, region string) []domain.BetEntry {
	for _, re := range sixZodiacRes {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		entry, ok := buildEntry(domain.CategorySixZodiac, m[1], m[2], region, m[0])
		if !ok {
			return nil
		}
		return []domain.BetEntry{entry}
	}
	return nil
}

var zodiacEachRe = regexp.MustCompile(`(` + zodiacCls + `{1,12})\s*(?:各数|数各|各)\s*(` + amountCls + `+)\s*[元块#]?`)

// recognizeZodiacEach is the plain "蛇猪鸡各数5#" form, needed here for the
// halves of dual-region texts whose template pass already failed.
func recognizeZodiacEach(text, region string) []domain.BetEntry {
	if sixZodiacRes[0].MatchString(text) || sixZodiacRes[1].MatchString(text) {
		return nil
	}
	if pairedZodiacRe.MatchString(text) {
		return nil
	}
	m := zodiacEachRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	entry, ok := buildEntry(domain.CategoryZodiac, m[1], m[2], region, m[0])
	if !ok {
		return nil
	}
	return []domain.BetEntry{entry}
}

var flatPlayRe = regexp.MustCompile(`([大小单双])\s*各\s*(` + amountCls + `+)\s*元?`)

// recognizeFlatPlay handles 大小单双 plays, each staked once on its half of
// the board.
func recognizeFlatPlay(text, region string) []domain.BetEntry {
	var entries []domain.BetEntry
	for _, m := range flatPlayRe.FindAllStringSubmatch(text, -1) {
		entry, ok := buildEntry(domain.CategoryFlat, m[1], m[2], region, m[0])
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
