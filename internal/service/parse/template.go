package parse

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// Character classes shared by the built-in patterns and the manual
// recognizers. Text reaching the parsers is already width-normalized.
const (
	amountCls = `[0-9一二两三四五六七八九十百千零]`
	zodiacCls = `[鼠牛虎兔龙蛇马羊猴鸡狗猪]`
)

// Template is one catalog pattern: a regular expression whose first capture
// group holds the targets and whose second holds the stake. Lower Priority
// sorts first.
type Template struct {
	ID       uuid.UUID
	Name     string
	Category domain.Category
	Pattern  string
	Priority int
}

// BuiltinTemplates is the hardcoded fallback catalog used when neither the
// user nor the global catalog has rows.
func BuiltinTemplates() []Template {
	return []Template{
		{
			Name:     "multiplier",
			Category: domain.CategoryMultiplier,
			Pattern:  `(\d{1,2})\s*[xX×*]\s*(` + amountCls + `+)\s*[元块#]?`,
			Priority: 10,
		},
		{
			Name:     "special",
			Category: domain.CategorySpecial,
			Pattern:  `特码?\s*[:：]?\s*(\d{1,2}(?:\s*[.,、/]\s*\d{1,2})*)\s*各?\s*(` + amountCls + `+)\s*[元块#]?`,
			Priority: 20,
		},
		{
			Name:     "number_list",
			Category: domain.CategoryNumberList,
			Pattern:  `((?:\d{1,2}\s*[.,、/-]\s*)+\d{1,2})\s*各(?:数)?\s*(` + amountCls + `+)\s*[元块#]?`,
			Priority: 30,
		},
		{
			Name:     "zodiac",
			Category: domain.CategoryZodiac,
			Pattern:  `(` + zodiacCls + `{1,12})\s*(?:各数|数各|各)\s*(` + amountCls + `+)\s*[元块#]?`,
			Priority: 40,
		},
	}
}

type compiledTemplate struct {
	Template
	re *regexp.Regexp
}

// TemplateParser matches catalog templates against a wager line in priority
// order, consuming each matched span so later templates cannot re-use it.
type TemplateParser struct {
	templates []compiledTemplate
}

// NewTemplateParser compiles templates in the order given, dropping any whose
// pattern does not compile or lacks the targets and stake capture groups.
// Catalog rows are user-supplied, so a malformed one must not take the parser
// down. Dropped template names are returned so the caller can log them.
func NewTemplateParser(templates []Template) (*TemplateParser, []string) {
	p := &TemplateParser{templates: make([]compiledTemplate, 0, len(templates))}
	var dropped []string
	for _, t := range templates {
		re, err := regexp.Compile(t.Pattern)
		if err != nil || re.NumSubexp() < 2 {
			dropped = append(dropped, t.Name)
			continue
		}
		p.templates = append(p.templates, compiledTemplate{Template: t, re: re})
	}
	return p, dropped
}

// ParseLine extracts entries from one wager line. Each template is exhausted
// via repeated match before the next is tried; matched spans are cut out of
// the remaining text by index. remaining is what no template consumed.
func (p *TemplateParser) ParseLine(line, region string) (entries []domain.BetEntry, remaining string) {
	remaining = line
	for _, ct := range p.templates {
		for {
			loc := ct.re.FindStringSubmatchIndex(remaining)
			if loc == nil {
				break
			}
			// A zero-width match consumes nothing and would repeat forever.
			if loc[1] == loc[0] {
				break
			}
			matched := remaining[loc[0]:loc[1]]
			targetsRaw := groupText(remaining, loc, 1)
			amountRaw := groupText(remaining, loc, 2)
			entry, ok := buildEntry(ct.Category, targetsRaw, amountRaw, region, matched)
			// The span is consumed either way; a match that yields no valid
			// entry must not be retried forever.
			remaining = remaining[:loc[0]] + remaining[loc[1]:]
			if ok {
				entries = append(entries, entry)
			}
		}
	}
	return entries, strings.Trim(remaining, " \t.,、:：")
}

func groupText(s string, loc []int, group int) string {
	start, end := loc[2*group], loc[2*group+1]
	if start < 0 || end < 0 {
		return ""
	}
	return s[start:end]
}

// buildEntry turns a (category, targets, amount) capture into a validated
// entry. Unreadable stakes and unresolvable targets discard the entry.
func buildEntry(cat domain.Category, targetsRaw, amountRaw, region, raw string) (domain.BetEntry, bool) {
	amount, ok := parseAmount(amountRaw)
	if !ok {
		return domain.BetEntry{}, false
	}

	var targets []string
	switch cat {
	case domain.CategoryZodiac, domain.CategorySixZodiac:
		targets, ok = expandZodiacs(targetsRaw)
	case domain.CategoryNumberList, domain.CategorySpecial:
		targets, ok = splitNumbers(targetsRaw)
	case domain.CategoryMultiplier:
		tok, err := domain.ParseNumberToken(targetsRaw)
		targets, ok = []string{tok}, err == nil
	case domain.CategoryFlat:
		targets, ok = expandFlat(targetsRaw)
	default:
		return domain.BetEntry{}, false
	}
	if !ok || len(targets) == 0 {
		return domain.BetEntry{}, false
	}

	e := domain.BetEntry{
		Category: cat,
		Region:   region,
		Targets:  dedupe(targets),
		Amount:   amount,
		RawText:  strings.TrimSpace(raw),
	}
	e.TotalCost = e.ComputeCost()
	return e, true
}

// expandZodiacs unions the member numbers of every sign character in s.
// Non-sign runes between signs are tolerated; a text with no sign fails.
func expandZodiacs(s string) ([]string, bool) {
	var targets []string
	found := false
	for _, r := range s {
		tokens, ok := domain.ZodiacNumbers(string(r))
		if !ok {
			continue
		}
		found = true
		targets = append(targets, tokens...)
	}
	return targets, found
}

var numberSepRe = regexp.MustCompile(`[.,、/\s-]+`)

// splitNumbers splits a digit/separator run and canonicalizes every
// fragment. Any unresolvable fragment rejects the whole capture.
func splitNumbers(s string) ([]string, bool) {
	parts := numberSepRe.Split(s, -1)
	targets := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		tok, err := domain.ParseNumberToken(p)
		if err != nil {
			return nil, false
		}
		targets = append(targets, tok)
	}
	return targets, len(targets) > 0
}

// expandFlat maps 大/小/单/双 onto their number ranges.
func expandFlat(s string) ([]string, bool) {
	var targets []string
	for _, r := range s {
		for n := domain.MinNumber; n <= domain.MaxNumber; n++ {
			switch r {
			case '大':
				if n >= 25 {
					targets = append(targets, domain.FormatNumber(n))
				}
			case '小':
				if n <= 24 {
					targets = append(targets, domain.FormatNumber(n))
				}
			case '单':
				if n%2 == 1 {
					targets = append(targets, domain.FormatNumber(n))
				}
			case '双':
				if n%2 == 0 {
					targets = append(targets, domain.FormatNumber(n))
				}
			}
		}
	}
	return targets, len(targets) > 0
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := tokens[:0]
	for _, t := range tokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
