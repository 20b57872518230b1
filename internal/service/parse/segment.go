package parse

import (
	"regexp"
	"strings"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// Segment is one wager line attributed to a region.
type Segment struct {
	LineNumber int
	Region     string
	Text       string
}

// SegmentResult keeps the wager lines and the lines recognized as transport
// or chat noise. Nothing is dropped: every input line lands in exactly one of
// the two lists.
type SegmentResult struct {
	Lines   []Segment
	Skipped []string
}

// Segmenter splits a raw multi-wager text into region-attributed wager lines.
type Segmenter struct {
	defaultRegion string
}

// NewSegmenter creates a Segmenter using the fixed default region for text
// that names none.
func NewSegmenter() *Segmenter {
	return &Segmenter{defaultRegion: domain.DefaultRegion}
}

var (
	// Chat-export noise: greetings, app headers, separators, date stamps.
	noiseRe = regexp.MustCompile(`^(胜利|微信|聊天记录|老都|[-—=*]{3,}|\d{4}-\d{2}-\d{2}|\d{1,2}:\d{2}(:\d{2})?$)`)

	// A line that is only a region marker switches the current region.
	regionOnlyRe = regexp.MustCompile(`^(香港|新澳门|老澳门|老澳|澳门)(六合彩)?\s*[:：]?$`)

	// A leading region token inside a wager line scopes that line (and the
	// following ones) to the named region.
	regionPrefixRe = regexp.MustCompile(`^(香港|新澳门|老澳门|老澳|澳门)(六合彩)?\s*[:：]?`)

	// Numbered-list markers start a new block but never change the region.
	listMarkerRe = regexp.MustCompile(`^\d{1,2}[.、)）]\s*`)

	// A stake marker: 各N, ×N, or a bare amount with its unit.
	amountMarkRe = regexp.MustCompile(`各\s*` + amountCls + `+|[xX×*]\s*\d+|` + amountCls + `+\s*[元块#闷]`)

	// Anything that plausibly starts a wager.
	wagerHintRe = regexp.MustCompile(`香港|澳门|` + zodiacCls + `|各\s*` + amountCls + `|特码?\s*\d|平特|串码|[大小单双]各|\d{1,2}\s*[xX×*]\s*\d|肖|闷|波`)
)

// Segment scans line by line, tracking the current region, joining wrapped
// continuations, and routing noise into Skipped.
func (s *Segmenter) Segment(text string) SegmentResult {
	var res SegmentResult
	region := s.defaultRegion

	var pending string
	var pendingRegion string
	flush := func() {
		if pending == "" {
			return
		}
		res.Lines = append(res.Lines, Segment{
			LineNumber: len(res.Lines) + 1,
			Region:     pendingRegion,
			Text:       pending,
		})
		pending = ""
	}

	for _, line := range strings.Split(domain.NormalizeText(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			flush()
			continue
		}
		if noiseRe.MatchString(line) {
			flush()
			res.Skipped = append(res.Skipped, line)
			continue
		}
		if regionOnlyRe.MatchString(line) {
			flush()
			if r, ok := domain.NormalizeRegion(line); ok {
				region = r
			}
			// The marker carries no wager; keep it in Skipped so the split
			// still accounts for every input line.
			res.Skipped = append(res.Skipped, line)
			continue
		}

		body := listMarkerRe.ReplaceAllString(line, "")
		if m := regionPrefixRe.FindString(body); m != "" {
			if r, ok := domain.NormalizeRegion(m); ok {
				region = r
			}
		}

		if !wagerHintRe.MatchString(body) {
			flush()
			res.Skipped = append(res.Skipped, line)
			continue
		}

		if pending != "" {
			// Continuation of a wrapped wager line.
			pending += " " + line
			if amountMarkRe.MatchString(line) {
				flush()
			}
			continue
		}
		if !amountMarkRe.MatchString(body) {
			// Wager-ish but no stake yet: hold for the wrapped remainder.
			pending = line
			pendingRegion = region
			continue
		}

		res.Lines = append(res.Lines, Segment{
			LineNumber: len(res.Lines) + 1,
			Region:     region,
			Text:       line,
		})
	}
	flush()
	return res
}
