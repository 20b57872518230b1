// Package draw records lottery draw results and parses the announcement
// messages posted by the results channels.
package draw

import (
	"regexp"
	"strings"

	"github.com/lottobill/lottobill-backend/internal/domain"
)

// One channel post can announce several regions at once. Every announcement
// starts with a header line; the balls follow on the next line, optionally
// trailed by a zodiac line and a colour-emoji line.
var (
	headerRe = regexp.MustCompile(`(新澳门六合彩|香港六合彩|老澳门?六合彩|老澳|澳门六合彩)\s*第:?(\d+)期开奖结果:?`)
	numberRe = regexp.MustCompile(`\d{1,2}`)
)

var emojiColors = map[rune]string{
	'🔴': domain.ColorRed,
	'🔵': domain.ColorBlue,
	'🟢': domain.ColorGreen,
}

// ParseMessage extracts every draw announcement from a channel post.
// Malformed announcements are skipped; a text with no recognizable header
// yields nil.
func ParseMessage(text string) []domain.DrawResult {
	text = domain.NormalizeText(text)
	headers := headerRe.FindAllStringSubmatchIndex(text, -1)
	if len(headers) == 0 {
		return nil
	}

	var results []domain.DrawResult
	for i, h := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}
		region, ok := domain.NormalizeRegion(text[h[2]:h[3]])
		if !ok {
			continue
		}
		d := parseAnnouncement(region, text[h[4]:h[5]], text[h[1]:end])
		if err := d.Validate(); err != nil {
			continue
		}
		d.FillDerived()
		results = append(results, *d)
	}
	return results
}

// parseAnnouncement reads the body lines of one announcement.
func parseAnnouncement(region, period, body string) *domain.DrawResult {
	d := &domain.DrawResult{Region: region, Period: period}
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		switch {
		case len(d.Numbers) == 0:
			if nums := extractNumbers(line); len(nums) >= domain.DrawNumberCount {
				d.Numbers = nums[:domain.DrawNumberCount]
			}
		case len(d.Zodiacs) == 0 && looksLikeZodiacLine(line):
			d.Zodiacs = extractZodiacs(line)
		case len(d.Colors) == 0:
			if colors := extractColors(line); len(colors) == domain.DrawNumberCount {
				d.Colors = colors
			}
		}
	}
	return d
}

func extractNumbers(line string) []string {
	var tokens []string
	for _, m := range numberRe.FindAllString(line, -1) {
		tok, err := domain.ParseNumberToken(m)
		if err != nil {
			return nil
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func looksLikeZodiacLine(line string) bool {
	count := 0
	for _, r := range line {
		if domain.IsZodiacSign(string(r)) {
			count++
		}
	}
	return count >= domain.DrawNumberCount
}

func extractZodiacs(line string) []string {
	var signs []string
	for _, r := range line {
		if domain.IsZodiacSign(string(r)) {
			signs = append(signs, string(r))
			if len(signs) == domain.DrawNumberCount {
				break
			}
		}
	}
	return signs
}

func extractColors(line string) []string {
	var colors []string
	for _, r := range line {
		if c, ok := emojiColors[r]; ok {
			colors = append(colors, c)
		}
	}
	return colors
}
