package parse

import (
	"strconv"
	"strings"
)

var chineseDigits = map[rune]int{
	'零': 0, '一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var chineseUnits = map[rune]int{
	'十': 10, '百': 100, '千': 1000,
}

// parseAmount reads a stake written with ASCII digits or Chinese numerals
// (五, 十五, 二十, 两百). Returns false when nothing positive can be read;
// entries with unreadable stakes are discarded by the callers.
func parseAmount(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		if v <= 0 {
			return 0, false
		}
		return v, true
	}
	n, ok := parseChineseNumeral(s)
	if !ok || n <= 0 {
		return 0, false
	}
	return float64(n), true
}

// parseChineseNumeral resolves compound numerals like 十五, 二十五 and 两百.
func parseChineseNumeral(s string) (int, bool) {
	total, current := 0, 0
	seen := false
	for _, r := range s {
		if d, ok := chineseDigits[r]; ok {
			current = current*10 + d
			seen = true
			continue
		}
		if u, ok := chineseUnits[r]; ok {
			if current == 0 {
				current = 1
			}
			total += current * u
			current = 0
			seen = true
			continue
		}
		return 0, false
	}
	if !seen {
		return 0, false
	}
	return total + current, true
}
