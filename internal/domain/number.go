package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Ball numbers run 1..49; the canonical written form is the zero-padded
// two-digit token ("01".."49").
const (
	MinNumber = 1
	MaxNumber = 49
)

// FormatNumber renders n as its canonical token.
func FormatNumber(n int) string {
	return fmt.Sprintf("%02d", n)
}

// ParseNumberToken parses a ball number in any accepted writing ("7", "07",
// " 07 ") and returns the canonical token. Out-of-range or non-numeric input
// yields ErrValidation.
func ParseNumberToken(s string) (string, error) {
	n, err := parseNumber(s)
	if err != nil {
		return "", err
	}
	return FormatNumber(n), nil
}

func parseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, NewValidationError("number", fmt.Sprintf("not a ball number: %q", s))
	}
	if n < MinNumber || n > MaxNumber {
		return 0, NewValidationError("number", fmt.Sprintf("out of range 1..49: %d", n))
	}
	return n, nil
}
