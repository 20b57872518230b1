package domain

// Mark Six game data for the current zodiac year. The twelve signs split the
// 49 balls between them (蛇 carries the extra 49), and every ball belongs to
// exactly one colour wave.

// ZodiacSigns lists the signs in cycle order.
var ZodiacSigns = []string{"鼠", "牛", "虎", "兔", "龙", "蛇", "马", "羊", "猴", "鸡", "狗", "猪"}

var zodiacNumbers = map[string][]int{
	"蛇": {1, 13, 25, 37, 49},
	"龙": {2, 14, 26, 38},
	"兔": {3, 15, 27, 39},
	"虎": {4, 16, 28, 40},
	"牛": {5, 17, 29, 41},
	"鼠": {6, 18, 30, 42},
	"猪": {7, 19, 31, 43},
	"狗": {8, 20, 32, 44},
	"鸡": {9, 21, 33, 45},
	"猴": {10, 22, 34, 46},
	"羊": {11, 23, 35, 47},
	"马": {12, 24, 36, 48},
}

// Colour waves. Each wave has "single" and "double" halves in the official
// tables; settlement only cares about the wave itself, so they are merged.
const (
	ColorRed   = "红波"
	ColorBlue  = "蓝波"
	ColorGreen = "绿波"
)

var colorNumbers = map[string][]int{
	ColorRed:   {1, 7, 13, 19, 23, 29, 35, 45, 2, 8, 12, 18, 24, 30, 34, 40, 46},
	ColorBlue:  {3, 9, 15, 25, 31, 37, 41, 47, 4, 10, 14, 20, 26, 36, 42, 48},
	ColorGreen: {5, 11, 17, 21, 27, 33, 39, 43, 49, 6, 16, 22, 28, 32, 38, 44},
}

var (
	numberToZodiac = make(map[int]string, MaxNumber)
	numberToColor  = make(map[int]string, MaxNumber)
)

func init() {
	for sign, nums := range zodiacNumbers {
		for _, n := range nums {
			numberToZodiac[n] = sign
		}
	}
	for color, nums := range colorNumbers {
		for _, n := range nums {
			numberToColor[n] = color
		}
	}
}

// ZodiacNumbers returns the canonical tokens covered by the sign,
// in ascending order. ok is false for an unknown sign.
func ZodiacNumbers(sign string) (tokens []string, ok bool) {
	nums, ok := zodiacNumbers[sign]
	if !ok {
		return nil, false
	}
	tokens = make([]string, 0, len(nums))
	for _, n := range nums {
		tokens = append(tokens, FormatNumber(n))
	}
	return tokens, true
}

// ZodiacOf returns the sign a canonical token belongs to.
func ZodiacOf(token string) (string, bool) {
	n, err := parseNumber(token)
	if err != nil {
		return "", false
	}
	sign, ok := numberToZodiac[n]
	return sign, ok
}

// ColorOf returns the colour wave a canonical token belongs to.
func ColorOf(token string) (string, bool) {
	n, err := parseNumber(token)
	if err != nil {
		return "", false
	}
	color, ok := numberToColor[n]
	return color, ok
}

// IsZodiacSign reports whether s is one of the twelve signs.
func IsZodiacSign(s string) bool {
	_, ok := zodiacNumbers[s]
	return ok
}
