package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`[-+]?\d*\.\d+|[-+]?\d+`)

// numberWords maps spelled-out quantities to values. Built once; never
// mutated at runtime.
var numberWords = map[string]float64{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4,
	"five": 5, "six": 6, "seven": 7, "eight": 8, "nine": 9,
	"ten": 10, "eleven": 11, "twelve": 12, "thirteen": 13, "fourteen": 14,
	"fifteen": 15, "sixteen": 16, "seventeen": 17, "eighteen": 18, "nineteen": 19,
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
	"hundred": 100,
	"half":    0.5,
	"quarter": 0.25,
	"twice":   2,
	"a":       1,
	"an":      1,
}

// ExtractQuantity returns the first quantity mentioned in text. Numeric
// literals win over number words; with neither present the quantity is 1.
// It never fails: malformed input degrades to the default.
func ExtractQuantity(text string) float64 {
	if match := numberPattern.FindString(text); match != "" {
		if value, err := strconv.ParseFloat(match, 64); err == nil && value > 0 {
			return value
		}
	}

	for _, token := range strings.Fields(strings.ToLower(text)) {
		token = strings.Trim(token, ".,!?;:")
		if value, ok := numberWords[token]; ok {
			return value
		}
	}

	return 1.0
}
