package service

import (
	"strconv"
	"strings"
)

// Installment labels arrive in three recognized spellings: Roman numerals
// ("IV"), Indonesian ordinal words ("Keempat") and plain integers ("4").
// All three rank by their numeric value; anything unrecognized sorts after
// the recognized labels, lexically.

var romanLabels = []string{"I", "II", "III", "IV", "V", "VI", "VII", "VIII", "IX", "X"}

var romanDigits = map[byte]int{
	'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100, 'D': 500, 'M': 1000,
}

var indonesianOrdinals = map[string]int{
	"pertama":    1,
	"kedua":      2,
	"ketiga":     3,
	"keempat":    4,
	"kelima":     5,
	"keenam":     6,
	"ketujuh":    7,
	"kedelapan":  8,
	"kesembilan": 9,
	"kesepuluh":  10,
}

// ordinalLabel yields the label for the n-th installment row: Roman
// numerals up to X, numbers beyond.
func ordinalLabel(n int) string {
	if n >= 1 && n <= len(romanLabels) {
		return romanLabels[n-1]
	}
	return strconv.Itoa(n)
}

// labelRank parses a label into its ordinal value. ok is false for
// unrecognized labels.
func labelRank(label string) (int, bool) {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return 0, false
	}
	if value, ok := romanValue(trimmed); ok {
		return value, true
	}
	if value, ok := indonesianOrdinals[strings.ToLower(trimmed)]; ok {
		return value, true
	}
	if value, err := strconv.Atoi(trimmed); err == nil && value > 0 {
		return value, true
	}
	return 0, false
}

// lessLabel is the comparator used to keep installment sets in payment
// order: recognized labels by ordinal value, unrecognized ones last in
// lexical order.
func lessLabel(a, b string) bool {
	rankA, okA := labelRank(a)
	rankB, okB := labelRank(b)
	switch {
	case okA && okB:
		if rankA != rankB {
			return rankA < rankB
		}
		return a < b
	case okA:
		return true
	case okB:
		return false
	default:
		return a < b
	}
}

func romanValue(raw string) (int, bool) {
	upper := strings.ToUpper(raw)
	total := 0
	prev := 0
	for i := len(upper) - 1; i >= 0; i-- {
		digit, ok := romanDigits[upper[i]]
		if !ok {
			return 0, false
		}
		if digit < prev {
			total -= digit
		} else {
			total += digit
			prev = digit
		}
	}
	if total <= 0 {
		return 0, false
	}
	return total, true
}
