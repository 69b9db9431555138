package host

import (
	"math"
	"strings"
)

// Compare orders two values: numerically when both read as numbers, else by
// case-insensitive text. Empty or whitespace-only strings never read as
// numbers here, and two equal infinities compare equal.
func Compare(a, b Value) int {
	n1, ok1 := compareNumber(a)
	n2, ok2 := compareNumber(b)
	if !ok1 || !ok2 {
		return CompareText(ToString(a), ToString(b))
	}
	return orderNumbers(n1, n2)
}

// CompareNumbers orders two raw numbers with the same rules as Compare.
func CompareNumbers(a, b float64) int {
	if math.IsNaN(a) || math.IsNaN(b) {
		return CompareText(FormatNumber(a), FormatNumber(b))
	}
	return orderNumbers(a, b)
}

// CompareStrings orders two raw strings with the same rules as Compare.
func CompareStrings(a, b string) int {
	n1, ok1 := ParseNumber(a)
	n2, ok2 := ParseNumber(b)
	if !ok1 || !ok2 || math.IsNaN(n1) || math.IsNaN(n2) {
		return CompareText(a, b)
	}
	return orderNumbers(n1, n2)
}

// CompareText is the case-insensitive text order.
func CompareText(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

func Equals(a, b Value) bool  { return Compare(a, b) == 0 }
func Greater(a, b Value) bool { return Compare(a, b) > 0 }
func Lower(a, b Value) bool   { return Compare(a, b) < 0 }

func compareNumber(v Value) (float64, bool) {
	switch v.Tag {
	case TagNumber:
		n := v.Num()
		return n, !math.IsNaN(n)
	case TagBool:
		return ToDouble(v), true
	default:
		n, ok := ParseNumber(v.str)
		return n, ok && !math.IsNaN(n)
	}
}

func orderNumbers(a, b float64) int {
	switch {
	case a == b:
		return 0
	case a > b:
		return 1
	default:
		return -1
	}
}
