package host

import (
	"math"
	"strings"
)

// ToDouble is the generic number conversion entry point.
func ToDouble(v Value) float64 {
	switch v.Tag {
	case TagNumber:
		return v.Num()
	case TagBool:
		if v.Truth() {
			return 1
		}
		return 0
	default:
		return StringToNumber(v.str)
	}
}

// ToBool is the generic boolean conversion entry point.
func ToBool(v Value) bool {
	switch v.Tag {
	case TagBool:
		return v.Truth()
	case TagNumber:
		return NumberToBool(v.Num())
	default:
		return StringToBool(v.str)
	}
}

// ToString is the generic string conversion entry point. The result never
// aliases memory owned by compiled code.
func ToString(v Value) string {
	switch v.Tag {
	case TagString:
		return v.str
	case TagBool:
		return BoolToString(v.Truth())
	default:
		return FormatNumber(v.Num())
	}
}

// NumberToBool treats zero and NaN as false.
func NumberToBool(f float64) bool {
	return f != 0 && !math.IsNaN(f)
}

// StringToBool treats "", "0" and "false" (any case) as false.
func StringToBool(s string) bool {
	return s != "" && s != "0" && !strings.EqualFold(s, "false")
}

// BoolToString returns the interned text form of a boolean.
func BoolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
