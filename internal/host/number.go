package host

import (
	"bytes"
	"math"
	"strconv"
	"strings"
)

// ParseNumber parses text the way the host's string-to-number entry point
// does. Surrounding whitespace is ignored. Accepted forms are decimal
// literals with optional sign, fraction and exponent, unsigned 0x/0o/0b
// integers, and Infinity, -Infinity and NaN in any letter case. ok is false
// for empty or malformed text, in which case the value is 0.
func ParseNumber(s string) (f float64, ok bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	body := s
	neg := false
	if body[0] == '+' || body[0] == '-' {
		neg = body[0] == '-'
		body = body[1:]
	}

	switch {
	case strings.EqualFold(body, "infinity"):
		if neg {
			return math.Inf(-1), true
		}
		return math.Inf(1), true
	case strings.EqualFold(body, "nan"):
		if body != s {
			return 0, false
		}
		return math.NaN(), true
	}

	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				if ne, isNum := err.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
					return math.Inf(1), true
				}
				return 0, false
			}
			return float64(n), true
		}
	}

	if !isDecimalLiteral(body) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals still parse to a signed infinity or zero
		if ne, isNum := err.(*strconv.NumError); isNum && ne.Err == strconv.ErrRange {
			return f, true
		}
		return 0, false
	}
	return f, true
}

// isDecimalLiteral reports whether s is digits [. digits] [e [sign] digits]
// with at least one mantissa digit.
func isDecimalLiteral(s string) bool {
	i, digits := 0, 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// StringToNumber converts text to a number, returning 0 for garbage.
func StringToNumber(s string) float64 {
	f, _ := ParseNumber(s)
	return f
}

// IsCanonicalNumber reports whether s is exactly the text FormatNumber would
// produce for some number, so that storing the number instead of the string
// is unobservable.
func IsCanonicalNumber(s string) bool {
	f, ok := ParseNumber(s)
	if !ok || math.IsNaN(f) {
		return false
	}
	return FormatNumber(f) == s
}

// FormatNumber renders a number the way the host's number-to-string entry
// point does (shortest round-trip digits, fixed notation for exponents in
// [-7, 21), exponential notation otherwise).
func FormatNumber(f float64) string {
	var buf [32]byte
	return string(AppendNumber(buf[:0], f))
}

// AppendNumber appends the FormatNumber text of f to dst. The text is at most
// 25 bytes long.
func AppendNumber(dst []byte, f float64) []byte {
	switch {
	case math.IsNaN(f):
		return append(dst, "NaN"...)
	case math.IsInf(f, 1):
		return append(dst, "Infinity"...)
	case math.IsInf(f, -1):
		return append(dst, "-Infinity"...)
	case f == 0:
		return append(dst, '0')
	}
	if f < 0 {
		dst = append(dst, '-')
		f = -f
	}

	// d.ddddde±XX
	var scratch [32]byte
	e := strconv.AppendFloat(scratch[:0], f, 'e', -1, 64)
	at := bytes.IndexByte(e, 'e')
	x, _ := strconv.Atoi(string(e[at+1:]))
	var mant [24]byte
	digits := append(mant[:0], e[0])
	if at > 1 {
		digits = append(digits, e[2:at]...)
	}
	k := len(digits)
	n := x + 1

	switch {
	case k <= n && n <= 21:
		dst = append(dst, digits...)
		for i := k; i < n; i++ {
			dst = append(dst, '0')
		}
	case 0 < n && n <= 21:
		dst = append(dst, digits[:n]...)
		dst = append(dst, '.')
		dst = append(dst, digits[n:]...)
	case -6 < n && n <= 0:
		dst = append(dst, '0', '.')
		for i := 0; i < -n; i++ {
			dst = append(dst, '0')
		}
		dst = append(dst, digits...)
	default:
		dst = append(dst, digits[0])
		if k > 1 {
			dst = append(dst, '.')
			dst = append(dst, digits[1:]...)
		}
		dst = append(dst, 'e')
		d := n - 1
		if d >= 0 {
			dst = append(dst, '+')
		} else {
			dst = append(dst, '-')
			d = -d
		}
		dst = strconv.AppendInt(dst, int64(d), 10)
	}
	return dst
}

// IsInt reports whether v counts as an integer for random-range purposes:
// integral numbers (NaN and the infinities included), booleans, and
// strings without a decimal point.
func IsInt(v Value) bool {
	switch v.Tag {
	case TagNumber:
		n := v.Num()
		return n != n || n == math.Floor(n)
	case TagBool:
		return true
	default:
		return !strings.Contains(v.str, ".")
	}
}
