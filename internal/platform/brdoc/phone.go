package brdoc

import "strings"

const phoneMaxLength = 11

// FormatPhone masks a Brazilian phone number progressively as digits
// accumulate: (11) 1234-5678 for landlines, (11) 91234-5678 for mobiles.
func FormatPhone(s string) string {
	digits := LimitDigits(s, phoneMaxLength)
	if digits == "" {
		return ""
	}

	var b strings.Builder
	b.WriteByte('(')
	if len(digits) <= 2 {
		b.WriteString(digits)
		return b.String()
	}
	b.WriteString(digits[:2])
	b.WriteString(") ")

	rest := digits[2:]
	// Hyphen always precedes the final four digits once they exist.
	split := 4
	if len(rest) > 8 {
		split = 5
	}
	if len(rest) <= split {
		b.WriteString(rest)
		return b.String()
	}
	b.WriteString(rest[:split])
	b.WriteByte('-')
	b.WriteString(rest[split:])
	return b.String()
}

// ValidatePhone accepts ten (landline) or eleven (mobile) digits.
func ValidatePhone(s string) bool {
	n := len(OnlyDigits(s))
	return n == 10 || n == 11
}
