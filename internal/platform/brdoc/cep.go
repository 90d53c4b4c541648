package brdoc

import "strings"

const cepLength = 8

// FormatCEP masks a CEP progressively as digits accumulate: 12345-678.
func FormatCEP(s string) string {
	digits := LimitDigits(s, cepLength)

	var b strings.Builder
	for i, r := range digits {
		if i == 5 {
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateCEP accepts exactly eight digits.
func ValidateCEP(s string) bool {
	return len(OnlyDigits(s)) == cepLength
}
