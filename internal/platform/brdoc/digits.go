// Package brdoc validates and formats the Brazilian document numbers collected
// during checkout: CNPJ tax IDs, CEP postal codes, and phone numbers. All
// functions are total; malformed input yields false or a best-effort string,
// never a panic.
package brdoc

// OnlyDigits strips every non-digit rune from the input.
func OnlyDigits(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			out = append(out, r)
		}
	}
	return string(out)
}

// LimitDigits strips non-digits and truncates the result to at most n digits.
func LimitDigits(s string, n int) string {
	digits := OnlyDigits(s)
	if n < 0 {
		n = 0
	}
	if len(digits) > n {
		digits = digits[:n]
	}
	return digits
}

func allSameDigit(digits string) bool {
	if digits == "" {
		return false
	}
	first := digits[0]
	for i := 1; i < len(digits); i++ {
		if digits[i] != first {
			return false
		}
	}
	return true
}
