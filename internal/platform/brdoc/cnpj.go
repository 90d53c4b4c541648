package brdoc

import "strings"

const cnpjLength = 14

var (
	cnpjFirstWeights  = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	cnpjSecondWeights = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// FormatCNPJ masks a CNPJ progressively as digits accumulate, producing a
// valid partial mask at every prefix length: 12.345.678/9012-34.
func FormatCNPJ(s string) string {
	digits := LimitDigits(s, cnpjLength)

	var b strings.Builder
	for i, r := range digits {
		switch i {
		case 2, 5:
			b.WriteByte('.')
		case 8:
			b.WriteByte('/')
		case 12:
			b.WriteByte('-')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ValidateCNPJ checks the 14-digit CNPJ using the standard weighted-sum
// algorithm over the 12 base digits. Repeated-digit sequences are rejected
// even though they satisfy the checksum.
func ValidateCNPJ(s string) bool {
	digits := OnlyDigits(s)
	if len(digits) != cnpjLength {
		return false
	}
	if allSameDigit(digits) {
		return false
	}

	first := cnpjCheckDigit(digits[:12], cnpjFirstWeights)
	if int(digits[12]-'0') != first {
		return false
	}
	second := cnpjCheckDigit(digits[:13], cnpjSecondWeights)
	return int(digits[13]-'0') == second
}

func cnpjCheckDigit(digits string, weights []int) int {
	var sum int
	for i := 0; i < len(digits) && i < len(weights); i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
