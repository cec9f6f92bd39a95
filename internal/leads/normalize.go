package leads

import "strings"

// NormalizePhone formats a phone number to E.164. Ten digits get a +1 country
// code, eleven digits already prefixed with 1 keep it, and anything else gets
// a best-effort +1 prefix. The result always starts with "+".
func NormalizePhone(phone string) string {
	digits := phoneDigits(phone)
	switch {
	case len(digits) == 10:
		return "+1" + digits
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits
	default:
		return "+1" + digits
	}
}

// SplitName splits a full name on whitespace: first token is the first name,
// the remaining tokens joined with single spaces form the last name. A
// single-token name yields an empty last name.
func SplitName(name string) (first, last string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

// NormalizeEmail lowercases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func phoneDigits(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	return digits.String()
}
