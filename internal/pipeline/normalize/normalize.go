// Package normalize parses ambiguous date-of-birth strings and checks the
// shape of email addresses and mobile numbers. Functions here never log.
package normalize

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// DateOfBirth turns a three-field date using "/" or "-" into YYYYMMDD. The
// year is whichever of the first or last field has four characters, checked
// in that order. The middle field is the month when it is at most 12, else
// it is the day. It returns false when the fields cannot be arranged into
// exactly eight ASCII digits.
func DateOfBirth(raw string) (string, bool) {
	fields := strings.Split(strings.ReplaceAll(raw, "-", "/"), "/")
	if len(fields) != 3 {
		return "", false
	}

	var year, other string
	switch {
	case utf8.RuneCountInString(fields[0]) == 4:
		year, other = fields[0], fields[2]
	case utf8.RuneCountInString(fields[2]) == 4:
		year, other = fields[2], fields[0]
	default:
		return "", false
	}
	if !isDigits(year) {
		return "", false
	}

	middle := fields[1]
	m, err := strconv.Atoi(middle)
	if err != nil {
		return "", false
	}

	month, day := middle, other
	if m > 12 {
		month, day = other, middle
	}

	out := year + month + day
	if len(out) != 8 || !isDigits(out) {
		return "", false
	}
	return out, true
}

// IsValidEmail reports whether the domain after the last "@" has exactly two
// dot-separated labels and ends in .com or .net. It is a shape check only.
func IsValidEmail(s string) bool {
	at := strings.LastIndex(s, "@")
	if at < 0 {
		return false
	}
	domain := s[at+1:]
	if len(strings.Split(domain, ".")) != 2 {
		return false
	}
	return strings.HasSuffix(domain, ".com") || strings.HasSuffix(domain, ".net")
}

// IsValidMobile reports whether the trimmed string is exactly eight decimal digits.
func IsValidMobile(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) == 8 && isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
