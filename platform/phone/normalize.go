// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "US"

	// MinDigits and MaxDigits bound an accepted digits-only number.
	MinDigits = 7
	MaxDigits = 15
)

// Digits strips every non-digit character from input.
func Digits(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidLength reports whether a digits-only number has an accepted length.
func ValidLength(digits string) bool {
	n := len(digits)
	return n >= MinDigits && n <= MaxDigits
}

// FormatDisplay renders a stored digits-only number for humans, e.g.
// "2515550100" as "(251) 555-0100". Numbers that do not parse as valid are
// returned unchanged.
func FormatDisplay(digits string) string {
	if digits == "" {
		return digits
	}

	number, err := phonenumbers.Parse(digits, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return digits
	}

	if phonenumbers.GetRegionCodeForNumber(number) == defaultRegion {
		return phonenumbers.Format(number, phonenumbers.NATIONAL)
	}
	return phonenumbers.Format(number, phonenumbers.INTERNATIONAL)
}
