// Package phone provides phone number utilities.
// This is part of the platform layer and contains no business logic.
package phone

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country code.
const DefaultRegion = "IN"

// NormalizeE164 formats a phone number to E.164 using DefaultRegion.
// If parsing fails, it returns the trimmed input.
func NormalizeE164(input string) string {
	return NormalizeE164In(input, DefaultRegion)
}

// NormalizeE164In formats a phone number to E.164 using the given default region.
// Messaging platforms deliver sender IDs as bare digits including the country
// code ("919876543210"), so a leading "+" is tried first for long digit strings.
func NormalizeE164In(input, region string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return trimmed
	}
	if region == "" {
		region = DefaultRegion
	}

	if !strings.HasPrefix(trimmed, "+") && isDigits(trimmed) && len(trimmed) > 10 {
		if number, err := phonenumbers.Parse("+"+trimmed, region); err == nil && phonenumbers.IsValidNumber(number) {
			return phonenumbers.Format(number, phonenumbers.E164)
		}
	}

	number, err := phonenumbers.Parse(trimmed, region)
	if err != nil {
		return trimmed
	}

	if !phonenumbers.IsValidNumber(number) {
		return trimmed
	}

	return phonenumbers.Format(number, phonenumbers.E164)
}

// Variants returns the distinct spellings a stored phone number may have for
// the same subscriber: E.164, digits with country code, national digits, and
// the raw input. Order is most to least canonical.
func Variants(input, region string) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	seen := make(map[string]struct{})
	out := make([]string, 0, 5)
	add := func(v string) {
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	e164 := NormalizeE164In(trimmed, region)
	add(e164)
	if strings.HasPrefix(e164, "+") {
		add(strings.TrimPrefix(e164, "+"))
		if number, err := phonenumbers.Parse(e164, region); err == nil {
			add(phonenumbers.GetNationalSignificantNumber(number))
		}
	}
	add(trimmed)
	add(strings.TrimPrefix(trimmed, "+"))
	return out
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
