package delivery

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// PhoneNormalizer turns a typed phone number into the digits-only,
// country-prefixed form messaging links expect.
type PhoneNormalizer struct {
	CountryCode    string
	NationalLength int
}

func NewPhoneNormalizer(countryCode string, nationalLength int) PhoneNormalizer {
	return PhoneNormalizer{CountryCode: countryCode, NationalLength: nationalLength}
}

// Normalize strips non-digits and leading zeros, prefixes the country code
// onto a bare national number, then checks the final length. Normalizing
// an already normalized number returns it unchanged.
func (p PhoneNormalizer) Normalize(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := strings.TrimLeft(b.String(), "0")
	if digits == "" {
		return "", fmt.Errorf("%w: %q has no digits", ErrInvalidPhone, raw)
	}

	if len(digits) == p.NationalLength {
		digits = p.CountryCode + digits
	}
	if len(digits) != len(p.CountryCode)+p.NationalLength || !strings.HasPrefix(digits, p.CountryCode) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPhone, raw)
	}
	return digits, nil
}
