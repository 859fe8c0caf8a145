// Package currency normalizes and validates currency codes.
package currency

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/currency"
)

var ErrInvalidCode = errors.New("invalid currency code")

// Normalize trims and upper-cases a code. It does not validate.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Parse normalizes code and checks it is a 2–3 letter code. Three-letter
// codes must also be known ISO 4217 units.
func Parse(code string) (string, error) {
	c := Normalize(code)
	if len(c) < 2 || len(c) > 3 {
		return "", fmt.Errorf("%w: %q must be 2-3 letters", ErrInvalidCode, code)
	}

	for _, r := range c {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q must be letters only", ErrInvalidCode, code)
		}
	}

	if len(c) == 3 {
		if _, err := currency.ParseISO(c); err != nil {
			return "", fmt.Errorf("%w: %q is not an ISO 4217 code", ErrInvalidCode, code)
		}
	}

	return c, nil
}
