package normalize

import (
	"fmt"
	"strings"

	"gitlab.com/crmcom/api/centralwap-router/internal/apperrors"
	"gitlab.com/crmcom/api/centralwap-router/internal/config"
)

// PhoneNormalizer canonicalizes free-form phone strings to the international
// form used as the contact lookup key. It is a pure function over one
// country's numbering plan: same input always yields same output, no I/O.
type PhoneNormalizer struct {
	plan config.PhonePlan
}

// NewPhoneNormalizer creates a normalizer for the given numbering plan.
func NewPhoneNormalizer(plan config.PhonePlan) *PhoneNormalizer {
	return &PhoneNormalizer{plan: plan}
}

// Normalize applies the canonicalization rules in order of precedence and
// returns either a canonical "+<country><number>" string or ErrUnparseable.
// Normalizing an already-canonical number returns it unchanged.
func (n *PhoneNormalizer) Normalize(raw string) (string, error) {
	cleaned, err := stripSeparators(raw)
	if err != nil {
		return "", err
	}

	intlPrefix := "+" + n.plan.CountryCode

	// Already internationally prefixed: accept only if it also matches the
	// mobile convention (leading mobile digit, full local length).
	if strings.HasPrefix(cleaned, intlPrefix) {
		rest := strings.TrimPrefix(cleaned, intlPrefix)
		if strings.HasPrefix(rest, n.plan.MobileDigit) && len(rest) == len(n.plan.MobileDigit)+n.plan.LocalLength {
			return cleaned, nil
		}
		return "", fmt.Errorf("%w: %q has international prefix but does not match the mobile convention", apperrors.ErrUnparseable, raw)
	}

	// Bare country calling code: add the international prefix.
	if strings.HasPrefix(cleaned, n.plan.CountryCode) {
		return "+" + cleaned, nil
	}

	// Leading mobile digit and long enough: add the country calling code.
	if strings.HasPrefix(cleaned, n.plan.MobileDigit) && len(cleaned) >= len(n.plan.MobileDigit)+n.plan.LocalLength {
		return intlPrefix + cleaned, nil
	}

	// Bare local-format number of the expected length: assume mobile, add both
	// the leading digit and the country code.
	if len(cleaned) == n.plan.LocalLength {
		return intlPrefix + n.plan.MobileDigit + cleaned, nil
	}

	// Within the acceptable total-length range: assume the leading digit is
	// already present and add just the country code.
	if len(cleaned) >= n.plan.MinLength && len(cleaned) <= n.plan.MaxLength {
		return intlPrefix + cleaned, nil
	}

	return "", fmt.Errorf("%w: unparseable phone number %q", apperrors.ErrUnparseable, raw)
}

// stripSeparators removes whitespace, hyphens, dots and parentheses. Anything
// left besides digits (and one leading "+") makes the input unparseable.
func stripSeparators(raw string) (string, error) {
	var b strings.Builder
	for i, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')' || r == '\t':
			// separator, dropped
		default:
			return "", fmt.Errorf("%w: unexpected character %q in phone number", apperrors.ErrUnparseable, r)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("%w: empty phone number", apperrors.ErrUnparseable)
	}
	return b.String(), nil
}
