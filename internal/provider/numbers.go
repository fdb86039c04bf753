package provider

import (
	"strings"

	"github.com/shopspring/decimal"

	apperrors "daily-tracker/internal/errors"
)

// ParsePrice converts a locale-formatted price string to a number.
// Accepts thousands separators and currency/whitespace noise:
// "6,325" -> 6325, "₹ 1,23,456.50" -> 123456.50.
func ParsePrice(s string) (float64, error) {
	cleaned := cleanNumeric(s)
	if cleaned == "" {
		return 0, apperrors.Wrapf(apperrors.ErrMalformedQuote, "empty price %q", s)
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrMalformedQuote, "price %q", s)
	}
	return d.InexactFloat64(), nil
}

// ParsePercent converts a percent-change string to a plain percent number:
// "1.23%" -> 1.23, "-0.5 %" -> -0.5, "+2.1" -> 2.1.
func ParsePercent(s string) (float64, error) {
	cleaned := cleanNumeric(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if cleaned == "" {
		return 0, nil // absent percent change is reported as zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, apperrors.Wrapf(apperrors.ErrMalformedQuote, "percent %q", s)
	}
	return d.InexactFloat64(), nil
}

// cleanNumeric strips everything except digits, sign, and decimal point.
// A leading '+' is dropped; a '-' anywhere marks the value negative.
func cleanNumeric(s string) string {
	var b strings.Builder
	negative := false
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r == '-':
			negative = true
		}
	}
	out := b.String()
	if out == "" || out == "." {
		return ""
	}
	if negative {
		return "-" + out
	}
	return out
}
