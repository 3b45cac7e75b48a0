package engine

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencyReplacer = strings.NewReplacer("$", "", "€", "", "£", "")

// ParseAmount normalizes heterogeneous numeric text into an exact decimal.
// Handles thousands separators, parenthesized negatives, currency glyphs, and
// European decimal commas. Empty and NaN-like tokens are zero. An unparseable
// token returns zero with a MalformedAmountError; it never aborts a batch.
func ParseAmount(token string) (decimal.Decimal, error) {
	text := strings.TrimSpace(token)
	if text == "" {
		return decimal.Zero, nil
	}
	switch strings.ToLower(text) {
	case "nan", "null", "none", "n/a":
		return decimal.Zero, nil
	}

	if strings.HasPrefix(text, "(") && strings.HasSuffix(text, ")") {
		text = "-" + text[1:len(text)-1]
	}
	text = strings.TrimSpace(currencyReplacer.Replace(text))

	// Plain number, '.' decimal at most.
	if d, err := decimal.NewFromString(text); err == nil {
		return d, nil
	}

	hasDot := strings.Contains(text, ".")
	hasComma := strings.Contains(text, ",")
	switch {
	case hasDot && hasComma:
		// Both separators present: the one further right is the decimal
		// point, the other groups thousands.
		if strings.LastIndex(text, ".") > strings.LastIndex(text, ",") {
			if d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "")); err == nil {
				return d, nil
			}
		} else {
			alt := strings.ReplaceAll(text, ".", "")
			alt = strings.ReplaceAll(alt, ",", ".")
			if d, err := decimal.NewFromString(alt); err == nil {
				return d, nil
			}
		}
	case hasComma:
		// Comma only: thousands separator when it groups digits in threes,
		// otherwise a decimal comma.
		if commaGroupsThousands(text) {
			if d, err := decimal.NewFromString(strings.ReplaceAll(text, ",", "")); err == nil {
				return d, nil
			}
		} else if strings.Count(text, ",") == 1 {
			if d, err := decimal.NewFromString(strings.Replace(text, ",", ".", 1)); err == nil {
				return d, nil
			}
		}
	}

	return decimal.Zero, &MalformedAmountError{Token: token}
}

func commaGroupsThousands(text string) bool {
	parts := strings.Split(strings.TrimPrefix(text, "-"), ",")
	if len(parts) < 2 || len(parts[0]) == 0 || len(parts[0]) > 3 {
		return false
	}
	for i, p := range parts {
		if i > 0 && len(p) != 3 {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
