package ledger

import (
	"fmt"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Monetary amounts are stored as Decimal128 with at most two fraction
// digits. Arithmetic happens on integer cents; rounding is half-to-even,
// matching Decimal128's default rounding mode, so the stored value is the
// same whether the store or this code does the rounding.

// MustAmount parses a decimal literal like "19.99" into a Decimal128.
// It panics on malformed input and is intended for constants.
func MustAmount(s string) bson.Decimal128 {
	d, err := bson.ParseDecimal128(s)
	if err != nil {
		panic(fmt.Sprintf("MustAmount: %q: %v", s, err))
	}
	return d
}

// ParseCents converts a Decimal128 amount into integer cents. Amounts with
// more than two fraction digits or exponent notation are rejected; the
// workflow never produces them.
func ParseCents(d bson.Decimal128) (int64, error) {
	s := d.String()
	if strings.ContainsAny(s, "eE") {
		return 0, fmt.Errorf("ParseCents: %q: exponent notation not supported", s)
	}

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, fracPart = s[:i], s[i+1:]
	}
	if len(fracPart) > 2 {
		return 0, fmt.Errorf("ParseCents: %q: more than two fraction digits", s)
	}
	for len(fracPart) < 2 {
		fracPart += "0"
	}
	if intPart == "" {
		intPart = "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ParseCents: %q: %w", s, err)
	}
	frac, err := strconv.ParseInt(fracPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("ParseCents: %q: %w", s, err)
	}

	cents := units*100 + frac
	if neg {
		cents = -cents
	}
	return cents, nil
}

// FromCents converts integer cents back into a Decimal128 amount.
func FromCents(cents int64) bson.Decimal128 {
	neg := ""
	if cents < 0 {
		neg = "-"
		cents = -cents
	}
	d, err := bson.ParseDecimal128(fmt.Sprintf("%s%d.%02d", neg, cents/100, cents%100))
	if err != nil {
		// Unreachable: the formatted string is always a valid decimal.
		panic(fmt.Sprintf("FromCents: %d: %v", cents, err))
	}
	return d
}

// ApplyPercent returns pct percent of the amount, rounded half-to-even to
// two decimal places. ApplyPercent(a, 80) is the 20%-discount rule.
func ApplyPercent(d bson.Decimal128, pct int64) (bson.Decimal128, error) {
	cents, err := ParseCents(d)
	if err != nil {
		return bson.Decimal128{}, fmt.Errorf("ApplyPercent: %w", err)
	}

	total := cents * pct
	q, r := total/100, total%100
	switch {
	case r > 50:
		q++
	case r == 50 && q%2 != 0:
		q++
	}
	return FromCents(q), nil
}

// FormatAmount renders an amount for listings, always with two decimals.
func FormatAmount(d bson.Decimal128) string {
	cents, err := ParseCents(d)
	if err != nil {
		// Fall back to the raw decimal form for amounts written by other
		// tools.
		return d.String()
	}
	neg := ""
	if cents < 0 {
		neg = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", neg, cents/100, cents%100)
}
