// Package money converts minor-unit amounts into exact decimals and localized
// display strings.
package money

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"fundraiser/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Exact returns a in major units, e.g. 12345 at scale 2 is 123.45.
func Exact(a domain.Amount, scale uint8) decimal.Decimal {
	return decimal.NewFromBigInt(a.Big(), -int32(scale))
}

// Major renders a in major units with exactly scale fractional digits.
func Major(a domain.Amount, scale uint8) string {
	return Exact(a, scale).StringFixed(int32(scale))
}

// ParseMajor parses a major-unit string such as "12.50" into minor units.
// More fractional digits than scale allows are rejected rather than rounded.
func ParseMajor(s string, scale uint8) (domain.Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return domain.Amount{}, domain.Fail(domain.ErrInvalidAmount, "amount", s)
	}
	minor := d.Shift(int32(scale))
	if !minor.Equal(minor.Truncate(0)) {
		return domain.Amount{}, domain.Fail(domain.ErrInvalidAmount, "amount", s, "scale", scale)
	}
	return domain.AmountFromBig(minor.BigInt())
}

// Progress is funds as a percentage of goal, rounded to two places. A zero
// goal yields zero.
func Progress(funds, goal domain.Amount) decimal.Decimal {
	if goal.IsZero() {
		return decimal.Zero
	}
	f := decimal.NewFromBigInt(funds.Big(), 0)
	g := decimal.NewFromBigInt(goal.Big(), 0)
	return f.Mul(hundred).DivRound(g, 2)
}

// Display renders a for humans in the given locale, prefixed with the
// currency symbol. Unknown currency codes are appended verbatim. Digits come
// from the exact decimal; only the separators are taken from the locale.
func Display(tag language.Tag, a domain.Amount, code string, scale uint8) string {
	p := message.NewPrinter(tag)
	num := localize(Major(a, scale), p)

	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%s %s", num, strings.ToUpper(code))
	}
	return p.Sprintf("%v %s", currency.Symbol(unit), num)
}

// localize regroups a plain "1234.56" string with the printer's separators.
func localize(fixed string, p *message.Printer) string {
	group, point := separators(p)
	whole, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range whole {
		if i > 0 && group != "" && (len(whole)-i)%3 == 0 {
			b.WriteString(group)
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteString(point)
		b.WriteString(frac)
	}
	return b.String()
}

// separators derives the grouping and decimal separators of p from a sample
// wide enough to be grouped in every supported locale.
func separators(p *message.Printer) (group, point string) {
	sample := p.Sprint(number.Decimal(1234567.5, number.Scale(1)))
	var seps []string
	for _, r := range sample {
		if !unicode.IsDigit(r) {
			seps = append(seps, string(r))
		}
	}
	switch len(seps) {
	case 0:
		return "", "."
	case 1:
		return "", seps[0]
	default:
		return seps[0], seps[len(seps)-1]
	}
}
