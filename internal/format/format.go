// Package format renders phone numbers, currency and free text for display.
package format

import (
	"html"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const maxPhoneDigits = 11

// Digits drops everything that is not an ASCII digit.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Phone masks a Brazilian phone number as it is typed: (XX) XXXX-XXXX for
// landlines and (XX) XXXXX-XXXX for mobiles. Extra digits are dropped.
func Phone(s string) string {
	d := Digits(s)
	if len(d) > maxPhoneDigits {
		d = d[:maxPhoneDigits]
	}
	switch {
	case len(d) <= 2:
		return d
	case len(d) <= 6:
		return "(" + d[:2] + ") " + d[2:]
	case len(d) <= 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	}
}

var brl = message.NewPrinter(language.BrazilianPortuguese)

// Currency formats v as Brazilian reais, e.g. "R$ 1.500,50".
func Currency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	amount := brl.Sprint(number.Decimal(v, number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	sym := brl.Sprint(currency.Symbol(currency.BRL))
	out := strings.TrimSpace(sym) + " " + amount
	if neg {
		return "-" + out
	}
	return out
}

// MaxCents is the largest amount ParseCurrency returns, in cents. Beyond it
// a float64 no longer holds every cent exactly.
const MaxCents = 1 << 53

// ParseCurrency reads a masked amount by keeping its digits as cents, so
// "R$ 1.500,50" and "150050" both give 1500.5. Amounts above MaxCents are
// clamped to MaxCents.
func ParseCurrency(s string) float64 {
	var cents int64
	for _, r := range Digits(s) {
		cents = cents*10 + int64(r-'0')
		if cents > MaxCents {
			return float64(MaxCents) / 100
		}
	}
	return float64(cents) / 100
}

var strict = bluemonday.StrictPolicy()

// PlainText strips markup from server-provided text and collapses runs of
// whitespace so it fits a single terminal cell. The sanitizer escapes its
// output for HTML, which a terminal does not want, so entities are decoded.
func PlainText(s string) string {
	s = html.UnescapeString(strict.Sanitize(s))
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

// Truncate shortens s to width runes, ending with an ellipsis when cut.
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return string(r[:width-1]) + "…"
}
