package domain

import (
	"regexp"
	"strings"
)

// Pair is a market in unified BASE/QUOTE notation, e.g. "BTC/KRW" or "USD/KRW".
type Pair string

const pairDelimiter = "/"

var currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)

// NewPair joins base and quote into unified notation after normalizing both.
func NewPair(base, quote string) Pair {
	return Pair(NormalizeSymbol(base) + pairDelimiter + NormalizeSymbol(quote))
}

// SplitPair returns the base and quote parts of a unified pair.
func SplitPair(p string) (base, quote string, ok bool) {
	base, quote, ok = strings.Cut(p, pairDelimiter)
	if !ok || base == "" || quote == "" || strings.Contains(quote, pairDelimiter) {
		return "", "", false
	}
	return base, quote, true
}

// Base extracts the asset portion preceding the delimiter, normalized.
func (p Pair) Base() string {
	base, _, ok := SplitPair(string(p))
	if !ok {
		return ""
	}
	return NormalizeSymbol(base)
}

// Quote returns the quote currency portion, normalized.
func (p Pair) Quote() string {
	_, quote, ok := SplitPair(string(p))
	if !ok {
		return ""
	}
	return NormalizeSymbol(quote)
}

// NormalizeSymbol trims and upper-cases an asset ticker.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidateCurrencyPair reports whether p is a fiat pair usable with an FX source,
// i.e. two distinct three-letter codes.
func ValidateCurrencyPair(p string) bool {
	base, quote, ok := SplitPair(p)
	if !ok {
		return false
	}
	return currencyRe.MatchString(base) && currencyRe.MatchString(quote) && base != quote
}
