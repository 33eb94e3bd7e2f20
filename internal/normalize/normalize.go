// Package normalize turns raw expense descriptions into the canonical token
// stream every matcher consumes.
package normalize

import (
	"regexp"
	"strings"
)

// maxPasses bounds the fixed-point loop. The pipeline stabilizes within three
// passes for any input; the extra headroom is never reached in practice.
const maxPasses = 6

// currencyCodes are removed as whole tokens along with transaction-type markers.
var currencyCodes = []string{
	"usd", "ghs", "kes", "eur", "gbp", "jpy", "aud", "cad", "chf", "cny", "sek", "nzd",
	"mxn", "sgd", "hkd", "nok", "krw", "try", "rub", "inr", "brl", "zar", "dkk", "pln",
	"thb", "myr", "php", "idr", "czk", "huf", "ils", "clp", "aed", "cop", "sar", "twd",
	"vnd", "uah", "ron", "egp", "ngn", "kwd", "bhd", "omr", "qtr", "bgn", "hrk", "isk",
	"mdl", "mkd", "rsd", "sll", "srd", "syp", "tjs", "tmt", "uzs", "xaf", "xcd", "xof",
	"xpf", "yer", "zmw", "zwl",
}

type alias struct {
	pattern   *regexp.Regexp
	canonical string
}

var (
	noisePattern = regexp.MustCompile(`\b(?:pos\s+trxn|` + strings.Join(currencyCodes, "|") + `)\b`)

	// Canonical tokens are letter-only so they survive the character filter.
	aliases = []alias{
		{regexp.MustCompile(`\b(?:momo|mobile\s+money)\b`), "mobilemoney"},
		{regexp.MustCompile(`\b(?:airtel|vodafone|mtn|glo)\b`), "telecom"},
		{regexp.MustCompile(`\b(?:uber\s+eats|ubereats)\b`), "ubereats"},
		{regexp.MustCompile(`\b(?:kfc|mcdonalds|burger\s+king)\b`), "fastfood"},
	}

	currencySymbols = regexp.MustCompile(`[€$£¥₹]`)
	nonLetters      = regexp.MustCompile(`[^a-z\s]`)
	whitespace      = regexp.MustCompile(`\s+`)

	// Rich variant extras.
	datePattern = regexp.MustCompile(`\b\d{1,4}[/.-]\d{1,2}[/.-]\d{1,4}\b`)
	timePattern = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\s*(?:am|pm)?\b`)
	cardPattern = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b|(?:\*|x){2,}[ -]?\d{4}\b`)
)

// Normalizer applies the normalization pipeline, optionally preceded by extra
// strip patterns. The zero value is ready to use.
type Normalizer struct {
	preStrip []*regexp.Regexp
}

// New returns a Normalizer that removes every match of the given patterns
// (evaluated against lowercased text) before the standard pipeline runs.
func New(preStrip ...*regexp.Regexp) *Normalizer {
	return &Normalizer{preStrip: preStrip}
}

// Rich returns a Normalizer that also strips dates, times and card numbers,
// including the letter fragments (am/pm, masked digits) they would otherwise leave behind.
func Rich() *Normalizer {
	return New(datePattern, timePattern, cardPattern)
}

var standard = &Normalizer{}

// Normalize runs the standard pipeline over raw.
func Normalize(raw string) string {
	return standard.Normalize(raw)
}

// Normalize lowercases raw, removes currency noise, canonicalizes aliases,
// drops everything except ASCII letters and whitespace, then collapses spaces.
// The pipeline is repeated until the output no longer changes, so
// Normalize(Normalize(s)) == Normalize(s) for every s.
func (n *Normalizer) Normalize(raw string) string {
	text := raw
	for range maxPasses {
		next := n.pass(text)
		if next == text {
			break
		}
		text = next
	}
	return text
}

func (n *Normalizer) pass(text string) string {
	text = strings.ToLower(text)

	for _, re := range n.preStrip {
		text = re.ReplaceAllString(text, " ")
	}

	text = noisePattern.ReplaceAllString(text, "")
	for _, a := range aliases {
		text = a.pattern.ReplaceAllString(text, a.canonical)
	}

	text = currencySymbols.ReplaceAllString(text, "")
	text = nonLetters.ReplaceAllString(text, "")

	return strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
}
