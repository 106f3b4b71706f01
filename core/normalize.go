package core

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	markupTags = regexp.MustCompile(`<[^>]*>`)
	multiSpace = regexp.MustCompile(`\s+`)
)

// accentStripper removes combining marks after canonical decomposition,
// so "précision" and "precision" normalize to the same form.
var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeText prepares raw query or label text for matching:
// markup stripped, accents removed, case folded, whitespace collapsed.
// The same pipeline is applied to queries and to the label corpus so that
// lexical comparison is exact on normalized forms.
func NormalizeText(text string) string {
	if text == "" {
		return ""
	}

	t := markupTags.ReplaceAllString(text, " ")

	stripped, _, err := transform.String(accentStripper, t)
	if err == nil {
		t = stripped
	}

	t = strings.ToLower(t)
	t = multiSpace.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Tokenize splits normalized text into word tokens, dropping punctuation.
func Tokenize(normalized string) []string {
	fields := strings.FieldsFunc(normalized, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
