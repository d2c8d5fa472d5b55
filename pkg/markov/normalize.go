package markov

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
)

// isQuote reports whether r is a straight or typographic quotation mark.
func isQuote(r rune) bool {
	switch r {
	case '\'', '"', '‘', '’', '‚', '‛', '“', '”', '„', '‟', '‹', '›', '«', '»':
		return true
	}
	return false
}

var stripQuotes = runes.Remove(runes.Predicate(isQuote))

// Normalize canonicalizes raw text before tokenization and before any
// comparison between generated text and a seed. It drops invalid UTF-8,
// removes quotation marks, collapses every run of two or more whitespace
// characters into a single space and trims the result.
//
// Normalize is idempotent and the result is never longer than the input.
func Normalize(text string) string {
	// runes transformers replace invalid bytes with U+FFFD, which would grow the string.
	text = strings.ToValidUTF8(text, "")

	stripped, _, err := transform.String(stripQuotes, text)
	if err != nil {
		stripped = strings.Map(func(r rune) rune {
			if isQuote(r) {
				return -1
			}
			return r
		}, text)
	}

	return strings.TrimSpace(collapseSpace(stripped))
}

// collapseSpace replaces runs of two or more whitespace runes with a single
// ASCII space. Lone whitespace runes are kept as they are.
func collapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	var run int
	var first rune
	flush := func() {
		switch {
		case run == 1:
			b.WriteRune(first)
		case run > 1:
			b.WriteByte(' ')
		}
		run = 0
	}

	for _, r := range s {
		if unicode.IsSpace(r) {
			if run == 0 {
				first = r
			}
			run++
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()

	return b.String()
}
