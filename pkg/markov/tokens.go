package markov

import (
	"strings"
)

const (
	// BoundaryText is the reserved text of the sample-boundary token.
	// Tokenize strips it from matches, so it cannot collide with real content.
	BoundaryText = "\x00"
	// KeyDelimiter joins token keys into an n-gram key. Tokenize strips it too,
	// so a single token never equals a multi-token key.
	KeyDelimiter = "\x1f"
)

// Token represents a single tokenized unit of text. Text keeps the surface
// form as it appeared in the corpus, and Boundary marks the sentinel appended
// to the end of every sample.
type Token struct {
	Text     string
	Boundary bool
}

// BoundaryToken returns the sample-boundary sentinel.
func BoundaryToken() Token {
	return Token{Text: BoundaryText, Boundary: true}
}

// Key returns the case-insensitive form of the token used for indexing.
func (t Token) Key() string {
	if t.Boundary {
		return BoundaryText
	}
	return strings.ToLower(t.Text)
}

// NgramKey serializes a token sequence into the key used by an Index.
// Keys compare case-insensitively, and keys of different lengths never match.
func NgramKey(tokens []Token) string {
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0].Key()
	}

	var b strings.Builder
	for i, tok := range tokens {
		if i > 0 {
			b.WriteString(KeyDelimiter)
		}
		b.WriteString(tok.Key())
	}
	return b.String()
}

// Render joins tokens into display text, dropping boundary tokens.
func Render(tokens []Token) string {
	var b strings.Builder
	for _, tok := range tokens {
		if tok.Boundary || tok.Text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Text)
	}
	return strings.TrimSpace(b.String())
}

// Texts returns the surface text of every token, boundaries included.
func Texts(tokens []Token) []string {
	out := make([]string, len(tokens))
	for i, tok := range tokens {
		out[i] = tok.Text
	}
	return out
}
