package markov

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultPattern matches runs of letters, combining marks, digits and
// punctuation, plus the handful of symbols that show up in chat text.
const DefaultPattern = `[\p{L}\p{M}\p{N}\p{P}<>@#_+*\-]+`

// Tokenizer splits normalized text into tokens using a regular expression and
// knows which tokens are stopwords. It is stateless and safe for concurrent use.
type Tokenizer struct {
	pattern   *regexp.Regexp
	stopwords map[string]struct{}
}

type tokenizerOptions struct {
	pattern   string
	stopwords []string
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*tokenizerOptions)

// WithPattern sets the regex used to find tokens in text.
// Default: DefaultPattern
func WithPattern(pattern string) TokenizerOption {
	return func(o *tokenizerOptions) {
		if pattern != "" {
			o.pattern = pattern
		}
	}
}

// WithStopwords sets the stopword list. Matching is case-insensitive.
func WithStopwords(words []string) TokenizerOption {
	return func(o *tokenizerOptions) {
		o.stopwords = append(o.stopwords, words...)
	}
}

// NewTokenizer compiles the configured pattern. A pattern that does not
// compile, or that matches the empty string, is reported as ErrInvalidPattern
// so bad configuration fails here rather than on every call.
func NewTokenizer(opts ...TokenizerOption) (*Tokenizer, error) {
	options := &tokenizerOptions{pattern: DefaultPattern}
	for _, opt := range opts {
		opt(options)
	}

	re, err := regexp.Compile(options.pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, options.pattern, err)
	}
	if re.MatchString("") {
		return nil, fmt.Errorf("%w: %q matches the empty string", ErrInvalidPattern, options.pattern)
	}

	stopwords := make(map[string]struct{}, len(options.stopwords))
	for _, w := range options.stopwords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			stopwords[w] = struct{}{}
		}
	}

	return &Tokenizer{pattern: re, stopwords: stopwords}, nil
}

var reserved = strings.NewReplacer(BoundaryText, "", KeyDelimiter, "")

// Tokenize returns the tokens of text in order. Text is expected to be
// normalized already; Tokenize does not normalize it again.
func (t *Tokenizer) Tokenize(text string) []Token {
	matches := t.pattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]Token, 0, len(matches))
	for _, m := range matches {
		// A permissive custom pattern could match the reserved sentinels.
		m = strings.TrimSpace(reserved.Replace(m))
		if m == "" {
			continue
		}
		tokens = append(tokens, Token{Text: m})
	}
	return tokens
}

// IsStopword reports whether text, compared case-insensitively, is a stopword.
func (t *Tokenizer) IsStopword(text string) bool {
	_, ok := t.stopwords[strings.ToLower(text)]
	return ok
}

// Pattern returns the source of the compiled token pattern.
func (t *Tokenizer) Pattern() string {
	return t.pattern.String()
}
