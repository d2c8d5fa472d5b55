package markov

import (
	"fmt"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru"
	"github.com/kljensen/snowball"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStemCacheSize is the number of stems a Stemmer remembers.
const DefaultStemCacheSize = 4096

// Stemmer reduces tokens to a folded, stemmed form for frequency reporting.
// Diacritics are stripped before stemming so "café" and "cafe" count together.
// Results are memoized in an LRU cache; a Stemmer is safe for concurrent use.
type Stemmer struct {
	language string
	cache    *lru.Cache
}

// NewStemmer creates a Stemmer for one of the snowball languages
// (english, spanish, french, russian, swedish, norwegian, hungarian).
func NewStemmer(language string, cacheSize int) (*Stemmer, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if _, err := snowball.Stem("testing", language, true); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	if cacheSize <= 0 {
		cacheSize = DefaultStemCacheSize
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("could not create stem cache: %w", err)
	}
	return &Stemmer{language: language, cache: cache}, nil
}

// Stem returns the stem of token. Tokens the stemmer cannot handle are
// returned folded and lowercased.
func (s *Stemmer) Stem(token string) string {
	key := strings.ToLower(token)
	if v, ok := s.cache.Get(key); ok {
		return v.(string)
	}

	folded := fold(key)
	stemmed, err := snowball.Stem(folded, s.language, true)
	if err != nil || stemmed == "" {
		stemmed = folded
	}
	s.cache.Add(key, stemmed)
	return stemmed
}

// Language returns the snowball language name.
func (s *Stemmer) Language() string {
	return s.language
}

// fold strips combining marks. Transformers are stateful, so a fresh chain is
// built per call.
func fold(word string) string {
	t := transform.Chain(norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC)
	result, _, err := transform.String(t, word)
	if err != nil || result == "" {
		return word
	}
	return result
}
