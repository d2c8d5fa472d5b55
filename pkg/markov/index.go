package markov

import (
	"log/slog"
)

// Ngram is a single entry of an Index: a token sequence of one order and every
// token observed immediately after it. Next is a multiset; a continuation seen
// three times appears three times, so uniform sampling over Next is weighted by
// observed frequency.
type Ngram struct {
	Key    string  // The serialized, case-insensitive key (see NgramKey)
	Tokens []Token // Surface form of the first occurrence
	Order  int     // len(Tokens)
	Next   []Token // Observed continuations, in corpus order
	Start  bool    // Occurred at position 0 of a sample with a non-stopword lead
}

// Index is the immutable result of Model.Build. It maps n-gram keys of every
// configured order to their continuations and carries the start set and the
// token frequency table. Nothing mutates an Index after Build returns, so it can
// be read from many goroutines without locking.
type Index struct {
	minOrder int
	maxOrder int

	ngrams map[string]*Ngram
	keys   []*Ngram // first-seen order
	starts []*Ngram
	// heads maps a leading token key to the lowest-order n-grams it begins.
	heads map[string][]*Ngram

	freq      map[string]int
	freqOrder []string

	samples int

	tokenizer     *Tokenizer
	stemmer       *Stemmer
	boundary      BoundaryPolicy
	startFallback bool
	logger        *slog.Logger
}

func newIndex(m *Model) *Index {
	return &Index{
		minOrder:      m.config.MinOrder,
		maxOrder:      m.config.MaxOrder,
		ngrams:        make(map[string]*Ngram),
		heads:         make(map[string][]*Ngram),
		freq:          make(map[string]int),
		tokenizer:     m.tokenizer,
		stemmer:       m.stemmer,
		boundary:      m.config.Boundary,
		startFallback: m.config.StartFallback,
		logger:        m.logger,
	}
}

// Len returns the number of distinct n-gram keys across all orders.
func (x *Index) Len() int {
	return len(x.keys)
}

// Empty reports whether the index holds no n-grams at all.
func (x *Index) Empty() bool {
	return x == nil || len(x.keys) == 0
}

// Samples returns the number of non-empty samples that were indexed.
func (x *Index) Samples() int {
	return x.samples
}

// MinOrder returns the shortest indexed n-gram length.
func (x *Index) MinOrder() int {
	return x.minOrder
}

// MaxOrder returns the longest indexed n-gram length.
func (x *Index) MaxOrder() int {
	return x.maxOrder
}

// Tokenizer returns the tokenizer the index was built with.
func (x *Index) Tokenizer() *Tokenizer {
	return x.tokenizer
}

// Ngram returns the entry stored under a serialized key.
func (x *Index) Ngram(key string) (*Ngram, bool) {
	n, ok := x.ngrams[key]
	return n, ok
}

// Lookup returns the entry for a token sequence, compared case-insensitively.
func (x *Index) Lookup(tokens []Token) (*Ngram, bool) {
	if len(tokens) < x.minOrder || len(tokens) > x.maxOrder {
		return nil, false
	}
	return x.Ngram(NgramKey(tokens))
}

// Keys returns every entry in first-seen order. The slice is a copy; the
// entries themselves must be treated as read-only.
func (x *Index) Keys() []*Ngram {
	return append([]*Ngram(nil), x.keys...)
}

// StartKeys returns the start set in first-seen order.
func (x *Index) StartKeys() []*Ngram {
	return append([]*Ngram(nil), x.starts...)
}

// Frequency returns how many times a token (or its stem, when stemming is
// enabled) occurred in the corpus. Stopwords always report zero.
func (x *Index) Frequency(token string) int {
	return x.freq[x.freqKey(token)]
}

// TotalTokens returns the number of counted token occurrences.
func (x *Index) TotalTokens() int {
	var total int
	for _, c := range x.freq {
		total += c
	}
	return total
}
