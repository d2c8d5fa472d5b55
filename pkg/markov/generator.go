package markov

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// Generator performs random walks over a single Index. All randomness (seed
// selection, order attempt order, continuation sampling) is drawn from the
// injected source, so two Generators built over the same Index with
// identically seeded sources produce identical output.
//
// A Generator is not safe for concurrent use because *rand.Rand is not.
// Create one per request; the Index itself may be shared.
type Generator struct {
	index  *Index
	rng    *rand.Rand
	orders []int
	logger *slog.Logger
}

// NewGenerator returns a Generator over index. ErrEmptyCorpus is returned when
// the index holds no n-grams. A nil rng is replaced by a PCG source seeded from
// the runtime's global generator, which is convenient outside of tests but not
// reproducible.
func NewGenerator(index *Index, rng *rand.Rand) (*Generator, error) {
	if index.Empty() {
		return nil, ErrEmptyCorpus
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	orders := make([]int, 0, index.maxOrder-index.minOrder+1)
	for o := index.minOrder; o <= index.maxOrder; o++ {
		orders = append(orders, o)
	}

	return &Generator{
		index:  index,
		rng:    rng,
		orders: orders,
		logger: index.logger,
	}, nil
}

// SetLogger sets the logger used for walk diagnostics.
func (g *Generator) SetLogger(logger *slog.Logger) {
	if logger != nil {
		g.logger = logger
	}
}

// Index returns the index the Generator walks.
func (g *Generator) Index() *Index {
	return g.index
}

// RandomSeed draws a uniformly random key from the start set and returns a
// copy of its tokens. When the start set is empty and the index was built with
// StartFallback, every key is a candidate; otherwise ErrNoStartCandidates is
// returned.
func (g *Generator) RandomSeed() ([]Token, error) {
	candidates := g.index.starts
	if len(candidates) == 0 {
		if !g.index.startFallback {
			return nil, ErrNoStartCandidates
		}
		candidates = g.index.keys
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: index has no keys", ErrNoStartCandidates)
	}

	pick := candidates[g.rng.IntN(len(candidates))]
	return append([]Token(nil), pick.Tokens...), nil
}

// next samples one continuation for seq. The orders are tried in a fresh random
// permutation and the first suffix key present in the index wins. A sequence
// shorter than every order is extended from an n-gram it begins.
func (g *Generator) next(seq []Token) (Token, bool) {
	for _, p := range g.rng.Perm(len(g.orders)) {
		o := g.orders[p]
		if o > len(seq) {
			continue
		}
		ngram, ok := g.index.ngrams[NgramKey(seq[len(seq)-o:])]
		if !ok || len(ngram.Next) == 0 {
			continue
		}
		return ngram.Next[g.rng.IntN(len(ngram.Next))], true
	}
	if len(seq) < g.index.minOrder {
		return g.extend(seq)
	}
	return Token{}, false
}

// extend continues a sequence shorter than the lowest order. Among the
// lowest-order n-grams that begin with the whole sequence, one is drawn with
// weight equal to its number of occurrences, and its token following the
// sequence is returned. A one-word query thus grows forward from that word.
func (g *Generator) extend(seq []Token) (Token, bool) {
	prefix := NgramKey(seq)
	var candidates []*Ngram
	var total int
	for _, ngram := range g.index.heads[seq[0].Key()] {
		if NgramKey(ngram.Tokens[:len(seq)]) != prefix {
			continue
		}
		candidates = append(candidates, ngram)
		total += len(ngram.Next)
	}
	if total == 0 {
		return Token{}, false
	}

	r := g.rng.IntN(total)
	for _, ngram := range candidates {
		if r < len(ngram.Next) {
			return ngram.Tokens[len(seq)], true
		}
		r -= len(ngram.Next)
	}
	return Token{}, false
}
