package markov

import (
	"context"
	"log/slog"
	"strings"
)

// ctxCheckInterval is how many samples Build processes between context checks.
const ctxCheckInterval = 256

// Build normalizes and tokenizes every sample, appends a boundary token to each
// and indexes every window of every configured order. The returned Index is
// immutable. Building is deterministic: the same samples in the same order
// always produce the same Index, including key enumeration order.
//
// Samples that are empty after normalization are skipped. A sample shorter
// than MinOrder contributes no n-grams but still counts toward the frequency
// table. An empty corpus is not an error; the resulting Index is simply Empty
// and NewGenerator reports ErrEmptyCorpus for it.
//
// The only error Build returns is the context's.
func (m *Model) Build(ctx context.Context, samples []string) (*Index, error) {
	x := newIndex(m)

	for n, sample := range samples {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x.add(m.tokenizer.Tokenize(Normalize(sample)))
	}

	m.logger.DebugContext(ctx, "Index built",
		slog.Int("samples", x.samples),
		slog.Int("ngrams", len(x.keys)),
		slog.Int("starts", len(x.starts)),
		slog.Int("vocabulary", len(x.freqOrder)),
	)
	return x, nil
}

// add indexes a single tokenized sample.
func (x *Index) add(tokens []Token) {
	if len(tokens) == 0 {
		return
	}
	x.samples++

	for _, tok := range tokens {
		if x.tokenizer.IsStopword(tok.Text) {
			continue
		}
		key := x.freqKey(tok.Text)
		if _, ok := x.freq[key]; !ok {
			x.freqOrder = append(x.freqOrder, key)
		}
		x.freq[key]++
	}

	tokens = append(tokens, BoundaryToken())
	startEligible := !x.tokenizer.IsStopword(tokens[0].Text)

	for o := x.minOrder; o <= x.maxOrder; o++ {
		// The window must leave room for a continuation, so keys never contain
		// the trailing boundary.
		for i := 0; i+o < len(tokens); i++ {
			window := tokens[i : i+o]
			key := NgramKey(window)

			ngram, ok := x.ngrams[key]
			if !ok {
				ngram = &Ngram{
					Key:    key,
					Tokens: append([]Token(nil), window...),
					Order:  o,
				}
				x.ngrams[key] = ngram
				x.keys = append(x.keys, ngram)
				if o == x.minOrder {
					head := window[0].Key()
					x.heads[head] = append(x.heads[head], ngram)
				}
			}
			ngram.Next = append(ngram.Next, tokens[i+o])

			if i == 0 && startEligible && !ngram.Start {
				ngram.Start = true
				x.starts = append(x.starts, ngram)
			}
		}
	}
}

// freqKey maps a token onto its frequency table key.
func (x *Index) freqKey(token string) string {
	if x.stemmer != nil {
		return x.stemmer.Stem(token)
	}
	return strings.ToLower(token)
}
