package markov

import (
	"context"
	"math/rand/v2"
	"testing"
)

var catCorpus = []string{"the cat sat", "the cat ran"}

var fishCorpus = []string{
	"one fish two fish.",
	"red fish blue fish.",
	"one fish swims far away from the red fish!",
}

// newTestModel builds a Model from cfg and fails the test on error.
func newTestModel(t testing.TB, cfg Config) *Model {
	t.Helper()
	m, err := NewModel(cfg)
	if err != nil {
		t.Fatalf("NewModel() error = %v", err)
	}
	return m
}

// buildTestIndex is a convenience helper that builds an index over samples.
func buildTestIndex(t testing.TB, cfg Config, samples []string) *Index {
	t.Helper()
	x, err := newTestModel(t, cfg).Build(context.Background(), samples)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return x
}

// testConfig returns an order [1,2] config with "the" as the only stopword.
func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinOrder = 1
	cfg.MaxOrder = 2
	cfg.Stopwords = []string{"the"}
	return cfg
}

// testRand returns a reproducible random source.
func testRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func newTestGenerator(t testing.TB, x *Index, seed uint64) *Generator {
	t.Helper()
	g, err := NewGenerator(x, testRand(seed))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func toks(words ...string) []Token {
	out := make([]Token, len(words))
	for i, w := range words {
		out[i] = Token{Text: w}
	}
	return out
}
