package markov

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCatCorpus(t *testing.T) {
	x := buildTestIndex(t, testConfig(), catCorpus)

	assert.Equal(t, 2, x.Samples())
	assert.Equal(t, 1, x.MinOrder())
	assert.Equal(t, 2, x.MaxOrder())

	cat, ok := x.Lookup(toks("cat"))
	require.True(t, ok)
	assert.Equal(t, []string{"sat", "ran"}, Texts(cat.Next))
	assert.Equal(t, 1, cat.Order)

	theCat, ok := x.Lookup(toks("The", "CAT"))
	require.True(t, ok)
	assert.Equal(t, []string{"sat", "ran"}, Texts(theCat.Next))
	assert.Equal(t, 2, theCat.Order)

	// "the" is a stopword: it is indexed, but nothing led by it is a start.
	the, ok := x.Lookup(toks("the"))
	require.True(t, ok)
	assert.Equal(t, []string{"cat", "cat"}, Texts(the.Next))
	assert.False(t, the.Start)
	assert.False(t, theCat.Start)

	sat, ok := x.Lookup(toks("sat"))
	require.True(t, ok)
	require.Len(t, sat.Next, 1)
	assert.True(t, sat.Next[0].Boundary)

	_, ok = x.Lookup(toks("cat", "sat", "ran"))
	assert.False(t, ok, "order 3 is outside the configured range")

	assert.Equal(t, 0, x.Frequency("the"))
	assert.Equal(t, 2, x.Frequency("CAT"))
	assert.Equal(t, 1, x.Frequency("sat"))
	assert.Equal(t, 4, x.TotalTokens())
}

func TestBuildKeyOrder(t *testing.T) {
	x := buildTestIndex(t, testConfig(), catCorpus)

	var labels []string
	for _, n := range x.Keys() {
		labels = append(labels, Render(n.Tokens))
	}
	assert.Equal(t, []string{"the", "cat", "sat", "the cat", "cat sat", "ran", "cat ran"}, labels)

	assert.Empty(t, x.StartKeys())

	cfg := testConfig()
	cfg.Stopwords = nil
	x = buildTestIndex(t, cfg, catCorpus)
	var starts []string
	for _, n := range x.StartKeys() {
		starts = append(starts, Render(n.Tokens))
	}
	assert.Equal(t, []string{"the", "the cat"}, starts)
}

// TestBuildInvariants checks, for several corpora and order ranges, that every
// key is a real contiguous window of some sample and that every continuation
// literally follows it, with multiset size equal to the occurrence count.
func TestBuildInvariants(t *testing.T) {
	corpora := [][]string{
		catCorpus,
		fishCorpus,
		{"a a a a", "a b a b a", "b"},
		{"Mixed CASE words", "mixed case WORDS again"},
	}
	ranges := [][2]int{{1, 1}, {1, 3}, {2, 3}, {3, 5}}

	for _, corpus := range corpora {
		for _, r := range ranges {
			cfg := DefaultConfig()
			cfg.MinOrder, cfg.MaxOrder = r[0], r[1]
			m := newTestModel(t, cfg)
			x, err := m.Build(context.Background(), corpus)
			require.NoError(t, err)

			var sequences [][]Token
			for _, s := range corpus {
				sequences = append(sequences, append(m.Tokenizer().Tokenize(Normalize(s)), BoundaryToken()))
			}

			for _, ngram := range x.Keys() {
				require.Equal(t, len(ngram.Tokens), ngram.Order)
				require.GreaterOrEqual(t, ngram.Order, r[0])
				require.LessOrEqual(t, ngram.Order, r[1])

				var following []string
				for _, seq := range sequences {
					for i := 0; i+ngram.Order < len(seq); i++ {
						if NgramKey(seq[i:i+ngram.Order]) == ngram.Key {
							following = append(following, seq[i+ngram.Order].Key())
						}
					}
				}
				require.NotEmpty(t, following, "key %q does not occur in the corpus", ngram.Key)

				var next []string
				for _, tok := range ngram.Next {
					next = append(next, tok.Key())
				}
				assert.Equal(t, following, next, "continuations of %q", ngram.Key)
			}
		}
	}
}

func TestBuildShortSamples(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinOrder, cfg.MaxOrder = 3, 3
	x := buildTestIndex(t, cfg, []string{"hi", "hello there", "", "   "})

	// Both samples are too short for order 3, but they still count.
	assert.True(t, x.Empty())
	assert.Equal(t, 2, x.Samples())
	assert.Equal(t, 1, x.Frequency("hi"))
	assert.Equal(t, 1, x.Frequency("there"))
}

func TestBuildEmptyCorpus(t *testing.T) {
	x := buildTestIndex(t, DefaultConfig(), nil)
	assert.True(t, x.Empty())
	assert.Equal(t, 0, x.Len())

	_, err := NewGenerator(x, testRand(1))
	if !errors.Is(err, ErrEmptyCorpus) {
		t.Fatalf("NewGenerator() error = %v, want ErrEmptyCorpus", err)
	}
}

func TestBuildDeterministic(t *testing.T) {
	a := buildTestIndex(t, DefaultConfig(), fishCorpus)
	b := buildTestIndex(t, DefaultConfig(), fishCorpus)

	require.Equal(t, a.Len(), b.Len())
	ak, bk := a.Keys(), b.Keys()
	for i := range ak {
		assert.Equal(t, ak[i].Key, bk[i].Key)
		assert.Equal(t, ak[i].Next, bk[i].Next)
	}
}

func TestBuildStemming(t *testing.T) {
	cfg := testConfig()
	cfg.Stemming = true
	x := buildTestIndex(t, cfg, []string{"running runs", "the runner ran café cafe"})

	assert.Equal(t, 2, x.Frequency("run"))
	assert.Equal(t, 2, x.Frequency("running"))
	assert.Equal(t, 2, x.Frequency("cafe"))
	assert.Equal(t, 0, x.Frequency("the"))
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestModel(t, DefaultConfig()).Build(ctx, fishCorpus)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildSurfaceForm(t *testing.T) {
	x := buildTestIndex(t, testConfig(), []string{"Hello World", "hello world"})

	hello, ok := x.Lookup(toks("HELLO"))
	require.True(t, ok)
	assert.Equal(t, "Hello", hello.Tokens[0].Text, "first occurrence keeps its casing")
	assert.Equal(t, []string{"World", "world"}, Texts(hello.Next))
}

func BenchmarkBuild(b *testing.B) {
	corpus := make([]string, 0, 1000)
	for i := 0; i < 1000; i++ {
		corpus = append(corpus, fishCorpus[i%len(fishCorpus)])
	}
	m := newTestModel(b, DefaultConfig())
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.Build(ctx, corpus); err != nil {
			b.Fatalf("Build() error = %v", err)
		}
	}
}
