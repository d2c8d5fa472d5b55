package markov

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	tokenizer, err := NewTokenizer()
	require.NoError(t, err)

	testCases := []struct {
		name string
		in   string
		want []string
	}{
		{"Simple", "the cat sat", []string{"the", "cat", "sat"}},
		{"Punctuation stays attached", "Hello, world!", []string{"Hello,", "world!"}},
		{"Mentions", "hey <@123> and @everyone", []string{"hey", "<@123>", "and", "@everyone"}},
		{"Unicode", "café naïve 東京", []string{"café", "naïve", "東京"}},
		{"Symbols dropped", "a ~ b | c", []string{"a", "b", "c"}},
		{"Empty", "", []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Texts(tokenizer.Tokenize(tc.in)))
		})
	}
}

func TestTokenizeCustomPattern(t *testing.T) {
	tokenizer, err := NewTokenizer(WithPattern(`[a-z]+`))
	require.NoError(t, err)
	assert.Equal(t, []string{"abc", "def"}, Texts(tokenizer.Tokenize("abc123def")))
	assert.Equal(t, "[a-z]+", tokenizer.Pattern())

	// A pattern that would swallow the boundary sentinel never emits it.
	permissive, err := NewTokenizer(WithPattern(`[^ ]+`))
	require.NoError(t, err)
	for _, tok := range permissive.Tokenize("a\x00b \x00") {
		assert.NotContains(t, tok.Text, BoundaryText)
	}

	// Nor the key delimiter, so no single token can pose as a two-token key.
	tokens := permissive.Tokenize("cat\x1fsat cat sat \x1f")
	assert.Equal(t, []string{"catsat", "cat", "sat"}, Texts(tokens))
	assert.NotEqual(t, NgramKey(tokens[1:3]), NgramKey(tokens[:1]))
}

func TestNewTokenizerInvalidPattern(t *testing.T) {
	for _, pattern := range []string{`[a-`, `a*`, `(x|)`} {
		_, err := NewTokenizer(WithPattern(pattern))
		if !errors.Is(err, ErrInvalidPattern) {
			t.Errorf("NewTokenizer(%q) error = %v, want ErrInvalidPattern", pattern, err)
		}
	}
}

func TestIsStopword(t *testing.T) {
	tokenizer, err := NewTokenizer(WithStopwords([]string{"The", " and ", ""}))
	require.NoError(t, err)

	assert.True(t, tokenizer.IsStopword("the"))
	assert.True(t, tokenizer.IsStopword("THE"))
	assert.True(t, tokenizer.IsStopword("and"))
	assert.False(t, tokenizer.IsStopword("cat"))
	assert.False(t, tokenizer.IsStopword(""))
}

func TestNgramKey(t *testing.T) {
	assert.Equal(t, "", NgramKey(nil))
	assert.Equal(t, "cat", NgramKey(toks("Cat")))
	assert.Equal(t, NgramKey(toks("The", "CAT")), NgramKey(toks("the", "cat")))
	assert.NotEqual(t, NgramKey(toks("a b")), NgramKey(toks("a", "b")))
	assert.Equal(t, BoundaryText, NgramKey([]Token{BoundaryToken()}))
}

func TestRender(t *testing.T) {
	seq := append(toks("Hello", "there."), BoundaryToken())
	assert.Equal(t, "Hello there.", Render(seq))
	assert.Equal(t, "", Render([]Token{BoundaryToken()}))
	assert.Equal(t, "", Render(nil))
}
