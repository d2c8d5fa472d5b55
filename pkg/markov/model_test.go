package markov

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"Default", func(*Config) {}, nil},
		{"Unigram only", func(c *Config) { c.MinOrder, c.MaxOrder = 1, 1 }, nil},
		{"Zero min order", func(c *Config) { c.MinOrder = 0 }, ErrInvalidOrder},
		{"Max below min", func(c *Config) { c.MinOrder, c.MaxOrder = 3, 2 }, ErrInvalidOrder},
		{"Bad pattern", func(c *Config) { c.Pattern = "[" }, ErrInvalidPattern},
		{"Empty pattern uses default", func(c *Config) { c.Pattern = "" }, nil},
		{"Unknown stem language", func(c *Config) { c.Stemming, c.StemLanguage = true, "klingon" }, ErrUnsupportedLanguage},
		{"Stem language ignored when stemming is off", func(c *Config) { c.StemLanguage = "klingon" }, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(&cfg)
			m, err := NewModel(cfg)
			if tc.wantErr == nil {
				require.NoError(t, err)
				assert.NotNil(t, m.Tokenizer())
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("NewModel() error = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestModelConfigIsACopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stopwords = []string{"a"}
	m := newTestModel(t, cfg)

	cfg.Stopwords[0] = "changed"
	got := m.Config()
	got.Stopwords[0] = "changed again"

	assert.Equal(t, []string{"a"}, m.Config().Stopwords)
	assert.Equal(t, DefaultPattern, m.Config().Pattern)
}

func TestBoundaryPolicyJSON(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boundary = BoundaryJumps
	data, err := json.Marshal(cfg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"boundary_policy":"jump"`)

	var decoded Config
	require.NoError(t, json.Unmarshal([]byte(`{"boundary_policy":"terminate"}`), &decoded))
	assert.Equal(t, BoundaryTerminates, decoded.Boundary)

	err = json.Unmarshal([]byte(`{"boundary_policy":"sideways"}`), &decoded)
	assert.Error(t, err)
}
