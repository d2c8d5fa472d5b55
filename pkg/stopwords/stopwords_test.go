package stopwords

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguages(t *testing.T) {
	assert.Equal(t, []string{"deu", "eng", "fra", "spa"}, Languages())
}

func TestLoad(t *testing.T) {
	eng, err := Load("eng")
	require.NoError(t, err)
	assert.Contains(t, eng, "the")
	assert.Contains(t, eng, "and")
	assert.NotContains(t, eng, "cat")

	merged, err := Load(" ENG ", "", "spa")
	require.NoError(t, err)
	assert.Contains(t, merged, "the")
	assert.Contains(t, merged, "pero")

	// "a" is in both lists but only appears once.
	var count int
	for _, w := range merged {
		if w == "a" {
			count++
		}
	}
	assert.Equal(t, 1, count)

	none, err := Load()
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLoadUnknown(t *testing.T) {
	_, err := Load("eng", "xyz")
	if !errors.Is(err, ErrUnknownLanguage) {
		t.Fatalf("Load() error = %v, want ErrUnknownLanguage", err)
	}
}

func TestParse(t *testing.T) {
	terms, err := Parse([]byte("terms:\n  - Foo\n  - ' bar '\n  - foo\n  - ''\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"foo", "bar"}, terms)

	_, err = Parse([]byte("terms: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(filename, []byte("terms:\n  - lol\n  - lmao\n"), 0644))

	terms, err := LoadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, []string{"lol", "lmao"}, terms)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
