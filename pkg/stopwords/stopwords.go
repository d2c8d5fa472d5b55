// Package stopwords provides stopword lists for the languages Mimic ships
// with, and loads custom lists from YAML files of the form:
//
//	terms:
//	  - the
//	  - and
package stopwords

import (
	"embed"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed lists/*.yaml
var lists embed.FS

// ErrUnknownLanguage is returned by Load for a language with no embedded list.
var ErrUnknownLanguage = errors.New("unknown stopword language")

type list struct {
	Language string   `yaml:"language"`
	Terms    []string `yaml:"terms"`
}

// Languages returns the ISO 639-3 codes of the embedded lists, sorted.
func Languages() []string {
	entries, err := lists.ReadDir("lists")
	if err != nil {
		return nil
	}
	langs := make([]string, 0, len(entries))
	for _, e := range entries {
		langs = append(langs, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(langs)
	return langs
}

// Load merges the embedded lists for langs, in order, without duplicates.
// Codes are trimmed and compared case-insensitively; empty codes are skipped.
func Load(langs ...string) ([]string, error) {
	var out []string
	seen := make(map[string]struct{})
	for _, lang := range langs {
		lang = strings.ToLower(strings.TrimSpace(lang))
		if lang == "" {
			continue
		}
		data, err := lists.ReadFile("lists/" + lang + ".yaml")
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, lang)
		}
		terms, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("embedded list %q: %w", lang, err)
		}
		out = merge(out, seen, terms)
	}
	return out, nil
}

// LoadFile reads a YAML stopword list from disk.
func LoadFile(filename string) ([]string, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	terms, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return terms, nil
}

// Parse decodes a YAML stopword list. Terms are lowercased and trimmed;
// blanks and duplicates are dropped.
func Parse(data []byte) ([]string, error) {
	var l list
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("could not parse stopword list: %w", err)
	}
	return merge(nil, make(map[string]struct{}), l.Terms), nil
}

func merge(out []string, seen map[string]struct{}, terms []string) []string {
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
