package corpus

import (
	"strings"

	"github.com/CTAG07/Mimic/pkg/markov"
)

// CommandPrefixes are the leading characters of bot commands. Messages that
// start with one of them are never used as samples.
var CommandPrefixes = []string{"!", "?", "-", "+", "#", "$", "%", "&", "/"}

// MinWords is the minimum number of words a sample must have.
const MinWords = 3

// Eligible decides whether a raw message is usable as a sample and returns its
// normalized form. Links, code, commands and very short messages are rejected.
func Eligible(content string) (string, bool) {
	if strings.Contains(content, "http://") || strings.Contains(content, "https://") {
		return "", false
	}
	if strings.Contains(content, "`") {
		return "", false
	}

	text := markov.Normalize(content)
	if text == "" || len(strings.Split(text, " ")) < MinWords {
		return "", false
	}
	for _, prefix := range CommandPrefixes {
		if strings.HasPrefix(text, prefix) {
			return "", false
		}
	}
	return text, true
}
