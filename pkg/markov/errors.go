package markov

import "errors"

var (
	// ErrInvalidOrder is returned by NewModel when the configured order range is
	// not 1 <= MinOrder <= MaxOrder.
	ErrInvalidOrder = errors.New("invalid order range")
	// ErrInvalidPattern is returned when the tokenizer pattern does not compile.
	ErrInvalidPattern = errors.New("invalid tokenizer pattern")
	// ErrUnsupportedLanguage is returned when stemming is requested for a
	// language the stemmer does not know.
	ErrUnsupportedLanguage = errors.New("unsupported stemming language")

	// ErrEmptyCorpus means there is no data to generate from.
	ErrEmptyCorpus = errors.New("no data to generate from")
	// ErrNoStartCandidates means no n-gram is eligible as a generation seed.
	ErrNoStartCandidates = errors.New("no start candidates")
	// ErrDegenerateOutput means the walk produced nothing beyond its seed.
	ErrDegenerateOutput = errors.New("generation failed")
)
