package markov

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// BoundaryPolicy decides what happens when a walk reaches a sample boundary.
type BoundaryPolicy int

const (
	// BoundaryTerminates ends the walk as soon as a boundary token is appended.
	BoundaryTerminates BoundaryPolicy = iota
	// BoundaryJumps treats a boundary as ordinary content; the walk continues
	// from a fresh start n-gram, blending into another sample.
	BoundaryJumps
)

// String implements fmt.Stringer.
func (p BoundaryPolicy) String() string {
	switch p {
	case BoundaryTerminates:
		return "terminate"
	case BoundaryJumps:
		return "jump"
	default:
		return fmt.Sprintf("BoundaryPolicy(%d)", int(p))
	}
}

// MarshalText implements encoding.TextMarshaler so configs store the policy by name.
func (p BoundaryPolicy) MarshalText() ([]byte, error) {
	switch p {
	case BoundaryTerminates, BoundaryJumps:
		return []byte(p.String()), nil
	}
	return nil, fmt.Errorf("unknown boundary policy %d", int(p))
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *BoundaryPolicy) UnmarshalText(text []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(text))) {
	case "", "terminate":
		*p = BoundaryTerminates
	case "jump":
		*p = BoundaryJumps
	default:
		return fmt.Errorf("unknown boundary policy %q", string(text))
	}
	return nil
}

// Config holds everything needed to build indexes. It is validated once by
// NewModel and never re-checked per call.
type Config struct {
	// MinOrder is the shortest n-gram indexed. Must be at least 1.
	MinOrder int `json:"min_order"`
	// MaxOrder is the longest n-gram indexed. Must be at least MinOrder.
	MaxOrder int `json:"max_order"`
	// Stopwords are excluded from start selection and from reports.
	Stopwords []string `json:"stopwords"`
	// Pattern is the tokenizer regex. Empty means DefaultPattern.
	Pattern string `json:"pattern"`
	// Boundary selects how walks treat sample boundaries.
	Boundary BoundaryPolicy `json:"boundary_policy"`
	// StartFallback lets seed selection draw from every n-gram when no
	// n-gram qualifies as a sample start.
	StartFallback bool `json:"start_fallback"`
	// Stemming reduces tokens to stems in the frequency table.
	Stemming bool `json:"stemming"`
	// StemLanguage is the snowball language used when Stemming is set.
	StemLanguage string `json:"stem_language"`
}

// DefaultConfig returns the settings the service ships with.
func DefaultConfig() Config {
	return Config{
		MinOrder:      2,
		MaxOrder:      3,
		Stopwords:     []string{},
		Pattern:       DefaultPattern,
		Boundary:      BoundaryTerminates,
		StartFallback: true,
		Stemming:      false,
		StemLanguage:  "english",
	}
}

// Validate checks the order range. Pattern and language problems are caught
// when NewModel compiles them.
func (c Config) Validate() error {
	if c.MinOrder < 1 || c.MaxOrder < c.MinOrder {
		return fmt.Errorf("%w: min_order=%d max_order=%d", ErrInvalidOrder, c.MinOrder, c.MaxOrder)
	}
	if c.Boundary != BoundaryTerminates && c.Boundary != BoundaryJumps {
		return fmt.Errorf("unknown boundary policy %d", int(c.Boundary))
	}
	return nil
}

// Model is the main entry point of the package. It owns a validated Config, a
// compiled Tokenizer and an optional Stemmer, and builds an Index per corpus.
// A Model holds no corpus state and may be shared between goroutines.
type Model struct {
	config    Config
	tokenizer *Tokenizer
	stemmer   *Stemmer
	logger    *slog.Logger
}

// NewModel validates config and compiles everything it needs. Any
// configuration error is returned here, before an index is ever built.
func NewModel(config Config) (*Model, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	tokenizer, err := NewTokenizer(WithPattern(config.Pattern), WithStopwords(config.Stopwords))
	if err != nil {
		return nil, err
	}

	var stemmer *Stemmer
	if config.Stemming {
		stemmer, err = NewStemmer(config.StemLanguage, DefaultStemCacheSize)
		if err != nil {
			return nil, err
		}
	}

	config.Stopwords = append([]string(nil), config.Stopwords...)
	config.Pattern = tokenizer.Pattern()

	return &Model{
		config:    config,
		tokenizer: tokenizer,
		stemmer:   stemmer,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// SetLogger sets the logger for the Model and the indexes and generators it
// creates. By default, all logs are discarded.
func (m *Model) SetLogger(logger *slog.Logger) {
	if logger != nil {
		m.logger = logger
	}
}

// Config returns a copy of the validated configuration.
func (m *Model) Config() Config {
	c := m.config
	c.Stopwords = append([]string(nil), m.config.Stopwords...)
	return c
}

// Tokenizer returns the compiled tokenizer.
func (m *Model) Tokenizer() *Tokenizer {
	return m.tokenizer
}
