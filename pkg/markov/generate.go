package markov

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

// DefaultMaxSteps caps the number of steps in a single walk.
const DefaultMaxSteps = 500

// StopFunc is evaluated after every append with the sequence so far. The walk
// halts as soon as it returns true.
type StopFunc func(seq []Token) bool

type generateOptions struct {
	maxSteps int
}

// GenerateOption configures a single walk.
type GenerateOption func(*generateOptions)

// WithMaxSteps sets a hard cap on the number of appended tokens. A walk that
// reaches the cap returns what it has without error. Values <= 0 are ignored.
// Default: DefaultMaxSteps
func WithMaxSteps(n int) GenerateOption {
	return func(o *generateOptions) {
		if n > 0 {
			o.maxSteps = n
		}
	}
}

// Generate extends seed one token at a time until stop returns true, the step
// cap is reached, or no continuation exists. An empty seed is replaced by
// RandomSeed. A nil stop never halts the walk on its own. A seed shorter than
// MinOrder is first extended along an n-gram that begins with it.
//
// When no order yields a continuation, a boundary token is appended and the
// walk ends; exhaustion is never an error.
// Under BoundaryTerminates the walk also ends once a sampled boundary is
// appended. Under BoundaryJumps a boundary is ordinary content and the next
// step appends a fresh start n-gram.
//
// The returned slice starts with a copy of seed. The only errors are those of
// RandomSeed and the context.
func (g *Generator) Generate(ctx context.Context, seed []Token, stop StopFunc, opts ...GenerateOption) ([]Token, error) {
	options := &generateOptions{maxSteps: DefaultMaxSteps}
	for _, opt := range opts {
		opt(options)
	}

	if len(seed) == 0 {
		var err error
		if seed, err = g.RandomSeed(); err != nil {
			return nil, err
		}
	}
	seq := append(make([]Token, 0, len(seed)+16), seed...)

	for step := 0; ; step++ {
		if step >= options.maxSteps {
			g.logger.DebugContext(ctx, "Walk reached step limit", slog.Int("steps", step))
			return seq, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("generation interrupted after %d steps: %w", step, err)
		}

		if g.index.boundary == BoundaryJumps && seq[len(seq)-1].Boundary {
			jump, err := g.RandomSeed()
			if err != nil {
				g.logger.DebugContext(ctx, "No start n-gram to jump to, ending walk",
					slog.Int("steps", step),
					slog.Any("error", err),
				)
				return seq, nil
			}
			seq = append(seq, jump...)
			if stop != nil && stop(seq) {
				return seq, nil
			}
			continue
		}

		tok, ok := g.next(seq)
		if !ok {
			g.logger.DebugContext(ctx, "No continuation at any order, ending walk",
				slog.Int("steps", step),
				slog.String("tail", Render(seq[max(0, len(seq)-g.index.maxOrder):])),
			)
			return append(seq, BoundaryToken()), nil
		}

		seq = append(seq, tok)
		if stop != nil && stop(seq) {
			return seq, nil
		}
		if tok.Boundary && g.index.boundary == BoundaryTerminates {
			return seq, nil
		}
	}
}

// StopCondition describes when a walk may end, in terms of the normalized
// rendered text. Lengths are counted in runes.
type StopCondition struct {
	// MinLength is the text length below which the walk never stops voluntarily.
	MinLength int `json:"min_length"`
	// MaxLength stops the walk unconditionally. Zero disables it.
	MaxLength int `json:"max_length"`
	// Terminals are the characters that end a sentence.
	Terminals string `json:"terminals"`
}

// DefaultStopCondition returns the condition used for chat-sized output.
func DefaultStopCondition() StopCondition {
	return StopCondition{
		MinLength: 25,
		MaxLength: 2000,
		Terminals: ".?!",
	}
}

// Func translates the condition into a StopFunc for a walk starting at seed.
// The walk never stops while the text is shorter than MinLength or equal to the
// seed, stops once MaxLength is reached, and otherwise stops when the last
// token is a boundary or the text ends with a terminal character.
func (c StopCondition) Func(seed []Token) StopFunc {
	seedText := Normalize(Render(seed))
	return func(seq []Token) bool {
		text := Normalize(Render(seq))
		length := utf8.RuneCountInString(text)
		if c.MaxLength > 0 && length >= c.MaxLength {
			return true
		}
		if length < c.MinLength || strings.EqualFold(text, seedText) {
			return false
		}
		if len(seq) > 0 && seq[len(seq)-1].Boundary {
			return true
		}
		last, _ := utf8.DecodeLastRuneInString(text)
		return c.Terminals != "" && strings.ContainsRune(c.Terminals, last)
	}
}

// Result is the outcome of a successful Impersonate call.
type Result struct {
	Seed   string  `json:"seed"`
	Text   string  `json:"text"`
	Tokens []Token `json:"-"`
}

// Impersonate is the request-level operation: the query is normalized and
// tokenized into a seed (a random start is drawn when it yields no tokens),
// the walk runs under cond, and the output is rendered without boundaries.
// Output that is empty or equal to the seed is reported as ErrDegenerateOutput
// so the caller can suggest a different query.
func (g *Generator) Impersonate(ctx context.Context, query string, cond StopCondition, opts ...GenerateOption) (*Result, error) {
	seed := g.index.tokenizer.Tokenize(Normalize(query))
	if len(seed) == 0 {
		var err error
		if seed, err = g.RandomSeed(); err != nil {
			return nil, err
		}
	}

	tokens, err := g.Generate(ctx, seed, cond.Func(seed), opts...)
	if err != nil {
		return nil, err
	}

	seedText := Normalize(Render(seed))
	text := Normalize(Render(tokens))
	if text == "" || strings.EqualFold(text, seedText) {
		g.logger.DebugContext(ctx, "Walk produced degenerate output", slog.String("seed", seedText))
		return nil, ErrDegenerateOutput
	}

	return &Result{Seed: seedText, Text: text, Tokens: tokens}, nil
}
