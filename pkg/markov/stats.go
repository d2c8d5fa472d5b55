package markov

import (
	"regexp"
	"sort"
	"strings"
)

// Frequency is one row of a report.
type Frequency struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

type reportOptions struct {
	substring string
	order     int
	exclude   func(string) bool
}

// ReportOption configures TopNgrams and TopTokens.
type ReportOption func(*reportOptions)

// WithSubstring keeps only labels containing s, compared case-insensitively.
func WithSubstring(s string) ReportOption {
	return func(o *reportOptions) { o.substring = strings.ToLower(strings.TrimSpace(s)) }
}

// WithOrder restricts TopNgrams to a single order. By default all orders are
// pooled into one ranking.
func WithOrder(order int) ReportOption {
	return func(o *reportOptions) { o.order = order }
}

// WithExclude drops labels for which fn returns true. TopTokens defaults to
// IsMention.
func WithExclude(fn func(string) bool) ReportOption {
	return func(o *reportOptions) { o.exclude = fn }
}

var mentionRe = regexp.MustCompile(`^(<[@#][!&]?\d+>|@\S+)$`)

// IsMention reports whether token looks like a chat mention such as <@123>,
// <#123>, <@&123> or @everyone.
func IsMention(token string) bool {
	return mentionRe.MatchString(token)
}

// TopNgrams ranks n-grams by the size of their continuation multiset,
// descending. Ties keep the index's first-seen order, so the result is the
// same on every call. Labels are the surface tokens joined by spaces. Keys whose
// full text is a stopword are skipped. n <= 0 returns every eligible n-gram.
func (x *Index) TopNgrams(n int, opts ...ReportOption) []Frequency {
	options := &reportOptions{}
	for _, opt := range opts {
		opt(options)
	}

	rows := make([]Frequency, 0, len(x.keys))
	for _, ngram := range x.keys {
		if options.order > 0 && ngram.Order != options.order {
			continue
		}
		label := Render(ngram.Tokens)
		if x.tokenizer.IsStopword(label) {
			continue
		}
		if !options.keep(label) {
			continue
		}
		rows = append(rows, Frequency{Label: label, Count: len(ngram.Next)})
	}
	return rank(rows, n)
}

// TopTokens ranks the token frequency table the same way TopNgrams ranks
// n-grams. Stopwords were never counted. Mention-like tokens are dropped unless
// WithExclude overrides the filter.
func (x *Index) TopTokens(n int, opts ...ReportOption) []Frequency {
	options := &reportOptions{exclude: IsMention}
	for _, opt := range opts {
		opt(options)
	}

	rows := make([]Frequency, 0, len(x.freqOrder))
	for _, token := range x.freqOrder {
		if !options.keep(token) {
			continue
		}
		rows = append(rows, Frequency{Label: token, Count: x.freq[token]})
	}
	return rank(rows, n)
}

func (o *reportOptions) keep(label string) bool {
	if o.substring != "" && !strings.Contains(strings.ToLower(label), o.substring) {
		return false
	}
	if o.exclude != nil && o.exclude(label) {
		return false
	}
	return true
}

func rank(rows []Frequency, n int) []Frequency {
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Count > rows[j].Count
	})
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}
	return rows
}

// Percentage returns count as a percentage of total, or 0 when total is 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}
