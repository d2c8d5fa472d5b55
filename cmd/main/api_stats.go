package main

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/CTAG07/Mimic/pkg/corpus"
	"github.com/CTAG07/Mimic/pkg/markov"
)

// StatsAPI holds the dependencies for the frequency report handlers.
type StatsAPI struct {
	cm     *ConfigManager
	store  *corpus.Store
	logger *slog.Logger
}

// FrequencyRow is one ranked entry with its share of the selection.
type FrequencyRow struct {
	Label      string  `json:"label"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// StatsReport is returned by GET /api/stats.
type StatsReport struct {
	Kind          string         `json:"kind"`
	Query         string         `json:"query,omitempty"`
	TotalMessages int            `json:"total_messages"`
	Samples       int            `json:"samples"`
	Rows          []FrequencyRow `json:"rows"`
}

func NewStatsAPI(cm *ConfigManager, store *corpus.Store, logger *slog.Logger) *StatsAPI {
	return &StatsAPI{
		cm:     cm,
		store:  store,
		logger: logger,
	}
}

func (s *StatsAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats", s.handleStats)
}

// handleStats ranks the n-grams or tokens of a selection.
//
//	guild_id  required
//	user_id   optional, narrows to one author
//	query     optional, only its first word is used as a substring filter
//	order     optional, restricts n-grams to one order
//	kind      "ngrams" (default) or "tokens"
//	top       optional, overrides generation_config.stats_top
func (s *StatsAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if !requireScope(w, r, scopeStatsRead) {
		return
	}

	q := queryFromURL(r)
	if q.GuildID == "" {
		respondWithError(w, http.StatusBadRequest, "guild_id is required")
		return
	}
	params := r.URL.Query()

	kind := params.Get("kind")
	if kind == "" {
		kind = "ngrams"
	}
	if kind != "ngrams" && kind != "tokens" {
		respondWithError(w, http.StatusBadRequest, "kind must be 'ngrams' or 'tokens'")
		return
	}

	top := s.cm.Get().Generation.StatsTop
	if v := params.Get("top"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "top must be an integer")
			return
		}
		top = n
	}

	var opts []markov.ReportOption
	var word string
	if fields := strings.Fields(params.Get("query")); len(fields) > 0 {
		word = fields[0]
		opts = append(opts, markov.WithSubstring(word))
	}
	if v := params.Get("order"); v != "" {
		order, err := strconv.Atoi(v)
		if err != nil || order <= 0 {
			respondWithError(w, http.StatusBadRequest, "order must be a positive integer")
			return
		}
		opts = append(opts, markov.WithOrder(order))
	}

	ctx, cancel := withTimeout(r.Context(), requestTimeout(s.cm))
	defer cancel()

	total, err := s.store.Count(ctx, q)
	if err != nil {
		s.logger.Error("Failed to count messages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}

	sel, err := buildSelection(ctx, s.cm, s.store, q, nil)
	if err != nil {
		respondWithMarkovError(w, s.logger, err)
		return
	}

	var ranked []markov.Frequency
	if kind == "tokens" {
		ranked = sel.index.TopTokens(top, opts...)
	} else {
		ranked = sel.index.TopNgrams(top, opts...)
	}

	rows := make([]FrequencyRow, 0, len(ranked))
	for _, f := range ranked {
		rows = append(rows, FrequencyRow{
			Label:      f.Label,
			Count:      f.Count,
			Percentage: markov.Percentage(f.Count, sel.samples),
		})
	}

	respondWithJSON(w, http.StatusOK, StatsReport{
		Kind:          kind,
		Query:         word,
		TotalMessages: total,
		Samples:       sel.samples,
		Rows:          rows,
	})
}
